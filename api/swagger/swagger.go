package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Manual timetable scheduling service with conflict detection",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "ManualScheduling", "description": "Pending/committed schedule entry workspace"},
        {"name": "Teachers", "description": "Teacher roster management"},
        {"name": "Students", "description": "Student roster management"},
        {"name": "Subjects", "description": "Subject catalog"},
        {"name": "Rooms", "description": "Room catalog"},
        {"name": "Classes", "description": "Class catalog"},
        {"name": "ClassBands", "description": "Class band groupings"},
        {"name": "Bindings", "description": "Teacher-subject-room assignments"},
        {"name": "Exports", "description": "Asynchronous timetable PDF exports"},
        {"name": "Audit", "description": "Audit trail"}
    ],
    "paths": {
        "/manual-scheduling/entries/{timetableId}": {
            "get": {
                "tags": ["ManualScheduling"],
                "summary": "Load the working set for one timetable scope",
                "parameters": [
                    {"name": "timetableId", "in": "path", "type": "string", "required": true},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "classBandId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/manual-scheduling/entries/{timetableId}/pending": {
            "post": {
                "tags": ["ManualScheduling"],
                "summary": "Stage a pending schedule entry",
                "parameters": [
                    {"name": "timetableId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddPendingRequest"}}
                ],
                "responses": {
                    "200": {"description": "Conflicts detected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Pending entry staged", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["ManualScheduling"],
                "summary": "Discard all pending entries for a scope",
                "parameters": [
                    {"name": "timetableId", "in": "path", "type": "string", "required": true},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "classBandId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Discarded"}
                }
            }
        },
        "/manual-scheduling/entries/{timetableId}/save": {
            "post": {
                "tags": ["ManualScheduling"],
                "summary": "Persist every pending entry of the session",
                "parameters": [
                    {"name": "timetableId", "in": "path", "type": "string", "required": true},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "classBandId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Save summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/manual-scheduling/entry/{id}": {
            "delete": {
                "tags": ["ManualScheduling"],
                "summary": "Remove a pending or committed entry",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "timetableId", "in": "query", "type": "string", "required": true},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "classBandId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/timetables/{timetableId}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a timetable PDF export",
                "parameters": [
                    {"name": "timetableId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export by signed token",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF file"}
                }
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Create teacher",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTeacherRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bindings": {
            "get": {
                "tags": ["Bindings"],
                "summary": "List bindings",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "classBandId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Bindings"],
                "summary": "Create binding",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BindingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        }
    },
    "definitions": {
        "AddPendingRequest": {
            "type": "object",
            "required": ["binding_id", "day_of_week", "period_id"],
            "properties": {
                "class_id": {"type": "string"},
                "class_band_id": {"type": "string"},
                "binding_id": {"type": "string"},
                "day_of_week": {"type": "integer", "minimum": 1, "maximum": 7},
                "period_id": {"type": "integer", "minimum": 1},
                "force_add": {"type": "boolean"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "string"},
                "class_band_id": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "CreateTeacherRequest": {
            "type": "object",
            "required": ["email", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "initials": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "BindingRequest": {
            "type": "object",
            "required": ["teacher_id", "subject_id", "room_id", "periods_per_week"],
            "properties": {
                "teacher_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "room_id": {"type": "string"},
                "class_id": {"type": "string"},
                "class_band_id": {"type": "string"},
                "periods_per_week": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
