package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ishimweeli/timetable-api/internal/middleware"
	"github.com/ishimweeli/timetable-api/internal/repository"
	"github.com/ishimweeli/timetable-api/internal/service"
)

// RouterDeps bundles everything RegisterRoutes needs to wire the API surface.
type RouterDeps struct {
	ManualSchedule *ManualScheduleHandler
	Teachers       *TeacherHandler
	Students       *StudentHandler
	Subjects       *SubjectHandler
	Rooms          *RoomHandler
	Classes        *ClassHandler
	ClassBands     *ClassBandHandler
	Bindings       *BindingHandler
	Exports        *ExportHandler
	Audit          *AuditHandler
	Metrics        *MetricsHandler

	MetricsService *service.MetricsService
	AuditRepo      *repository.AuditRepository
	JWTSecret      string
}

// RegisterRoutes mounts all API routes under /api/v1.
func RegisterRoutes(r *gin.Engine, deps RouterDeps) {
	r.Use(middleware.Metrics(deps.MetricsService))

	r.GET("/metrics", deps.Metrics.Prometheus)

	v1 := r.Group("/api/v1")
	authed := middleware.BearerAuth(deps.JWTSecret)

	scheduling := v1.Group("/manual-scheduling")
	{
		scheduling.GET("/entries/:timetableId", deps.ManualSchedule.GetEntries)
		scheduling.POST("/entries/:timetableId/pending", authed, deps.ManualSchedule.AddPending)
		scheduling.DELETE("/entries/:timetableId/pending", authed, deps.ManualSchedule.DiscardPending)
		scheduling.POST("/entries/:timetableId/save", authed,
			middleware.Audit(deps.AuditRepo, "save", "schedule_entries"), deps.ManualSchedule.SaveAll)
		scheduling.DELETE("/entry/:id", authed,
			middleware.Audit(deps.AuditRepo, "delete", "schedule_entries"), deps.ManualSchedule.RemoveEntry)
	}

	timetables := v1.Group("/timetables")
	{
		timetables.POST("/:timetableId/export", authed, deps.Exports.Enqueue)
	}

	exports := v1.Group("/exports")
	{
		exports.GET("/download", deps.Exports.Download)
		exports.GET("/:id", deps.Exports.Status)
	}

	registerCrud(v1, "/teachers", authed, deps.AuditRepo, "teachers", crudHandlers{
		list:   deps.Teachers.List,
		get:    deps.Teachers.Get,
		create: deps.Teachers.Create,
		update: deps.Teachers.Update,
		remove: deps.Teachers.Deactivate,
	})
	registerCrud(v1, "/students", authed, deps.AuditRepo, "students", crudHandlers{
		list:   deps.Students.List,
		get:    deps.Students.Get,
		create: deps.Students.Create,
		update: deps.Students.Update,
		remove: deps.Students.Deactivate,
	})
	registerCrud(v1, "/subjects", authed, deps.AuditRepo, "subjects", crudHandlers{
		list:   deps.Subjects.List,
		get:    deps.Subjects.Get,
		create: deps.Subjects.Create,
		update: deps.Subjects.Update,
		remove: deps.Subjects.Delete,
	})
	registerCrud(v1, "/rooms", authed, deps.AuditRepo, "rooms", crudHandlers{
		list:   deps.Rooms.List,
		get:    deps.Rooms.Get,
		create: deps.Rooms.Create,
		update: deps.Rooms.Update,
		remove: deps.Rooms.Delete,
	})
	registerCrud(v1, "/classes", authed, deps.AuditRepo, "classes", crudHandlers{
		list:   deps.Classes.List,
		get:    deps.Classes.Get,
		create: deps.Classes.Create,
		update: deps.Classes.Update,
		remove: deps.Classes.Delete,
	})
	v1.PUT("/class-bands/:id/classes", authed,
		middleware.Audit(deps.AuditRepo, "update", "class_bands"), deps.ClassBands.UpdateClasses)
	registerCrud(v1, "/class-bands", authed, deps.AuditRepo, "class_bands", crudHandlers{
		list:   deps.ClassBands.List,
		get:    deps.ClassBands.Get,
		create: deps.ClassBands.Create,
		update: deps.ClassBands.Update,
		remove: deps.ClassBands.Delete,
	})
	registerCrud(v1, "/bindings", authed, deps.AuditRepo, "bindings", crudHandlers{
		list:   deps.Bindings.List,
		get:    deps.Bindings.Get,
		create: deps.Bindings.Create,
		update: deps.Bindings.Update,
		remove: deps.Bindings.Delete,
	})

	v1.GET("/audit-logs", authed, deps.Audit.List)
}

type crudHandlers struct {
	list   gin.HandlerFunc
	get    gin.HandlerFunc
	create gin.HandlerFunc
	update gin.HandlerFunc
	remove gin.HandlerFunc
}

func registerCrud(v1 *gin.RouterGroup, path string, authed gin.HandlerFunc, auditRepo *repository.AuditRepository, resource string, h crudHandlers) {
	g := v1.Group(path)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("", authed, middleware.Audit(auditRepo, "create", resource), h.create)
	g.PUT("/:id", authed, middleware.Audit(auditRepo, "update", resource), h.update)
	g.DELETE("/:id", authed, middleware.Audit(auditRepo, "delete", resource), h.remove)
}
