package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishimweeli/timetable-api/internal/models"
)

func bindingDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "teacher_id", "subject_id", "room_id", "class_id", "class_band_id",
		"periods_per_week", "created_at", "updated_at",
		"teacher_name", "subject_name", "room_name", "class_name",
	})
}

func TestBindingRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	rows := bindingDetailRows().
		AddRow("b1", "t1", "s1", "r1", "c1", nil, 4, time.Now(), time.Now(), "Teacher A", "Math", "Room 1", "10A")
	mock.ExpectQuery("(?s)SELECT b.id, .+ FROM bindings b").
		WithArgs("t1").
		WillReturnRows(rows)
	mock.ExpectQuery("(?s)SELECT COUNT\\(\\*\\).+FROM bindings b").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.BindingFilter{TeacherID: "t1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Teacher A", list[0].TeacherName)
	assert.Equal(t, models.ClassScope("c1"), list[0].Scope())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindingRepositoryListForSchedulingClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject_id", "room_id", "class_id", "class_band_id", "periods_per_week", "created_at", "updated_at"}).
		AddRow("b1", "t1", "s1", "r1", "c1", nil, 4, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM bindings WHERE class_id = \\$1").
		WithArgs("c1").
		WillReturnRows(rows)

	bindings, err := repo.ListForScheduling(context.Background(), models.ClassScope("c1"))
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "b1", bindings[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindingRepositoryListForSchedulingBand(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject_id", "room_id", "class_id", "class_band_id", "periods_per_week", "created_at", "updated_at"}).
		AddRow("b2", "t1", "s1", "r1", nil, "band1", 2, time.Now(), time.Now())
	mock.ExpectQuery("(?s)SELECT .+ FROM bindings WHERE class_band_id = \\$1.+UNION").
		WithArgs("band1").
		WillReturnRows(rows)

	bindings, err := repo.ListForScheduling(context.Background(), models.ClassBandScope("band1"))
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, models.ClassBandScope("band1"), bindings[0].Scope())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindingRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	mock.ExpectExec("INSERT INTO bindings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	classID := "c1"
	binding := models.Binding{TeacherID: "t1", SubjectID: "s1", RoomID: "r1", ClassID: &classID, PeriodsPerWeek: 4}
	require.NoError(t, repo.Create(context.Background(), &binding))
	assert.NotEmpty(t, binding.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
