package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"restkit/internal/models"
)

func TestFooUpdateBuildsSetClause(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	value := 9.5
	mock.ExpectExec(`UPDATE foo SET name = \$1, description = \$2, value = \$3, updated_at = NOW\(\) AT TIME ZONE 'UTC' WHERE id = \$4`).
		WithArgs("n", "d", 9.5, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := &models.UpdateFooRequest{Name: "n", Description: "d", Value: &value}
	if err := NewFooRepository(db).Update(context.Background(), 3, req); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFooDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM foo WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewFooRepository(db).Delete(context.Background(), 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestFooListWithLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM foo\s+ORDER BY id LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "value", "status", "created_at", "updated_at"}))

	foos, err := NewFooRepository(db).List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(foos) != 0 {
		t.Fatalf("expected empty list got %v", foos)
	}
}
