package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMigrationsEmbedded(t *testing.T) {
	stmts, err := Migrations()
	if err != nil {
		t.Fatalf("Migrations failed: %v", err)
	}
	if len(stmts) == 0 {
		t.Fatal("expected at least one migration")
	}
	if !strings.Contains(stmts[0], "CREATE TABLE IF NOT EXISTS appointments") {
		t.Fatal("first migration should create the appointments table")
	}
}

func TestTranslate(t *testing.T) {
	if !IsNotFound(translate(pgx.ErrNoRows)) {
		t.Fatal("expected ErrNoRows to map to ErrNotFound")
	}
	if !IsNotFound(translate(fmt.Errorf("wrapped: %w", pgx.ErrNoRows))) {
		t.Fatal("expected wrapped ErrNoRows to map to ErrNotFound")
	}

	check := &pgconn.PgError{Code: "23514", ConstraintName: "appointments_time_order", Message: "violates check"}
	if !errors.Is(translate(check), ErrInvalidTimeRange) {
		t.Fatal("expected check violation to map to ErrInvalidTimeRange")
	}

	other := errors.New("connection reset")
	if translate(other) != other {
		t.Fatal("expected unrelated errors to pass through")
	}
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	repo := NewAppointmentRepository(nil)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "not-a-uuid"); !IsNotFound(err) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "42"); !IsNotFound(err) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
}
