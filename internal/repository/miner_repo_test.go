package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"powerband"
	"powerband/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMinerSQLite_Add_NormalizesTypeToLower(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewMinerSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrolled_miners")).
		WithArgs("s19-01", "antminer", "10.0.0.21:4028", 0.0, false, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Add(context.Background(), powerband.EnrolledMiner{
		ID:      "s19-01",
		Type:    " Antminer ",
		Address: "10.0.0.21:4028",
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMinerSQLite_Add_DuplicateIDMapsToSentinel(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewMinerSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrolled_miners")).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: enrolled_miners.id"))

	err = repo.Add(context.Background(), powerband.EnrolledMiner{ID: "s19-01", Address: "10.0.0.21"})
	if !errors.Is(err, repository.ErrMinerAlreadyExists) {
		t.Fatalf("expected ErrMinerAlreadyExists, got %v", err)
	}
}

func TestMinerSQLite_Remove_ZeroRowsMeansNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewMinerSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrolled_miners")).
		WithArgs("ghost-01").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Remove(context.Background(), "ghost-01"); !errors.Is(err, repository.ErrMinerNotFound) {
		t.Fatalf("expected ErrMinerNotFound, got %v", err)
	}
}

func TestMinerSQLite_UpdateHealth_TouchesTelemetryColumnsOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewMinerSQLite(db)

	seen := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrolled_miners SET reachable=?, efficiency=?, last_seen=?")).
		WithArgs(true, 29.4, seen, "m30-01").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateHealth(context.Background(), "m30-01", true, 29.4, seen); err != nil {
		t.Fatalf("UpdateHealth() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMinerSQLite_List_RestoresNullLastSeen(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewMinerSQLite(db)

	enrolledAt := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "type", "address", "efficiency", "reachable", "last_seen", "enrolled_at"}).
		AddRow("s19-01", "antminer", "10.0.0.21:4028", 31.5, true, nil, enrolledAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM enrolled_miners")).
		WillReturnRows(rows)

	miners, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(miners) != 1 {
		t.Fatalf("expected 1 miner, got %d", len(miners))
	}
	if !miners[0].LastSeen.IsZero() {
		t.Fatalf("expected zero LastSeen for NULL column")
	}
}
