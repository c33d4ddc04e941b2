package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"powerband"
	"powerband/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

const settingsColumns = "id, enabled, champion_mode, current_band_id, pending_band_id"

func TestSettingsSQLite_Save_UpsertsSingleRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewSettingsSQLite(db)

	bandID := int64(3)
	pendingID := int64(1)
	champ := "m30-01"
	price := 8.25
	actionAt := time.Date(2026, 2, 1, 12, 30, 0, 0, time.UTC)
	updatedAt := time.Date(2026, 2, 1, 12, 30, 5, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO strategy_settings")).
		WithArgs(
			1, // single-row id constant
			true,
			true,
			bandID,
			pendingID,
			1,
			champ,
			price,
			actionAt,
			updatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Save(context.Background(), powerband.StrategySettings{
		ID:                  1,
		Enabled:             true,
		ChampionModeEnabled: true,
		CurrentBandID:       &bandID,
		PendingBandID:       &pendingID,
		HysteresisCounter:   1,
		CurrentChampionID:   &champ,
		LastPriceChecked:    &price,
		LastActionTime:      actionAt,
		UpdatedAt:           updatedAt,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSettingsSQLite_Save_NilPointersPersistAsNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewSettingsSQLite(db)

	isNil := sqlmockArgumentFunc(func(v driver.Value) bool { return v == nil })
	isUTC := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		return ok && tm.Location() == time.UTC
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO strategy_settings")).
		WithArgs(
			1,
			false,
			false,
			isNil, // current_band_id
			isNil, // pending_band_id
			0,
			isNil, // current_champion_id
			isNil, // last_price
			isNil, // last_action_at: zero time stays NULL
			isUTC, // updated_at filled with now
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), powerband.StrategySettings{ID: 1}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSettingsSQLite_Load_NoRowsReturnsZeroValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewSettingsSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta(settingsColumns)).
		WithArgs(1).
		WillReturnError(sql.ErrNoRows)

	s, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.ID != 0 {
		t.Fatalf("expected zero-value settings for empty table, got %+v", s)
	}
}

func TestSettingsSQLite_Load_RestoresNullableFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewSettingsSQLite(db)

	updatedAt := time.Date(2026, 2, 1, 12, 30, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "enabled", "champion_mode", "current_band_id", "pending_band_id",
		"hysteresis_counter", "current_champion_id", "last_price", "last_action_at", "updated_at",
	}).AddRow(1, true, false, int64(3), nil, 0, nil, 8.25, nil, updatedAt)

	mock.ExpectQuery(regexp.QuoteMeta(settingsColumns)).
		WithArgs(1).
		WillReturnRows(rows)

	s, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.CurrentBandID == nil || *s.CurrentBandID != 3 {
		t.Fatalf("expected current band 3, got %v", s.CurrentBandID)
	}
	if s.PendingBandID != nil || s.CurrentChampionID != nil {
		t.Fatalf("expected NULL columns restored as nil pointers")
	}
	if s.LastPriceChecked == nil || *s.LastPriceChecked != 8.25 {
		t.Fatalf("expected last price restored, got %v", s.LastPriceChecked)
	}
	if !s.LastActionTime.IsZero() {
		t.Fatalf("expected zero LastActionTime for NULL column")
	}
}

func TestSettingsSQLite_Load_QueryErrorPropagated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewSettingsSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta(settingsColumns)).
		WithArgs(1).
		WillReturnError(errors.New("db down"))

	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}
