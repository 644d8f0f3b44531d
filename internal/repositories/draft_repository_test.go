package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDraftRepositoryLoadMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT payload FROM booking_drafts").WithArgs("k1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	raw, found, err := DraftRepository{DB: db}.Load("k1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if found || raw != nil {
		t.Fatalf("expected not found, got found=%v raw=%q", found, raw)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDraftRepositorySaveUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO booking_drafts .* ON DUPLICATE KEY UPDATE").
		WithArgs("k1", `{"version":3}`, fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT payload FROM booking_drafts").WithArgs("k1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`{"version":3}`))

	repo := DraftRepository{DB: db, Now: func() time.Time { return fixed }}
	if err := repo.Save("k1", []byte(`{"version":3}`)); err != nil {
		t.Fatalf("save error: %v", err)
	}
	raw, found, err := repo.Load("k1")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if string(raw) != `{"version":3}` {
		t.Fatalf("unexpected payload %q", raw)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDraftRepositoryLoadWrapsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT payload FROM booking_drafts").WillReturnError(boom)

	_, _, err = DraftRepository{DB: db}.Load("k1")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestDraftRepositoryEnsureTableCreatesWhenMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("information_schema\\.tables").WithArgs("booking_drafts").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS booking_drafts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := (DraftRepository{DB: db}).EnsureTable(); err != nil {
		t.Fatalf("ensure table error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDraftRepositoryDeleteAndPurge(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	fixed := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM booking_drafts WHERE storage_key").WithArgs("k1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM booking_drafts WHERE updated_at").WithArgs(fixed.Add(-48 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	repo := DraftRepository{DB: db, Now: func() time.Time { return fixed }}
	if err := repo.Delete("k1"); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	n, err := repo.PurgeOlderThan(48 * time.Hour)
	if err != nil {
		t.Fatalf("purge error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 purged rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemoryDraftRepositoryPurge(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryDraftRepository()
	repo.Now = func() time.Time { return now.Add(-72 * time.Hour) }
	_ = repo.Save("old", []byte("a"))
	repo.Now = func() time.Time { return now }
	_ = repo.Save("fresh", []byte("b"))

	n, err := repo.PurgeOlderThan(24 * time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 purged, got %d (%v)", n, err)
	}
	if _, found, _ := repo.Load("old"); found {
		t.Fatalf("old draft should be gone")
	}
	if raw, found, _ := repo.Load("fresh"); !found || string(raw) != "b" {
		t.Fatalf("fresh draft should survive, got %q", raw)
	}
}
