package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	intconfig "storefront/internal/config"
	intdb "storefront/internal/db"
)

const draftTable = "booking_drafts"

// DraftRepository stores serialized wizard drafts in booking_drafts, one row per storage key.
type DraftRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func (r DraftRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r DraftRepository) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// EnsureTable creates booking_drafts when it does not exist yet.
func (r DraftRepository) EnsureTable() error {
	db := r.db()
	if db == nil {
		return errors.New("draft repository: no database")
	}
	if intdb.HasTable(db, draftTable) {
		return nil
	}
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + draftTable + ` (
			storage_key VARCHAR(191) NOT NULL PRIMARY KEY,
			payload     MEDIUMTEXT   NOT NULL,
			updated_at  DATETIME     NOT NULL,
			KEY idx_booking_drafts_updated (updated_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`)
	if err != nil {
		return fmt.Errorf("create %s: %w", draftTable, err)
	}
	return nil
}

func (r DraftRepository) Load(key string) ([]byte, bool, error) {
	db := r.db()
	if db == nil {
		return nil, false, errors.New("draft repository: no database")
	}
	var payload string
	err := db.QueryRow(`SELECT payload FROM `+draftTable+` WHERE storage_key=? LIMIT 1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load draft: %w", err)
	}
	return []byte(payload), true, nil
}

func (r DraftRepository) Save(key string, raw []byte) error {
	db := r.db()
	if db == nil {
		return errors.New("draft repository: no database")
	}
	_, err := db.Exec(`
		INSERT INTO `+draftTable+` (storage_key, payload, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE payload=VALUES(payload), updated_at=VALUES(updated_at)`,
		key, string(raw), r.now())
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (r DraftRepository) Delete(key string) error {
	db := r.db()
	if db == nil {
		return errors.New("draft repository: no database")
	}
	if _, err := db.Exec(`DELETE FROM `+draftTable+` WHERE storage_key=?`, key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// PurgeOlderThan removes drafts untouched for longer than age and returns how many went.
func (r DraftRepository) PurgeOlderThan(age time.Duration) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, errors.New("draft repository: no database")
	}
	res, err := db.Exec(`DELETE FROM `+draftTable+` WHERE updated_at < ?`, r.now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// MemoryDraftRepository keeps drafts in process memory when no DB_DSN is configured.
type MemoryDraftRepository struct {
	mu      sync.Mutex
	rows    map[string]memoryDraft
	Now     func() time.Time
	FailOps map[string]error
}

type memoryDraft struct {
	payload   []byte
	updatedAt time.Time
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{rows: map[string]memoryDraft{}}
}

func (r *MemoryDraftRepository) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *MemoryDraftRepository) fail(op string) error {
	if r.FailOps == nil {
		return nil
	}
	return r.FailOps[op]
}

func (r *MemoryDraftRepository) Load(key string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("load"); err != nil {
		return nil, false, err
	}
	row, ok := r.rows[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), row.payload...), true, nil
}

func (r *MemoryDraftRepository) Save(key string, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("save"); err != nil {
		return err
	}
	r.rows[key] = memoryDraft{payload: append([]byte(nil), raw...), updatedAt: r.now()}
	return nil
}

func (r *MemoryDraftRepository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("delete"); err != nil {
		return err
	}
	delete(r.rows, key)
	return nil
}

func (r *MemoryDraftRepository) PurgeOlderThan(age time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-age)
	var n int64
	for k, row := range r.rows {
		if row.updatedAt.Before(cutoff) {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

// Keys lists stored keys with the given prefix.
func (r *MemoryDraftRepository) Keys(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for k := range r.rows {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}
