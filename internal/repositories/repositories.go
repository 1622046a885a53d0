package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// SlotRepository stores slots in the SQLite slots table.
type SlotRepository struct {
	db    *sql.DB
	quota int
}

// NewSlotRepository creates a new SlotRepository with the given database connection.
//
// quota is the largest value in bytes a Put accepts; zero or less disables the limit.
func NewSlotRepository(db *sql.DB, quota int) *SlotRepository {
	return &SlotRepository{db: db, quota: quota}
}

// Get retrieves the slot stored under key.
//
// Returns [shared.ErrSlotNotFound] when the key was never written.
func (r *SlotRepository) Get(key string) (*models.Slot, error) {
	query := `
		SELECT key, value, revision, origin, updated_at
		FROM slots
		WHERE key = ?
	`

	var slot models.Slot
	err := r.db.QueryRow(query, key).Scan(&slot.Key, &slot.Value, &slot.Revision, &slot.Origin, &slot.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSlotNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan slot: %w", err)
	}

	return &slot, nil
}

// Put replaces the value stored under key and returns the new revision.
func (r *SlotRepository) Put(key string, value []byte, origin string) (int64, error) {
	if r.quota > 0 && len(value) > r.quota {
		return 0, fmt.Errorf("%w: %d bytes exceeds %d", shared.ErrQuotaExceeded, len(value), r.quota)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO slots (key, value, revision, origin, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = slots.revision + 1,
			origin = excluded.origin,
			updated_at = excluded.updated_at
	`
	if _, err := tx.Exec(query, key, value, origin, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("failed to write slot: %w", err)
	}

	var revision int64
	if err := tx.QueryRow("SELECT revision FROM slots WHERE key = ?", key).Scan(&revision); err != nil {
		return 0, fmt.Errorf("failed to read slot revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit slot write: %w", err)
	}

	return revision, nil
}

// Revision returns the current revision and writer of key without reading its value.
//
// An absent key reports revision 0 and an empty origin.
func (r *SlotRepository) Revision(key string) (int64, string, error) {
	var (
		revision int64
		origin   string
	)

	err := r.db.QueryRow("SELECT revision, origin FROM slots WHERE key = ?", key).Scan(&revision, &origin)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to read slot revision: %w", err)
	}

	return revision, origin, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *SlotRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM slots WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}

// Keys lists every stored slot key in lexical order.
func (r *SlotRepository) Keys() ([]string, error) {
	rows, err := r.db.Query("SELECT key FROM slots ORDER BY key ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan slot key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return keys, nil
}
