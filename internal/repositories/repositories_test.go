package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// slotStore is the method set shared by both repositories.
type slotStore interface {
	Get(key string) (*models.Slot, error)
	Put(key string, value []byte, origin string) (int64, error)
	Revision(key string) (int64, string, error)
	Delete(key string) error
	Keys() ([]string, error)
}

func TestSlotRepositories(t *testing.T) {
	impls := []struct {
		name string
		new  func(t *testing.T, quota int) slotStore
	}{
		{
			name: "SQLite",
			new: func(t *testing.T, quota int) slotStore {
				db := setupTestDB(t)
				t.Cleanup(func() { db.Close() })
				return NewSlotRepository(db, quota)
			},
		},
		{
			name: "Memory",
			new: func(t *testing.T, quota int) slotStore {
				return NewMemorySlotRepository(quota)
			},
		},
	}

	for _, impl := range impls {
		t.Run(impl.name, func(t *testing.T) {
			t.Run("Get Missing", func(t *testing.T) {
				repo := impl.new(t, 0)

				_, err := repo.Get("absent")
				if !errors.Is(err, shared.ErrSlotNotFound) {
					t.Errorf("expected ErrSlotNotFound, got %v", err)
				}

				rev, origin, err := repo.Revision("absent")
				if err != nil || rev != 0 || origin != "" {
					t.Errorf("expected zero revision for absent key, got %d %q %v", rev, origin, err)
				}
			})

			t.Run("Put & Get", func(t *testing.T) {
				repo := impl.new(t, 0)

				rev, err := repo.Put("watchlist", []byte(`[]`), "tab-a")
				if err != nil {
					t.Fatalf("failed to put slot: %v", err)
				}
				if rev != 1 {
					t.Errorf("expected first revision 1, got %d", rev)
				}

				slot, err := repo.Get("watchlist")
				if err != nil {
					t.Fatalf("failed to get slot: %v", err)
				}
				if string(slot.Value) != `[]` {
					t.Errorf("expected value [], got %s", slot.Value)
				}
				if slot.Origin != "tab-a" || slot.Revision != 1 {
					t.Errorf("unexpected slot metadata: %+v", slot)
				}
			})

			t.Run("Put Overwrites And Bumps Revision", func(t *testing.T) {
				repo := impl.new(t, 0)

				if _, err := repo.Put("watchlist", []byte(`[1]`), "tab-a"); err != nil {
					t.Fatalf("first put failed: %v", err)
				}
				rev, err := repo.Put("watchlist", []byte(`[2]`), "tab-b")
				if err != nil {
					t.Fatalf("second put failed: %v", err)
				}
				if rev != 2 {
					t.Errorf("expected revision 2, got %d", rev)
				}

				gotRev, origin, err := repo.Revision("watchlist")
				if err != nil {
					t.Fatalf("failed to read revision: %v", err)
				}
				if gotRev != 2 || origin != "tab-b" {
					t.Errorf("expected revision 2 by tab-b, got %d by %q", gotRev, origin)
				}

				slot, _ := repo.Get("watchlist")
				if string(slot.Value) != `[2]` {
					t.Errorf("expected last write to win, got %s", slot.Value)
				}
			})

			t.Run("Quota", func(t *testing.T) {
				repo := impl.new(t, 4)

				if _, err := repo.Put("watchlist", []byte(`[]`), "tab-a"); err != nil {
					t.Fatalf("small write should fit: %v", err)
				}

				_, err := repo.Put("watchlist", []byte(`[1,2,3]`), "tab-a")
				if !errors.Is(err, shared.ErrQuotaExceeded) {
					t.Fatalf("expected ErrQuotaExceeded, got %v", err)
				}

				slot, _ := repo.Get("watchlist")
				if string(slot.Value) != `[]` {
					t.Errorf("rejected write must not change the slot, got %s", slot.Value)
				}
			})

			t.Run("Delete & Keys", func(t *testing.T) {
				repo := impl.new(t, 0)

				for _, key := range []string{"b", "a"} {
					if _, err := repo.Put(key, []byte(`[]`), "tab-a"); err != nil {
						t.Fatalf("failed to put %s: %v", key, err)
					}
				}

				keys, err := repo.Keys()
				if err != nil {
					t.Fatalf("failed to list keys: %v", err)
				}
				if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
					t.Errorf("expected [a b], got %v", keys)
				}

				if err := repo.Delete("a"); err != nil {
					t.Fatalf("failed to delete: %v", err)
				}
				if err := repo.Delete("a"); err != nil {
					t.Errorf("deleting an absent key should succeed: %v", err)
				}
				if _, err := repo.Get("a"); !errors.Is(err, shared.ErrSlotNotFound) {
					t.Errorf("expected deleted slot to be gone, got %v", err)
				}
			})
		})
	}
}

func TestSlotRepositorySharedDatabase(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	writer := NewSlotRepository(db, 0)
	reader := NewSlotRepository(db, 0)

	if _, err := writer.Put("watchlist", []byte(`[{"id":1}]`), "tab-a"); err != nil {
		t.Fatalf("failed to put slot: %v", err)
	}

	rev, origin, err := reader.Revision("watchlist")
	if err != nil {
		t.Fatalf("failed to read revision: %v", err)
	}
	if rev != 1 || origin != "tab-a" {
		t.Errorf("second repository should see the write, got %d %q", rev, origin)
	}
}
