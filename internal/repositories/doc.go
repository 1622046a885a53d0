// Package repositories implements durable key-value slots for the watchlist store.
//
// A slot is a single named row whose value is replaced wholesale on every write.
// Each write bumps a per-key revision and records the origin (store instance id)
// that made it, so a reader sharing the same database can tell whether the slot
// changed since it last looked and whether the change was its own.
//
// Key Implementations:
//   - [SlotRepository] : SQLite-backed slots shared by every process opening the same database file
//   - [MemorySlotRepository] : process-local slots for tests and ephemeral sessions
//
// Both enforce an optional byte quota on writes, failing with [shared.ErrQuotaExceeded]
// instead of storing an oversized value.
package repositories
