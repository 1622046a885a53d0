// Package watchlist implements the persisted, observable watchlist store.
//
// Records read from the slot pass through [Normalize] and [Dedupe] before they
// reach memory. Every mutation persists the whole collection through a
// [Persistence] and then queues a [models.Snapshot] for subscribers, which are
// called on a dispatcher goroutine, never inside the mutating call. The same
// snapshot is published on the store's [EventChannel] as [EventUpdate].
//
// Writes made by other processes sharing the slot are picked up by a [Syncer].
package watchlist
