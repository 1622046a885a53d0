// Package models defines the domain entities of the marquee watchlist.
//
// The package contains two categories of types:
//
// 1. Watchlist values: what the store holds and hands out
//   - [Entry] : one tracked catalog item with user metadata (watched flag, priority, notes)
//   - [Stats] : aggregate counts and averages derived from a collection
//   - [Snapshot] : collection plus stats, the payload of every change notification
//
// 2. Boundary shapes: data crossing into or out of the store
//   - [CatalogItem] : movie- or series-shaped catalog data accepted by add operations
//   - [Slot] : one durable key-value row holding a serialized collection
//
// [Entry] serializes to the canonical persisted record. Reading legacy or
// malformed records is the job of the watchlist normalization layer, not of
// [Entry.UnmarshalJSON], which only accepts the canonical shape.
package models
