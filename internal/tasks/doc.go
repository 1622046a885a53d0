// Package tasks runs long watchlist operations with real-time progress reporting.
//
// # Core Operations
//
// [Engine] offers two operations:
//
//  1. [Engine.ImportFiles] : Merge legacy export files into the store
//     - Reads each file as a JSON array of records, or a snapshot object with a watchlist array
//     - Hands the records to the store, which normalizes and merges them
//     - Reports per-file counts of added, merged and rejected records
//
//  2. [Engine.BulkAdd] : Resolve catalog references and add them
//     - Fetches titles concurrently from a [services.Catalog] through a worker pool
//     - Paces catalog requests with a rate limiter
//     - Skips titles already tracked and records per-title failures
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
