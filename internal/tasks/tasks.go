// package tasks implements bulk watchlist operations.
//
// The core abstraction is Engine, which feeds legacy files and catalog lookups into the watchlist store.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/services"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/desertthunder/marquee/internal/watchlist"
)

// Tracker is the part of the watchlist store the engine writes through.
type Tracker interface {
	Add(item models.CatalogItem, mt models.MediaType) bool
	IsTracked(id int, mt models.MediaType) bool
	Import(records []any) watchlist.ImportResult
}

// FileImportResult is the outcome of importing one file.
type FileImportResult struct {
	Path     string
	Records  int
	Added    int
	Merged   int
	Rejected int
	Error    error
}

// ImportRunResult contains the per-file results of [Engine.ImportFiles].
type ImportRunResult struct {
	Files    []FileImportResult
	Added    int
	Merged   int
	Rejected int
	Failed   int // files that could not be read
}

// Engine implements bulk operations against a watchlist store.
type Engine struct {
	store   Tracker
	catalog services.Catalog
}

// NewEngine creates a new Engine. catalog may be nil when only file imports are needed.
func NewEngine(store Tracker, catalog services.Catalog) *Engine {
	return &Engine{store: store, catalog: catalog}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ImportFiles merges the records of every file into the store, one file at a time.
//
// Unreadable files are reported in the result and do not stop the run.
func (e *Engine) ImportFiles(ctx context.Context, progress chan<- ProgressUpdate, paths []string) (*ImportRunResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: watchlist store not initialized", shared.ErrServiceUnavailable)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files to import", shared.ErrMissingArgument)
	}

	result := &ImportRunResult{Files: make([]FileImportResult, 0, len(paths))}
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		e.sendProgress(progress, readFileUpdate(i+1, len(paths), path))

		res := FileImportResult{Path: path}
		records, err := ReadRecords(path)
		if err != nil {
			res.Error = err
			result.Failed++
			result.Files = append(result.Files, res)
			e.sendProgress(progress, importFailedUpdate(i+1, len(paths), path, err))
			continue
		}

		imported := e.store.Import(records)
		res.Records = len(records)
		res.Added = imported.Added
		res.Merged = imported.Merged
		res.Rejected = imported.Rejected

		result.Added += res.Added
		result.Merged += res.Merged
		result.Rejected += res.Rejected
		result.Files = append(result.Files, res)
		e.sendProgress(progress, importedFileUpdate(i+1, len(paths), res))
	}

	return result, nil
}

// ReadRecords decodes a legacy export file.
//
// Accepts a bare JSON array of records or an object carrying the array under "watchlist".
func ReadRecords(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %s is not JSON: %v", shared.ErrInvalidInput, path, err)
	}

	switch v := decoded.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if records, ok := v["watchlist"].([]any); ok {
			return records, nil
		}
	}
	return nil, fmt.Errorf("%w: %s holds no watchlist array", shared.ErrInvalidInput, path)
}
