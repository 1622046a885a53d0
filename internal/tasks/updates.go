package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReadFile Phase = iota
	ImportRecords
	FetchTitles
	AddTitles
)

func (p Phase) String() string {
	switch p {
	case ReadFile:
		return "read_file"
	case ImportRecords:
		return "import_records"
	case FetchTitles:
		return "fetch_titles"
	case AddTitles:
		return "add_titles"
	default:
		return ""
	}
}

func readFileUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Reading %s...", step, total, path),
	}
}

func importedFileUpdate(step, total int, res FileImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d added, %d merged, %d rejected)", step, total, res.Path, res.Added, res.Merged, res.Rejected),
		Data:    res,
	}
}

func importFailedUpdate(step, total int, path string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, path, err),
	}
}

func fetchingTitlesUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTitles,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Fetching %d titles from the catalog...", total),
	}
}

func addedTitleUpdate(step, total int, res AddResult) ProgressUpdate {
	mark := "✓"
	switch {
	case res.Error != nil:
		return ProgressUpdate{
			Phase:   AddTitles,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Ref, res.Error),
			Data:    res,
		}
	case !res.Added:
		mark = "="
	}

	return ProgressUpdate{
		Phase:   AddTitles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, res.Title),
		Data:    res,
	}
}
