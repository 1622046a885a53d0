package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/services"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"
)

// Ref names a catalog title by media type and ID.
type Ref struct {
	ID        int
	MediaType models.MediaType
}

func (r Ref) String() string {
	return models.EntryKey(r.ID, r.MediaType)
}

// ParseRef reads "42", "movie:42" or "tv:7".
func ParseRef(s string) (Ref, error) {
	kind, id, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		kind, id = string(models.Movie), kind
	}

	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q is not a title reference", shared.ErrInvalidArgument, s)
	}
	return Ref{ID: n, MediaType: models.ParseMediaType(kind)}, nil
}

// BulkAddOpts contains configuration for bulk adds.
type BulkAddOpts struct {
	NumWorkers int     // Concurrent catalog lookups (default: 4)
	RateLimit  float64 // Requests per second (default: 4)
}

// AddResult is the outcome for one reference.
type AddResult struct {
	Ref   Ref
	Title string
	Added bool // false when already tracked or on error
	Error error
}

// BulkAddResult summarizes [Engine.BulkAdd].
type BulkAddResult struct {
	Results []AddResult
	Added   int
	Skipped int
	Failed  int
}

// BulkAdd resolves refs through the catalog and adds them to the store.
//
// Lookups run on a bounded worker pool and respect the rate limit. Titles that
// are already tracked are skipped without a lookup. Results keep the order of refs.
func (e *Engine) BulkAdd(ctx context.Context, progress chan<- ProgressUpdate, refs []Ref, opts BulkAddOpts) (*BulkAddResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: watchlist store not initialized", shared.ErrServiceUnavailable)
	}
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 4.0
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	results := make([]AddResult, len(refs))

	var mu sync.Mutex
	completed := 0
	report := func(res AddResult) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		e.sendProgress(progress, addedTitleUpdate(completed, len(refs), res))
	}

	e.sendProgress(progress, fetchingTitlesUpdate(len(refs)))

	p := pool.New().WithMaxGoroutines(opts.NumWorkers)
	for i, ref := range refs {
		p.Go(func() {
			res := e.addOne(ctx, limiter, ref)
			results[i] = res
			report(res)
		})
	}
	p.Wait()

	summary := &BulkAddResult{Results: results}
	for _, res := range results {
		switch {
		case res.Error != nil:
			summary.Failed++
		case res.Added:
			summary.Added++
		default:
			summary.Skipped++
		}
	}

	return summary, ctx.Err()
}

func (e *Engine) addOne(ctx context.Context, limiter *rate.Limiter, ref Ref) AddResult {
	res := AddResult{Ref: ref}
	if e.store.IsTracked(ref.ID, ref.MediaType) {
		res.Title = ref.String()
		return res
	}

	if err := limiter.Wait(ctx); err != nil {
		res.Error = err
		return res
	}

	item, err := services.Lookup(ctx, e.catalog, ref.ID, ref.MediaType)
	if err != nil {
		res.Error = err
		return res
	}

	res.Title = item.DisplayTitle(ref.MediaType)
	if res.Title == "" {
		res.Error = fmt.Errorf("%w: %s has no title", shared.ErrTitleNotFound, ref)
		return res
	}
	res.Added = e.store.Add(*item, ref.MediaType)
	return res
}
