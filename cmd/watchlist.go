package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/services"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/desertthunder/marquee/internal/tasks"
	"github.com/urfave/cli/v3"
)

// List prints the watchlist, optionally filtered.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	store, err := r.Watchlist()
	if err != nil {
		return err
	}

	var (
		kind      = cmd.String("type")
		level     = cmd.String("priority")
		watched   = cmd.Bool("watched")
		unwatched = cmd.Bool("unwatched")
	)

	if watched && unwatched {
		return fmt.Errorf("%w: --watched and --unwatched are exclusive", shared.ErrInvalidFlag)
	}

	var priority models.Priority
	if level != "" {
		p, ok := models.ParsePriority(level)
		if !ok {
			return fmt.Errorf("%w: priority %q", shared.ErrInvalidFlag, level)
		}
		priority = p
	}

	entries := []models.Entry{}
	for _, e := range store.GetAll() {
		switch {
		case kind != "" && e.MediaType != models.ParseMediaType(kind):
		case priority != "" && e.Priority != priority:
		case watched && !e.IsWatched:
		case unwatched && e.IsWatched:
		default:
			entries = append(entries, e)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(entries) == 0 {
		return r.writePlain("Watchlist is empty\n")
	}

	r.writePlain("%d titles:\n\n", len(entries))
	for i, e := range entries {
		mark := " "
		if e.IsWatched {
			mark = "✓"
		}
		r.writePlain("%d. [%s] %s (%d)\n", i+1, mark, e.Title, e.ReleaseYear)
		r.writePlain("   Ref: %s · Rating: %s · Priority: %s\n", e.Key(), shared.FormatRating(e.VoteAverage), e.Priority)
		if e.Notes != "" {
			r.writePlain("   Notes: %s\n", e.Notes)
		}
	}
	return nil
}

// Stats prints aggregate counts and averages.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	store, err := r.Watchlist()
	if err != nil {
		return err
	}

	stats := store.GetStats()
	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Watchlist")
	r.writePlain("Total: %d (%d movies, %d series)\n", stats.Total, stats.Movies, stats.TVShows)
	r.writePlain("Watched: %d · To go: %d\n", stats.Watched, stats.Unwatched)
	r.writePlain("Average rating: %s (watched: %s)\n", shared.FormatRating(stats.AvgRating), shared.FormatRating(stats.WatchedAvgRating))
	return nil
}

// Add resolves each reference through the catalog and tracks it.
//
// A single reference fails with [shared.ErrAlreadyTracked] when it is already tracked;
// several references run as a bulk add that reports per title.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one title reference", shared.ErrMissingArgument)
	}

	refs := make([]tasks.Ref, 0, len(args))
	for _, arg := range args {
		ref, err := tasks.ParseRef(arg)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	catalog, err := r.Catalog()
	if err != nil {
		return err
	}
	store, err := r.Watchlist()
	if err != nil {
		return err
	}

	if len(refs) == 1 {
		ref := refs[0]
		if store.IsTracked(ref.ID, ref.MediaType) {
			return fmt.Errorf("%w: %s", shared.ErrAlreadyTracked, ref)
		}

		item, err := services.Lookup(ctx, catalog, ref.ID, ref.MediaType)
		if err != nil {
			return fmt.Errorf("%s lookup failed: %w", catalog.Name(), err)
		}
		if !store.Add(*item, ref.MediaType) {
			return fmt.Errorf("%w: %s has no usable title", shared.ErrInvalidInput, ref)
		}

		r.writePlain("✓ Added %s (%s)\n", item.DisplayTitle(ref.MediaType), ref)
		return nil
	}

	engine, err := r.Engine()
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, len(refs)+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("   %s\n", update.Message)
		}
	}()

	result, err := engine.BulkAdd(ctx, progressCh, refs, tasks.BulkAddOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.Catalog.RequestsPerSecond,
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\nAdded %d · Skipped %d · Failed %d\n", result.Added, result.Skipped, result.Failed)
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d titles could not be added", shared.ErrAPIRequest, result.Failed, len(refs))
	}
	return nil
}

func (r *Runner) refArg(cmd *cli.Command) (tasks.Ref, error) {
	arg := cmd.StringArg("ref")
	if arg == "" {
		return tasks.Ref{}, fmt.Errorf("%w: title reference", shared.ErrMissingArgument)
	}
	return tasks.ParseRef(arg)
}

// Remove untracks a title.
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	ref, err := r.refArg(cmd)
	if err != nil {
		return err
	}
	store, err := r.Watchlist()
	if err != nil {
		return err
	}

	if !store.Remove(ref.ID, ref.MediaType) {
		return fmt.Errorf("%w: %s", shared.ErrNotTracked, ref)
	}
	return r.writePlain("✓ Removed %s\n", ref)
}

// Toggle flips the watched flag of a title.
func (r *Runner) Toggle(ctx context.Context, cmd *cli.Command) error {
	ref, err := r.refArg(cmd)
	if err != nil {
		return err
	}
	store, err := r.Watchlist()
	if err != nil {
		return err
	}

	if !store.ToggleWatched(ref.ID, ref.MediaType) {
		return fmt.Errorf("%w: %s", shared.ErrNotTracked, ref)
	}

	e, _ := store.Get(ref.ID, ref.MediaType)
	if e.IsWatched {
		return r.writePlain("✓ %s marked watched\n", e.Title)
	}
	return r.writePlain("○ %s marked unwatched\n", e.Title)
}

// Priority sets the priority of a title.
func (r *Runner) Priority(ctx context.Context, cmd *cli.Command) error {
	ref, err := r.refArg(cmd)
	if err != nil {
		return err
	}

	level := cmd.StringArg("level")
	p, ok := models.ParsePriority(level)
	if !ok {
		return fmt.Errorf("%w: priority must be high, medium or low, got %q", shared.ErrInvalidArgument, level)
	}

	store, err := r.Watchlist()
	if err != nil {
		return err
	}
	if !store.SetPriority(ref.ID, ref.MediaType, p) {
		return fmt.Errorf("%w: %s", shared.ErrNotTracked, ref)
	}
	return r.writePlain("✓ %s priority set to %s\n", ref, p)
}

// Notes replaces the notes of a title.
func (r *Runner) Notes(ctx context.Context, cmd *cli.Command) error {
	ref, err := r.refArg(cmd)
	if err != nil {
		return err
	}
	store, err := r.Watchlist()
	if err != nil {
		return err
	}

	if !store.UpdateNotes(ref.ID, ref.MediaType, cmd.StringArg("text")) {
		return fmt.Errorf("%w: %s", shared.ErrNotTracked, ref)
	}
	return r.writePlain("✓ Notes saved for %s\n", ref)
}

// Clear removes every entry once confirmed with --yes.
func (r *Runner) Clear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to clear the watchlist", shared.ErrMissingArgument)
	}
	store, err := r.Watchlist()
	if err != nil {
		return err
	}

	n := store.GetStats().Total
	store.Clear()
	return r.writePlain("✓ Cleared %d titles\n", n)
}

// Search queries the catalog and marks results already on the watchlist.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	mt := models.ParseMediaType(cmd.String("type"))

	catalog, err := r.Catalog()
	if err != nil {
		return err
	}
	store, err := r.Watchlist()
	if err != nil {
		return err
	}

	results, err := catalog.Search(ctx, query, mt)
	if err != nil {
		return fmt.Errorf("%s search failed: %w", catalog.Name(), err)
	}
	if limit := int(cmd.Int("limit")); limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d results for %q:\n\n", len(results), query)
	for i, item := range results {
		tracked := ""
		if store.IsTracked(item.ID, mt) {
			tracked = " (tracked)"
		}
		r.writePlain("%d. %s%s\n", i+1, item.DisplayTitle(mt), tracked)
		r.writePlain("   Ref: %s · Released: %s · Rating: %s\n", models.EntryKey(item.ID, mt), item.Released(mt), shared.FormatRating(item.VoteAverage))
	}
	return nil
}
