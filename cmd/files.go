package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/marquee/internal/formatter"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/desertthunder/marquee/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Import merges watchlist JSON files into the store.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file", shared.ErrMissingArgument)
	}

	engine, err := r.Engine()
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 2*len(paths))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ReadFile:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ImportRecords:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := engine.ImportFiles(ctx, progressCh, paths)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Import Complete!")
	r.writePlain("Added: %d · Merged: %d · Rejected: %d\n", result.Added, result.Merged, result.Rejected)

	if result.Failed > 0 {
		r.writePlain("\nFailed to read %d files:\n", result.Failed)
		for _, f := range result.Files {
			if f.Error != nil {
				r.writePlain("  - %s: %v\n", f.Path, f.Error)
			}
		}
		return fmt.Errorf("%w: %d of %d files could not be imported", shared.ErrInvalidInput, result.Failed, len(paths))
	}
	return nil
}

// Export renders the watchlist to stdout or a file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	store, err := r.Watchlist()
	if err != nil {
		return err
	}
	snap := store.Snapshot()

	if cmd.Bool("posters") {
		if format != formatter.FormatMarkdown && format != "md" {
			return fmt.Errorf("%w: --posters requires --format markdown", shared.ErrInvalidFlag)
		}
		result, err := formatter.WriteMarkdownExport(snap, output, cmd.String("image-base"))
		if err != nil {
			return err
		}
		r.logger.Info("markdown export written", "dir", result.Directory, "posters", result.Posters)
		return r.writePlain("✓ Exported %d titles to %s (%d posters)\n", len(snap.Watchlist), result.Directory, result.Posters)
	}

	if output == "" {
		data, err := formatter.Export(format, snap)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := formatter.WriteExport(format, snap, output); err != nil {
		return err
	}
	r.logger.Info("export written", "format", format, "path", output)
	return r.writePlain("✓ Exported %d titles to %s\n", len(snap.Watchlist), output)
}
