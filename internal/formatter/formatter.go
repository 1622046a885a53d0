// package formatter provides functions to export watchlist data to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// Formats accepted by [Export].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ExportToJSON writes the snapshot in the shape [tasks.ReadRecords] accepts.
func ExportToJSON(snap models.Snapshot) ([]byte, error) {
	if snap.Watchlist == nil {
		snap.Watchlist = []models.Entry{}
	}
	return json.MarshalIndent(snap, "", "  ")
}

// ExportToCSV converts entries to CSV format with columns: Type, ID, Title, Year, Rating, Votes, Priority, Watched, Added, WatchedOn, Notes
func ExportToCSV(entries []models.Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Type", "ID", "Title", "Year", "Rating", "Votes", "Priority", "Watched", "Added", "WatchedOn", "Notes"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		watchedOn := ""
		if e.DateWatched != nil {
			watchedOn = models.FormatTime(*e.DateWatched)
		}
		record := []string{
			string(e.MediaType),
			strconv.Itoa(e.ID),
			e.Title,
			strconv.Itoa(e.ReleaseYear),
			strconv.FormatFloat(e.VoteAverage, 'f', -1, 64),
			strconv.Itoa(e.VoteCount),
			string(e.Priority),
			strconv.FormatBool(e.IsWatched),
			models.FormatTime(e.DateAdded),
			watchedOn,
			e.Notes,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a snapshot to Markdown, grouped by media type.
//
// posters maps entry keys to image paths relative to the document; entries without one get no image.
func ExportToMarkdown(snap models.Snapshot, posters map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Watchlist\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %d (%d watched, %d to go)\n", snap.Stats.Total, snap.Stats.Watched, snap.Stats.Unwatched))
	buf.WriteString(fmt.Sprintf("**Movies**: %d · **Series**: %d\n", snap.Stats.Movies, snap.Stats.TVShows))
	buf.WriteString(fmt.Sprintf("**Average rating**: %s (watched: %s)\n\n", shared.FormatRating(snap.Stats.AvgRating), shared.FormatRating(snap.Stats.WatchedAvgRating)))

	for _, mt := range []models.MediaType{models.Movie, models.Series} {
		section := filterType(snap.Watchlist, mt)
		if len(section) == 0 {
			continue
		}

		buf.WriteString(fmt.Sprintf("## %s\n\n", sectionTitle(mt)))
		for _, e := range section {
			check := " "
			if e.IsWatched {
				check = "x"
			}
			buf.WriteString(fmt.Sprintf("- [%s] **%s** (%d) ★ %s · %s priority\n", check, e.Title, e.ReleaseYear, shared.FormatRating(e.VoteAverage), e.Priority))
			if img, ok := posters[e.Key()]; ok {
				buf.WriteString(fmt.Sprintf("  ![%s](%s)\n", e.Title, img))
			}
			if e.Notes != "" {
				buf.WriteString(fmt.Sprintf("  > %s\n", e.Notes))
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts entries to plain text format
func ExportToText(entries []models.Entry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Watchlist: %d entries\n\n", len(entries)))
	for i, e := range entries {
		mark := " "
		if e.IsWatched {
			mark = "✓"
		}
		buf.WriteString(fmt.Sprintf("%d. [%s] %s (%d) - %s\n", i+1, mark, e.Title, e.ReleaseYear, e.MediaType.Label()))
	}

	return buf.Bytes(), nil
}

// Export renders snap in the named format. Markdown is rendered without posters.
func Export(format string, snap models.Snapshot) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return ExportToJSON(snap)
	case FormatCSV:
		return ExportToCSV(snap.Watchlist)
	case FormatMarkdown, "md":
		return ExportToMarkdown(snap, nil)
	case FormatText, "text":
		return ExportToText(snap.Watchlist)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Posters   int
}

// WriteMarkdownExport exports a snapshot to Markdown format in a dedicated directory.
//
// The imageBase parameter is optional - if provided, posters are downloaded from imageBase + posterPath.
// Creates a directory structure: {dir}/README.md and optionally {dir}/posters/{type}-{id}.jpg
func WriteMarkdownExport(snap models.Snapshot, outputDir, imageBase string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "watchlist"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	posters := map[string]string{}
	if imageBase != "" {
		posterDir := filepath.Join(outputDir, "posters")
		if err := os.MkdirAll(posterDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create poster directory: %w", err)
		}

		for _, e := range snap.Watchlist {
			if e.PosterPath == "" {
				continue
			}

			imageData, err := DownloadImage(strings.TrimRight(imageBase, "/") + e.PosterPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to download poster for %s: %v\n", e.Title, err)
				continue
			}

			name := fmt.Sprintf("%s-%d.jpg", e.MediaType, e.ID)
			path := filepath.Join(posterDir, name)
			if err := os.WriteFile(path, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save poster: %v\n", err)
				continue
			}

			posters[e.Key()] = "posters/" + name
			result.Files = append(result.Files, path)
			result.Posters++
		}
	}

	mdData, err := ExportToMarkdown(snap, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteExport renders snap in format and writes it to path.
func WriteExport(format string, snap models.Snapshot, path string) error {
	data, err := Export(format, snap)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}

func filterType(entries []models.Entry, mt models.MediaType) []models.Entry {
	var out []models.Entry
	for _, e := range entries {
		if e.MediaType == mt {
			out = append(out, e)
		}
	}
	return out
}

func sectionTitle(mt models.MediaType) string {
	if mt == models.Series {
		return "Series"
	}
	return "Movies"
}
