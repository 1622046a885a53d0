package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

var (
	_ list.Item = entryItem{}
	_ list.Item = resultItem{}
)

// entryItem wraps [models.Entry] to implement [list.Item].
type entryItem struct {
	entry models.Entry
}

func (i entryItem) FilterValue() string { return i.entry.Title }
func (i entryItem) Title() string {
	mark := "○"
	if i.entry.IsWatched {
		mark = styles.ok.Render("✓")
	}
	return fmt.Sprintf("%s %s (%d)", mark, i.entry.Title, i.entry.ReleaseYear)
}
func (i entryItem) Description() string {
	parts := []string{
		i.entry.MediaType.Label(),
		"★ " + shared.FormatRating(i.entry.VoteAverage),
		styles.Priority(i.entry.Priority).Render(string(i.entry.Priority)),
	}
	if i.entry.Notes != "" {
		parts = append(parts, shared.Truncate(i.entry.Notes, 40))
	}
	return strings.Join(parts, " • ")
}

// resultItem wraps a catalog search hit to implement [list.Item].
type resultItem struct {
	item    models.CatalogItem
	kind    models.MediaType
	tracked bool
}

func (i resultItem) FilterValue() string { return i.item.DisplayTitle(i.kind) }
func (i resultItem) Title() string {
	title := i.item.DisplayTitle(i.kind)
	if i.tracked {
		title += " " + styles.help.Render("(tracked)")
	}
	return title
}
func (i resultItem) Description() string {
	desc := "★ " + shared.FormatRating(i.item.VoteAverage)
	if released := i.item.Released(i.kind); released != "" {
		desc = fmt.Sprintf("%s • %s", released, desc)
	}
	return desc
}

func entryItems(entries []models.Entry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}
	return items
}
