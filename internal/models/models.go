// package models defines the data model for the marquee watchlist
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the ISO-8601 layout used for every persisted timestamp (UTC, millisecond precision).
const TimeLayout = "2006-01-02T15:04:05.000Z"

// MediaType discriminates movie entries from series entries.
type MediaType string

const (
	Movie  MediaType = "movie"
	Series MediaType = "series"
)

// ParseMediaType maps the aliases found in catalog data and legacy records onto a [MediaType].
//
// Unrecognized input defaults to [Movie].
func ParseMediaType(s string) MediaType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tv", "show", "series":
		return Series
	default:
		return Movie
	}
}

// Label returns the human-readable name of the media type.
func (m MediaType) Label() string {
	if m == Series {
		return "Series"
	}
	return "Movie"
}

// Priority ranks entries the user wants to get to first.
type Priority string

const (
	High   Priority = "high"
	Medium Priority = "medium"
	Low    Priority = "low"
)

// ParsePriority reports whether s names a valid [Priority], ignoring case and surrounding space.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case High, Medium, Low:
		return p, true
	default:
		return "", false
	}
}

// Next cycles high → medium → low → high.
func (p Priority) Next() Priority {
	switch p {
	case High:
		return Medium
	case Medium:
		return Low
	default:
		return High
	}
}

// Entry is one user-tracked catalog item.
//
// The pair (ID, MediaType) identifies an entry within a collection.
// DateWatched is non-nil exactly when IsWatched is true.
type Entry struct {
	ID           int
	MediaType    MediaType
	Title        string
	Overview     string
	PosterPath   string
	BackdropPath string
	ReleaseYear  int
	VoteAverage  float64
	VoteCount    int
	DateAdded    time.Time
	IsWatched    bool
	DateWatched  *time.Time
	Priority     Priority
	Notes        string
}

// EntryKey formats the identity key of an entry.
func EntryKey(id int, mt MediaType) string {
	return fmt.Sprintf("%s:%d", mt, id)
}

// Key returns the identity key combining media type and ID.
func (e Entry) Key() string {
	return EntryKey(e.ID, e.MediaType)
}

// Richness counts the descriptive fields that make an entry worth keeping over a duplicate.
func (e Entry) Richness() int {
	n := 0
	if e.PosterPath != "" {
		n++
	}
	if e.Overview != "" {
		n++
	}
	return n
}

// Clone returns a copy that shares no pointers with e.
func (e Entry) Clone() Entry {
	if e.DateWatched != nil {
		t := *e.DateWatched
		e.DateWatched = &t
	}
	return e
}

// record is the canonical persisted shape of an [Entry].
type record struct {
	ID           int       `json:"id"`
	MediaType    MediaType `json:"mediaType"`
	Title        string    `json:"title"`
	Overview     string    `json:"overview,omitempty"`
	PosterPath   string    `json:"posterPath,omitempty"`
	BackdropPath string    `json:"backdropPath,omitempty"`
	ReleaseYear  int       `json:"releaseYear"`
	VoteAverage  float64   `json:"voteAverage"`
	VoteCount    int       `json:"voteCount"`
	DateAdded    string    `json:"dateAdded"`
	IsWatched    bool      `json:"isWatched"`
	DateWatched  string    `json:"dateWatched,omitempty"`
	Priority     Priority  `json:"priority"`
	Notes        string    `json:"notes,omitempty"`
}

// FormatTime renders t in [TimeLayout].
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// MarshalJSON writes the canonical persisted record.
func (e Entry) MarshalJSON() ([]byte, error) {
	r := record{
		ID:           e.ID,
		MediaType:    e.MediaType,
		Title:        e.Title,
		Overview:     e.Overview,
		PosterPath:   e.PosterPath,
		BackdropPath: e.BackdropPath,
		ReleaseYear:  e.ReleaseYear,
		VoteAverage:  e.VoteAverage,
		VoteCount:    e.VoteCount,
		DateAdded:    FormatTime(e.DateAdded),
		IsWatched:    e.IsWatched,
		Priority:     e.Priority,
		Notes:        e.Notes,
	}
	if e.DateWatched != nil {
		r.DateWatched = FormatTime(*e.DateWatched)
	}
	return json.Marshal(r)
}

// UnmarshalJSON reads a canonical persisted record.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	added, err := time.Parse(TimeLayout, r.DateAdded)
	if err != nil {
		return fmt.Errorf("invalid dateAdded %q: %w", r.DateAdded, err)
	}

	*e = Entry{
		ID:           r.ID,
		MediaType:    r.MediaType,
		Title:        r.Title,
		Overview:     r.Overview,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		ReleaseYear:  r.ReleaseYear,
		VoteAverage:  r.VoteAverage,
		VoteCount:    r.VoteCount,
		DateAdded:    added,
		IsWatched:    r.IsWatched,
		Priority:     r.Priority,
		Notes:        r.Notes,
	}

	if r.DateWatched != "" {
		watched, err := time.Parse(TimeLayout, r.DateWatched)
		if err != nil {
			return fmt.Errorf("invalid dateWatched %q: %w", r.DateWatched, err)
		}
		e.DateWatched = &watched
	}

	return nil
}

// Stats aggregates a collection. Derived on demand, never cached.
type Stats struct {
	Total            int     `json:"total"`
	Watched          int     `json:"watched"`
	Unwatched        int     `json:"unwatched"`
	Movies           int     `json:"movies"`
	TVShows          int     `json:"tvShows"`
	AvgRating        float64 `json:"avgRating"`
	WatchedAvgRating float64 `json:"watchedAvgRating"`
}

// Snapshot is a full copy of the collection with freshly computed stats.
type Snapshot struct {
	Watchlist []Entry `json:"watchlist"`
	Stats     Stats   `json:"stats"`
}

// CatalogItem is catalog data as returned by the metadata API.
//
// Movie-shaped items carry Title and ReleaseDate; series-shaped items carry
// Name and FirstAirDate. The remaining fields are shared.
type CatalogItem struct {
	ID           int     `json:"id"`
	Title        string  `json:"title,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	Name         string  `json:"name,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	VoteCount    int     `json:"vote_count,omitempty"`
}

// DisplayTitle returns the title field matching mt, falling back to the other shape's.
func (c CatalogItem) DisplayTitle(mt MediaType) string {
	first, second := c.Title, c.Name
	if mt == Series {
		first, second = c.Name, c.Title
	}
	if s := strings.TrimSpace(first); s != "" {
		return s
	}
	return strings.TrimSpace(second)
}

// Released returns the release date string matching mt.
func (c CatalogItem) Released(mt MediaType) string {
	if mt == Series {
		return strings.TrimSpace(c.FirstAirDate)
	}
	return strings.TrimSpace(c.ReleaseDate)
}

// Slot is one durable key-value row.
//
// Revision increases by one on every write; Origin identifies the store instance that wrote it.
type Slot struct {
	Key       string
	Value     []byte
	Revision  int64
	Origin    string
	UpdatedAt time.Time
}
