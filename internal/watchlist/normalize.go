package watchlist

import (
	"math"
	"strings"
	"time"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/spf13/cast"
)

// Field fallbacks, first present key wins.
var (
	idKeys          = []string{"id", "tmdbId", "tmdbID"}
	titleKeys       = []string{"title", "name", "original_title", "original_name"}
	mediaTypeKeys   = []string{"mediaType", "type", "media_type"}
	overviewKeys    = []string{"overview", "description", "plot", "synopsis"}
	posterKeys      = []string{"posterPath", "poster_path", "poster", "posterUrl"}
	backdropKeys    = []string{"backdropPath", "backdrop_path", "backdrop", "backdropUrl"}
	releaseDateKeys = []string{"releaseDate", "release_date", "first_air_date", "firstAirDate", "date", "premiereDate"}
	yearKeys        = []string{"releaseYear", "year"}
	voteAverageKeys = []string{"voteAverage", "vote_average", "rating"}
	voteCountKeys   = []string{"voteCount", "vote_count", "votes"}
	dateAddedKeys   = []string{"dateAdded", "addedAt", "createdAt", "date_added"}
	watchedKeys     = []string{"isWatched", "watched", "is_watched"}
	dateWatchedKeys = []string{"dateWatched", "watchedAt"}
	priorityKeys    = []string{"priority"}
	notesKeys       = []string{"notes", "comment", "comments"}
)

// Normalize converts one decoded record into a canonical [models.Entry].
//
// It reports false for anything that is not an object, has no numeric
// identifier or has no derivable title. Every other field is coerced or
// defaulted. Normalize never panics on values produced by encoding/json.
func Normalize(raw any) (models.Entry, bool) {
	return normalize(raw, time.Now)
}

// NormalizeAll normalizes every record and drops the rejected ones.
func NormalizeAll(records []any) []models.Entry {
	return normalizeAll(records, time.Now)
}

func normalizeAll(records []any, now func() time.Time) []models.Entry {
	entries := make([]models.Entry, 0, len(records))
	for _, raw := range records {
		if e, ok := normalize(raw, now); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func normalize(raw any, now func() time.Time) (models.Entry, bool) {
	src, ok := raw.(map[string]any)
	if !ok || src == nil {
		return models.Entry{}, false
	}

	id, ok := toID(pick(src, idKeys...))
	if !ok {
		return models.Entry{}, false
	}

	title := pickString(src, titleKeys...)
	if title == "" {
		return models.Entry{}, false
	}

	current := stamp(now())
	added, ok := parseTime(pickString(src, dateAddedKeys...))
	if !ok {
		added = current
	}

	e := models.Entry{
		ID:           id,
		MediaType:    models.ParseMediaType(pickString(src, mediaTypeKeys...)),
		Title:        title,
		Overview:     pickString(src, overviewKeys...),
		PosterPath:   pickString(src, posterKeys...),
		BackdropPath: pickString(src, backdropKeys...),
		ReleaseYear:  releaseYear(pickString(src, releaseDateKeys...), pick(src, yearKeys...), current),
		VoteAverage:  toFloat(pick(src, voteAverageKeys...)),
		VoteCount:    toCount(pick(src, voteCountKeys...)),
		DateAdded:    added,
		IsWatched:    toBool(pick(src, watchedKeys...)),
		Priority:     models.Medium,
		Notes:        pickString(src, notesKeys...),
	}

	if p, ok := models.ParsePriority(pickString(src, priorityKeys...)); ok {
		e.Priority = p
	}

	if e.IsWatched {
		watched, ok := parseTime(pickString(src, dateWatchedKeys...))
		if !ok {
			watched = added
		}
		e.DateWatched = &watched
	}

	return e, true
}

// pick returns the first non-null value stored under keys.
func pick(src map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := src[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// pickString returns the first non-blank string stored under keys, trimmed.
func pickString(src map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := src[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func toID(v any) (int, bool) {
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, false
		}
		v = strings.TrimSpace(x)
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

// toCount coerces a non-negative count, clamped to the int32 range.
func toCount(v any) int {
	f := toFloat(v)
	switch {
	case f <= 0:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(f)
}

// toFloat coerces numeric-like input, yielding 0 for anything unusable.
func toFloat(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// toBool accepts booleans and boolean words, falling back to truthiness.
func toBool(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if b, err := cast.ToBoolE(s); err == nil {
			return b
		}
		return x != ""
	case map[string]any, []any:
		return true
	}

	if f, err := cast.ToFloat64E(v); err == nil {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := cast.ToTimeE(s)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return stamp(t), true
}

// releaseYear prefers the year of a parseable release date, then a positive literal year.
func releaseYear(date string, literal any, now time.Time) int {
	if t, ok := parseTime(date); ok {
		return t.Year()
	}
	if y := int(toFloat(literal)); y > 0 {
		return y
	}
	return now.Year()
}

// stamp reduces t to the persisted precision.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
