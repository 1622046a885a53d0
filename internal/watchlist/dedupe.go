package watchlist

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/desertthunder/marquee/internal/models"
)

// Dedupe collapses entries sharing an identity key and orders the result.
//
// Within a key the candidates are ranked by later DateAdded, then by
// [models.Entry.Richness], then by content so that the outcome never depends
// on input order. The top candidate is the base; optional text fields it lacks
// are filled from the lower-ranked candidates. The output is sorted by
// DateAdded descending, then media type and id.
func Dedupe(entries []models.Entry) []models.Entry {
	groups := make(map[string][]models.Entry, len(entries))
	for _, e := range entries {
		groups[e.Key()] = append(groups[e.Key()], e)
	}

	out := make([]models.Entry, 0, len(groups))
	for _, group := range groups {
		slices.SortStableFunc(group, rank)
		out = append(out, merge(group))
	}

	slices.SortFunc(out, order)
	return out
}

// rank orders candidates for the same key, best first.
func rank(a, b models.Entry) int {
	if c := b.DateAdded.Compare(a.DateAdded); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Richness(), a.Richness()); c != 0 {
		return c
	}
	return cmp.Compare(contentKey(a), contentKey(b))
}

// order is the collection order: newest first.
func order(a, b models.Entry) int {
	if c := b.DateAdded.Compare(a.DateAdded); c != 0 {
		return c
	}
	if c := cmp.Compare(a.MediaType, b.MediaType); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func merge(ranked []models.Entry) models.Entry {
	base := ranked[0].Clone()
	for _, other := range ranked[1:] {
		if base.Overview == "" {
			base.Overview = other.Overview
		}
		if base.PosterPath == "" {
			base.PosterPath = other.PosterPath
		}
		if base.BackdropPath == "" {
			base.BackdropPath = other.BackdropPath
		}
		if base.Notes == "" {
			base.Notes = other.Notes
		}
	}
	return base
}

func contentKey(e models.Entry) string {
	b, _ := json.Marshal(e)
	return string(b)
}
