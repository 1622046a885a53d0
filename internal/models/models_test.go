package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseMediaType(t *testing.T) {
	tc := []struct {
		in   string
		want MediaType
	}{
		{"movie", Movie},
		{"movies", Movie},
		{"Film", Movie},
		{"films", Movie},
		{"tv", Series},
		{" Show ", Series},
		{"SERIES", Series},
		{"documentary", Movie},
		{"", Movie},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseMediaType(tt.in); got != tt.want {
				t.Errorf("ParseMediaType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	t.Run("accepts enum values in any case", func(t *testing.T) {
		for in, want := range map[string]Priority{"high": High, " Medium": Medium, "LOW ": Low} {
			got, ok := ParsePriority(in)
			if !ok || got != want {
				t.Errorf("ParsePriority(%q) = %q, %v; want %q, true", in, got, ok, want)
			}
		}
	})

	t.Run("rejects anything else", func(t *testing.T) {
		for _, in := range []string{"", "urgent", "hi"} {
			if _, ok := ParsePriority(in); ok {
				t.Errorf("ParsePriority(%q) should fail", in)
			}
		}
	})

	t.Run("Next cycles", func(t *testing.T) {
		if High.Next() != Medium || Medium.Next() != Low || Low.Next() != High {
			t.Error("unexpected priority cycle")
		}
	})
}

func TestEntry(t *testing.T) {
	added := time.Date(2024, 3, 1, 12, 30, 0, 250_000_000, time.UTC)
	watched := added.Add(48 * time.Hour)

	t.Run("Key", func(t *testing.T) {
		e := Entry{ID: 7, MediaType: Series}
		if e.Key() != "series:7" {
			t.Errorf("expected series:7, got %s", e.Key())
		}
	})

	t.Run("Richness", func(t *testing.T) {
		if (Entry{}).Richness() != 0 {
			t.Error("empty entry should have zero richness")
		}
		if (Entry{PosterPath: "/p.jpg", Overview: "x"}).Richness() != 2 {
			t.Error("poster and overview should both count")
		}
		if (Entry{BackdropPath: "/b.jpg"}).Richness() != 0 {
			t.Error("backdrop does not count towards richness")
		}
	})

	t.Run("Clone does not share DateWatched", func(t *testing.T) {
		w := watched
		e := Entry{IsWatched: true, DateWatched: &w}
		c := e.Clone()
		*c.DateWatched = c.DateWatched.Add(time.Hour)
		if !e.DateWatched.Equal(watched) {
			t.Error("clone mutated the original timestamp")
		}
	})

	t.Run("MarshalJSON writes canonical fields", func(t *testing.T) {
		e := Entry{
			ID:          42,
			MediaType:   Movie,
			Title:       "Dune",
			ReleaseYear: 2021,
			VoteAverage: 8.1,
			DateAdded:   added,
			Priority:    Medium,
		}

		data, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		got := string(data)
		for _, want := range []string{`"id":42`, `"mediaType":"movie"`, `"dateAdded":"2024-03-01T12:30:00.250Z"`, `"priority":"medium"`} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %s in %s", want, got)
			}
		}
		for _, absent := range []string{"dateWatched", "notes", "overview", "posterPath"} {
			if strings.Contains(got, absent) {
				t.Errorf("expected %s to be omitted from %s", absent, got)
			}
		}
	})

	t.Run("UnmarshalJSON reads what MarshalJSON wrote", func(t *testing.T) {
		w := watched
		e := Entry{
			ID:          7,
			MediaType:   Series,
			Title:       "Severance",
			Notes:       "season two",
			DateAdded:   added,
			IsWatched:   true,
			DateWatched: &w,
			Priority:    High,
		}

		data, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var back Entry
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if back.Key() != e.Key() || back.Notes != e.Notes || back.Priority != e.Priority {
			t.Errorf("fields lost: %+v", back)
		}
		if !back.DateAdded.Equal(added) {
			t.Errorf("expected dateAdded %v, got %v", added, back.DateAdded)
		}
		if back.DateWatched == nil || !back.DateWatched.Equal(watched) {
			t.Errorf("expected dateWatched %v, got %v", watched, back.DateWatched)
		}
	})

	t.Run("UnmarshalJSON rejects non-canonical dates", func(t *testing.T) {
		var e Entry
		if err := json.Unmarshal([]byte(`{"id":1,"title":"x","dateAdded":"yesterday"}`), &e); err == nil {
			t.Error("expected an error for a malformed dateAdded")
		}
	})
}

func TestCatalogItem(t *testing.T) {
	item := CatalogItem{Title: " Dune ", Name: "Dune (TV)", ReleaseDate: "2021-10-01", FirstAirDate: "2024-11-17"}

	if got := item.DisplayTitle(Movie); got != "Dune" {
		t.Errorf("movie title = %q", got)
	}
	if got := item.DisplayTitle(Series); got != "Dune (TV)" {
		t.Errorf("series title = %q", got)
	}
	if got := (CatalogItem{Name: "Only Name"}).DisplayTitle(Movie); got != "Only Name" {
		t.Errorf("expected fallback to name, got %q", got)
	}
	if got := item.Released(Series); got != "2024-11-17" {
		t.Errorf("series release = %q", got)
	}
	if got := item.Released(Movie); got != "2021-10-01" {
		t.Errorf("movie release = %q", got)
	}
}
