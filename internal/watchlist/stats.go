package watchlist

import "github.com/desertthunder/marquee/internal/models"

// ComputeStats derives the aggregate view of entries.
func ComputeStats(entries []models.Entry) models.Stats {
	var (
		stats      models.Stats
		sum        float64
		watchedSum float64
	)

	for _, e := range entries {
		stats.Total++
		sum += e.VoteAverage

		if e.IsWatched {
			stats.Watched++
			watchedSum += e.VoteAverage
		}
		if e.MediaType == models.Series {
			stats.TVShows++
		} else {
			stats.Movies++
		}
	}

	stats.Unwatched = stats.Total - stats.Watched
	if stats.Total > 0 {
		stats.AvgRating = sum / float64(stats.Total)
	}
	if stats.Watched > 0 {
		stats.WatchedAvgRating = watchedSum / float64(stats.Watched)
	}
	return stats
}
