// package services defines interface Catalog for looking up titles over HTTP APIs
//
// TMDB
package services

import (
	"context"

	"github.com/desertthunder/marquee/internal/models"
)

// Catalog defines the interface for metadata providers that resolve catalog items to feed the watchlist.
type Catalog interface {
	// Movie retrieves a movie by its catalog ID.
	// Returns [shared.ErrTitleNotFound] when the ID is unknown.
	Movie(ctx context.Context, id int) (*models.CatalogItem, error)

	// Series retrieves a series by its catalog ID.
	Series(ctx context.Context, id int) (*models.CatalogItem, error)

	// Search finds titles of the given media type matching query, best match first.
	Search(ctx context.Context, query string, mt models.MediaType) ([]models.CatalogItem, error)

	// Name returns the name of the provider (e.g., "TMDB")
	Name() string
}

// Lookup resolves id as mt through c.
func Lookup(ctx context.Context, c Catalog, id int, mt models.MediaType) (*models.CatalogItem, error) {
	if mt == models.Series {
		return c.Series(ctx, id)
	}
	return c.Movie(ctx, id)
}
