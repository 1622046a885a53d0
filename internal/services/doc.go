// Package services defines the [Catalog] interface for title metadata providers and implements it for TMDB.
//
// # Catalog Interface
//
// The watchlist store never talks to a provider itself. CLI commands resolve
// an id or a search query through a Catalog and hand the resulting
// [models.CatalogItem] to the store, which accepts both the movie and the
// series shape.
//
// # TMDB Implementation
//
// [TMDBService] authenticates with a v3 API key sent as the api_key query
// parameter, adds the configured language to every request, and paces
// requests with a [rate.Limiter] configured from catalog.requests_per_second.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingAPIKey] : no api key configured
//   - [shared.ErrTitleNotFound] : 404 for the requested id
//   - [shared.ErrServiceUnavailable] : 503 from the provider
//   - [shared.ErrAPIRequest] : transport failure or any other non-2xx status
package services
