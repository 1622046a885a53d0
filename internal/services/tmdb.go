// TMDB API implementation of [Catalog]
//
// Response types based on https://developer.themoviedb.org/reference/intro/getting-started
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
	"golang.org/x/time/rate"
)

const (
	tmdbBaseURL  = "https://api.themoviedb.org/3"
	tmdbLanguage = "en-US"
	tmdbRate     = 4.0
)

// TMDBSearchPage is one page of a search response.
type TMDBSearchPage struct {
	Page         int                  `json:"page"`
	Results      []models.CatalogItem `json:"results"`
	TotalPages   int                  `json:"total_pages"`
	TotalResults int                  `json:"total_results"`
}

type tmdbError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// TMDBService implements the [Catalog] interface for the TMDB v3 API.
// Requests are authenticated with an API key and paced by a [rate.Limiter].
type TMDBService struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewTMDBService creates a TMDB client from the catalog configuration.
func NewTMDBService(cfg shared.CatalogConfig, client *http.Client) (*TMDBService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, shared.ErrMissingAPIKey
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = tmdbBaseURL
	}
	language := cfg.Language
	if language == "" {
		language = tmdbLanguage
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = tmdbRate
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &TMDBService{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		language:   language,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

func (s *TMDBService) Name() string {
	return "TMDB"
}

// Movie retrieves a movie by ID.
func (s *TMDBService) Movie(ctx context.Context, id int) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := s.doRequest(ctx, "/movie/"+strconv.Itoa(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Series retrieves a TV series by ID.
func (s *TMDBService) Series(ctx context.Context, id int) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := s.doRequest(ctx, "/tv/"+strconv.Itoa(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Search returns the first page of matches for query.
func (s *TMDBService) Search(ctx context.Context, query string, mt models.MediaType) ([]models.CatalogItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}

	endpoint := "/search/movie"
	if mt == models.Series {
		endpoint = "/search/tv"
	}

	var page TMDBSearchPage
	if err := s.doRequest(ctx, endpoint, url.Values{"query": {query}}, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// doRequest performs a rate-limited GET against the TMDB API and decodes the body into result.
func (s *TMDBService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", s.apiKey)
	params.Set("language", s.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrTitleNotFound, endpoint)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: tmdb", shared.ErrServiceUnavailable)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var apiErr tmdbError
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.StatusMessage != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, apiErr.StatusMessage)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
