package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/SanyCska/serials-bot/internal/services"
)

// Result represents a single TMDB TV search match.
type Result struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
}

// FirstAirYear extracts the year from the first air date, or 0 when unknown.
func (r Result) FirstAirYear() int {
	if len(r.FirstAirDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(r.FirstAirDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Season is a season summary as returned in TV details.
type Season struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
}

// TVDetails captures the TMDB TV show payload used for tracking.
type TVDetails struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Overview        string   `json:"overview"`
	FirstAirDate    string   `json:"first_air_date"`
	NumberOfSeasons int      `json:"number_of_seasons"`
	InProduction    bool     `json:"in_production"`
	Status          string   `json:"status"`
	Seasons         []Season `json:"seasons"`
}

// FirstAirYear extracts the year from the first air date, or 0 when unknown.
func (d TVDetails) FirstAirYear() int {
	if len(d.FirstAirDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(d.FirstAirDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// RegularSeasonCount counts seasons excluding specials (season 0). TMDB's
// number_of_seasons sometimes includes specials, so the season list is the
// authoritative source when present.
func (d TVDetails) RegularSeasonCount() int {
	if len(d.Seasons) == 0 {
		return d.NumberOfSeasons
	}
	count := 0
	for _, season := range d.Seasons {
		if season.SeasonNumber > 0 {
			count++
		}
	}
	return count
}

// LatestSeason returns the highest-numbered regular season, or nil when the
// payload lists none.
func (d TVDetails) LatestSeason() *Season {
	var latest *Season
	for i := range d.Seasons {
		season := &d.Seasons[i]
		if season.SeasonNumber == 0 {
			continue
		}
		if latest == nil || season.SeasonNumber > latest.SeasonNumber {
			latest = season
		}
	}
	return latest
}

// Episode describes a single TMDB episode entry.
type Episode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
}

// Aired parses the episode air date. ok is false when the payload carries no
// usable date.
func (ep Episode) Aired() (time.Time, bool) {
	aired, err := time.Parse("2006-01-02", ep.AirDate)
	if err != nil {
		return time.Time{}, false
	}
	return aired, true
}

// SeasonDetails captures the full TMDB season payload (episodes included).
type SeasonDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	AirDate      string    `json:"air_date"`
	Episodes     []Episode `json:"episodes"`
}

// Searcher defines the TMDB operations the bot and reconciler use.
type Searcher interface {
	SearchTV(ctx context.Context, query string, year int) (*Response, error)
	GetTVDetails(ctx context.Context, showID int64) (*TVDetails, error)
	GetSeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetails, error)
}

// Client provides throttled access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a TMDB client. requestsPerSecond bounds the outbound request
// rate; values at or below zero disable throttling.
func New(apiKey, baseURL, language string, requestsPerSecond float64, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new", "base url required", nil)
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchTV performs a TMDB TV search. A positive year restricts matches to
// shows that first aired in that year.
func (c *Client) SearchTV(ctx context.Context, query string, year int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search_tv", "query must not be empty", nil)
	}

	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(year))
	}

	var payload Response
	if err := c.get(ctx, "/search/tv", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetTVDetails fetches TV show details, including the season list, by TMDB ID.
func (c *Client) GetTVDetails(ctx context.Context, showID int64) (*TVDetails, error) {
	if showID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "tv_details", "show id must be positive", nil)
	}

	var payload TVDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", showID), url.Values{}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetSeasonDetails fetches the full season metadata for a TV show, including
// episodes.
func (c *Client) GetSeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetails, error) {
	if showID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "season_details", "show id must be positive", nil)
	}
	if seasonNumber <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "season_details", "season number must be positive", nil)
	}

	var payload SeasonDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber), url.Values{}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, payload any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return services.Wrap(services.ErrUnavailable, "tmdb", "throttle", "request cancelled while throttled", err)
	}

	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "tmdb", "request", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, path, latency); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

func classifyStatus(status int, path string, latency time.Duration) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "tmdb", "request", fmt.Sprintf("%s returned 404", path), nil)
	case status == http.StatusTooManyRequests || status >= 500:
		return services.Wrap(services.ErrUnavailable, "tmdb", "request", fmt.Sprintf("%s returned %d (latency=%v)", path, status, latency), nil)
	default:
		return services.Wrap(nil, "tmdb", "request", fmt.Sprintf("%s returned %d (latency=%v)", path, status, latency), errors.New(http.StatusText(status)))
	}
}
