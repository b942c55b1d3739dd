package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SanyCska/serials-bot/internal/services"
	"github.com/SanyCska/serials-bot/internal/tmdb"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US", 4); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestSearchTVSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "key" {
			t.Fatalf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("first_air_date_year") != "2016" {
			t.Fatalf("expected year filter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":66732,"name":"Stranger Things","first_air_date":"2016-07-15"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US", 0)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchTV(context.Background(), "Stranger Things", 2016)
	if err != nil {
		t.Fatalf("SearchTV returned error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Name != "Stranger Things" {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if year := resp.Results[0].FirstAirYear(); year != 2016 {
		t.Fatalf("FirstAirYear() = %d, want 2016", year)
	}
}

func TestSearchTVEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "", 0)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchTV(context.Background(), "  ", 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("SearchTV error = %v, want ErrValidation", err)
	}
}

func TestGetTVDetailsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "", 0)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := client.GetTVDetails(context.Background(), 9999999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("GetTVDetails error = %v, want ErrNotFound", err)
	}
}

func TestGetTVDetailsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status_code":500}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "", 0)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := client.GetTVDetails(context.Background(), 1399); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("GetTVDetails error = %v, want ErrUnavailable", err)
	}
}

func TestGetTVDetailsRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "", 0)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := client.GetTVDetails(context.Background(), 1399); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("GetTVDetails error = %v, want ErrUnavailable", err)
	}
}

func TestGetSeasonDetailsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/1399/season/2" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":3625,"season_number":2,"air_date":"2012-04-01","episodes":[{"episode_number":1,"name":"Valar Dohaeris"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "", 0)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	season, err := client.GetSeasonDetails(context.Background(), 1399, 2)
	if err != nil {
		t.Fatalf("GetSeasonDetails returned error: %v", err)
	}
	if season.SeasonNumber != 2 || len(season.Episodes) != 1 {
		t.Fatalf("unexpected season payload: %#v", season)
	}
}

func TestRegularSeasonCountSkipsSpecials(t *testing.T) {
	details := tmdb.TVDetails{
		NumberOfSeasons: 3,
		Seasons: []tmdb.Season{
			{SeasonNumber: 0, Name: "Specials"},
			{SeasonNumber: 1},
			{SeasonNumber: 2},
		},
	}
	if count := details.RegularSeasonCount(); count != 2 {
		t.Fatalf("RegularSeasonCount() = %d, want 2", count)
	}
	latest := details.LatestSeason()
	if latest == nil || latest.SeasonNumber != 2 {
		t.Fatalf("LatestSeason() = %+v, want season 2", latest)
	}
}

func TestEpisodeAired(t *testing.T) {
	aired, ok := tmdb.Episode{AirDate: "2024-06-16"}.Aired()
	if !ok {
		t.Fatal("Aired() ok = false for a valid date")
	}
	want := time.Date(2024, time.June, 16, 0, 0, 0, 0, time.UTC)
	if !aired.Equal(want) {
		t.Errorf("Aired() = %v, want %v", aired, want)
	}

	if _, ok := (tmdb.Episode{}).Aired(); ok {
		t.Error("Aired() ok = true for an empty date")
	}
	if _, ok := (tmdb.Episode{AirDate: "soon"}).Aired(); ok {
		t.Error("Aired() ok = true for garbage")
	}
}
