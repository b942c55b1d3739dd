package store

import (
	"strings"
	"time"
)

// WatchStatus is the single tagged state of a user's relationship to a series.
// Exactly one status holds per link; the Watched transition records when it
// happened.
type WatchStatus string

const (
	StatusWatching    WatchStatus = "watching"
	StatusWatchlisted WatchStatus = "watchlisted"
	StatusWatched     WatchStatus = "watched"
)

var statusSet = map[WatchStatus]struct{}{
	StatusWatching:    {},
	StatusWatchlisted: {},
	StatusWatched:     {},
}

// ParseWatchStatus converts a string into a known WatchStatus.
func ParseWatchStatus(value string) (WatchStatus, bool) {
	normalized := WatchStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[normalized]
	return normalized, ok
}

// User is a chat participant, created lazily on first interaction.
type User struct {
	ID         int64
	TelegramID string
	Username   string
	FirstName  string
	LastName   string
	JoinedDate time.Time
}

// Series is a TV show as known to TMDB, shared across all tracking users.
type Series struct {
	ID           int64
	TMDBID       int64
	Name         string
	Year         int
	TotalSeasons int
	LastUpdate   time.Time
}

// Link is one user's relationship to one series.
type Link struct {
	ID             int64
	UserID         int64
	SeriesID       int64
	CurrentSeason  int
	CurrentEpisode int
	Status         WatchStatus
	WatchedDate    *time.Time
	LastUpdated    time.Time
}

// Entry joins a link with its series for list rendering.
type Entry struct {
	Link   Link
	Series Series
}

// Watcher identifies a user actively watching a series, for notification
// fan-out.
type Watcher struct {
	UserID     int64
	TelegramID string
	Username   string
	FirstName  string
}

// Stats aggregates row counts for diagnostic output.
type Stats struct {
	Users       int
	Series      int
	Watching    int
	Watchlisted int
	Watched     int
}

func statusFlags(status WatchStatus) (watching, watchlist, watched int) {
	switch status {
	case StatusWatchlisted:
		return 0, 1, 0
	case StatusWatched:
		return 0, 0, 1
	default:
		return 1, 0, 0
	}
}

func statusFromFlags(watching, watchlist, watched bool) WatchStatus {
	switch {
	case watched:
		return StatusWatched
	case watchlist:
		return StatusWatchlisted
	default:
		return StatusWatching
	}
}
