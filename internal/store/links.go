package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SanyCska/serials-bot/internal/services"
)

const linkColumns = "id, user_id, series_id, current_season, current_episode, is_watching, in_watchlist, is_watched, watched_date, last_updated"

// AttachSeries links a user to a series with the given status. Attaching a
// series the user already tracks updates the status in place instead of
// creating a duplicate row.
func (s *Store) AttachSeries(ctx context.Context, userID, seriesID int64, status WatchStatus) (*Link, error) {
	if _, ok := statusSet[status]; !ok {
		return nil, services.Wrap(services.ErrValidation, "store", "attach_series", fmt.Sprintf("unknown watch status %q", status), nil)
	}

	existing, err := s.GetLink(ctx, userID, seriesID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.SetWatchStatus(ctx, existing.ID, status); err != nil {
			return nil, err
		}
		return s.GetLink(ctx, userID, seriesID)
	}

	watching, watchlist, watched := statusFlags(status)
	var watchedDate any
	if status == StatusWatched {
		now := time.Now()
		watchedDate = nullableTime(&now)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO user_series (user_id, series_id, current_season, current_episode, is_watching, in_watchlist, is_watched, watched_date, last_updated)
         VALUES (?, ?, 1, 0, ?, ?, ?, ?, ?)`,
		userID,
		seriesID,
		watching,
		watchlist,
		watched,
		watchedDate,
		timestamp(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert link: %w", err)
	}
	return s.GetLink(ctx, userID, seriesID)
}

// GetLink fetches the link between a user and a series. Returns nil when the
// user does not track the series.
func (s *Store) GetLink(ctx context.Context, userID, seriesID int64) (*Link, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+linkColumns+` FROM user_series WHERE user_id = ? AND series_id = ?`,
		userID,
		seriesID,
	)
	link, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

// UpdateProgress records the user's current position in a series. Writes are
// last-write-wins; there is no ordering guarantee between concurrent updates
// from the same chat.
func (s *Store) UpdateProgress(ctx context.Context, userID, seriesID int64, season, episode int) error {
	if season < 1 {
		return services.Wrap(services.ErrValidation, "store", "update_progress", "season must be a positive whole number", nil)
	}
	if episode < 0 {
		return services.Wrap(services.ErrValidation, "store", "update_progress", "episode must be zero or a positive whole number", nil)
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE user_series SET current_season = ?, current_episode = ?, last_updated = ?
         WHERE user_id = ? AND series_id = ?`,
		season,
		episode,
		timestamp(time.Now()),
		userID,
		seriesID,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update progress rows: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "update_progress", "series is not tracked", nil)
	}
	return nil
}

// DetachSeries removes the link between a user and a series. Detaching a
// series that is not tracked reports ErrNotFound.
func (s *Store) DetachSeries(ctx context.Context, userID, seriesID int64) error {
	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM user_series WHERE user_id = ? AND series_id = ?`,
		userID,
		seriesID,
	)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete link rows: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "detach_series", "series is not tracked", nil)
	}
	return nil
}

// SetWatchStatus moves a link to a new status. Entering the watched state
// stamps watched_date; leaving it clears the stamp.
func (s *Store) SetWatchStatus(ctx context.Context, linkID int64, status WatchStatus) error {
	if _, ok := statusSet[status]; !ok {
		return services.Wrap(services.ErrValidation, "store", "set_watch_status", fmt.Sprintf("unknown watch status %q", status), nil)
	}

	watching, watchlist, watched := statusFlags(status)
	var watchedDate any
	if status == StatusWatched {
		now := time.Now()
		watchedDate = nullableTime(&now)
	}
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE user_series SET is_watching = ?, in_watchlist = ?, is_watched = ?, watched_date = ?, last_updated = ?
         WHERE id = ?`,
		watching,
		watchlist,
		watched,
		watchedDate,
		timestamp(time.Now()),
		linkID,
	)
	if err != nil {
		return fmt.Errorf("set watch status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set watch status rows: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "set_watch_status", "series is not tracked", nil)
	}
	return nil
}

// ListUserSeries returns the user's tracked series in the given status,
// newest activity first.
func (s *Store) ListUserSeries(ctx context.Context, userID int64, status WatchStatus) ([]Entry, error) {
	if _, ok := statusSet[status]; !ok {
		return nil, services.Wrap(services.ErrValidation, "store", "list_user_series", fmt.Sprintf("unknown watch status %q", status), nil)
	}

	flag := "is_watching"
	switch status {
	case StatusWatchlisted:
		flag = "in_watchlist"
	case StatusWatched:
		flag = "is_watched"
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT us.id, us.user_id, us.series_id, us.current_season, us.current_episode,
                us.is_watching, us.in_watchlist, us.is_watched, us.watched_date, us.last_updated,
                s.id, s.tmdb_id, s.name, s.year, s.total_seasons, s.last_update
         FROM user_series us
         JOIN series s ON s.id = us.series_id
         WHERE us.user_id = ? AND us.`+flag+` = 1
         ORDER BY us.last_updated DESC, s.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user series: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// WatchersOf returns every user actively watching a series. Watchlisted and
// watched links are excluded from notification fan-out.
func (s *Store) WatchersOf(ctx context.Context, seriesID int64) ([]Watcher, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT u.id, u.telegram_id, u.username, u.first_name
         FROM user_series us
         JOIN users u ON u.id = us.user_id
         WHERE us.series_id = ? AND us.is_watching = 1
         ORDER BY u.id`,
		seriesID,
	)
	if err != nil {
		return nil, fmt.Errorf("query watchers: %w", err)
	}
	defer rows.Close()

	var watchers []Watcher
	for rows.Next() {
		var (
			watcher   Watcher
			username  sql.NullString
			firstName sql.NullString
		)
		if err := rows.Scan(&watcher.UserID, &watcher.TelegramID, &username, &firstName); err != nil {
			return nil, err
		}
		watcher.Username = username.String
		watcher.FirstName = firstName.String
		watchers = append(watchers, watcher)
	}
	return watchers, rows.Err()
}

func scanLink(scanner interface{ Scan(dest ...any) error }) (*Link, error) {
	var (
		link       Link
		watching   int
		watchlist  int
		watched    int
		watchedRaw sql.NullString
		updatedRaw sql.NullString
	)
	err := scanner.Scan(
		&link.ID,
		&link.UserID,
		&link.SeriesID,
		&link.CurrentSeason,
		&link.CurrentEpisode,
		&watching,
		&watchlist,
		&watched,
		&watchedRaw,
		&updatedRaw,
	)
	if err != nil {
		return nil, err
	}

	link.Status = statusFromFlags(watching == 1, watchlist == 1, watched == 1)
	if watchedRaw.Valid {
		if parsed, err := parseTimeString(watchedRaw.String); err == nil {
			link.WatchedDate = &parsed
		}
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		link.LastUpdated = updated
	}
	return &link, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry      Entry
		watching   int
		watchlist  int
		watched    int
		watchedRaw sql.NullString
		updatedRaw sql.NullString
		year       sql.NullInt64
		totals     sql.NullInt64
		refreshRaw sql.NullString
	)
	err := scanner.Scan(
		&entry.Link.ID,
		&entry.Link.UserID,
		&entry.Link.SeriesID,
		&entry.Link.CurrentSeason,
		&entry.Link.CurrentEpisode,
		&watching,
		&watchlist,
		&watched,
		&watchedRaw,
		&updatedRaw,
		&entry.Series.ID,
		&entry.Series.TMDBID,
		&entry.Series.Name,
		&year,
		&totals,
		&refreshRaw,
	)
	if err != nil {
		return Entry{}, err
	}

	entry.Link.Status = statusFromFlags(watching == 1, watchlist == 1, watched == 1)
	if watchedRaw.Valid {
		if parsed, err := parseTimeString(watchedRaw.String); err == nil {
			entry.Link.WatchedDate = &parsed
		}
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.Link.LastUpdated = updated
	}
	entry.Series.Year = int(year.Int64)
	entry.Series.TotalSeasons = int(totals.Int64)
	if refreshed, err := parseTimeString(refreshRaw.String); err == nil {
		entry.Series.LastUpdate = refreshed
	}
	return entry, nil
}
