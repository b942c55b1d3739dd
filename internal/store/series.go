package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const seriesColumns = "id, tmdb_id, name, year, total_seasons, last_update"

// UpsertSeries creates a series row the first time any user adds it, or
// refreshes the provider metadata on subsequent adds.
func (s *Store) UpsertSeries(ctx context.Context, tmdbID int64, name string, year, totalSeasons int) (*Series, error) {
	if tmdbID <= 0 {
		return nil, errors.New("tmdb id must be positive")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("series name is required")
	}

	existing, err := s.GetSeriesByTMDBID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		_, err := s.db.ExecContext(
			ctx,
			`INSERT INTO series (tmdb_id, name, year, total_seasons, last_update)
             VALUES (?, ?, ?, ?, ?)`,
			tmdbID,
			name,
			year,
			totalSeasons,
			timestamp(time.Now()),
		)
		if err != nil {
			return nil, fmt.Errorf("insert series: %w", err)
		}
		return s.GetSeriesByTMDBID(ctx, tmdbID)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE series SET name = ?, year = ?, total_seasons = ?, last_update = ? WHERE tmdb_id = ?`,
		name,
		year,
		totalSeasons,
		timestamp(time.Now()),
		tmdbID,
	)
	if err != nil {
		return nil, fmt.Errorf("update series: %w", err)
	}
	return s.GetSeriesByTMDBID(ctx, tmdbID)
}

// GetSeriesByTMDBID fetches a series by its external provider identifier.
// Returns nil when no such series exists.
func (s *Store) GetSeriesByTMDBID(ctx context.Context, tmdbID int64) (*Series, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE tmdb_id = ?`, tmdbID)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series by tmdb id: %w", err)
	}
	return series, nil
}

// GetSeriesByID fetches a series by local identifier.
func (s *Store) GetSeriesByID(ctx context.Context, id int64) (*Series, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id = ?`, id)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return series, nil
}

// ActivelyWatchedSeries returns the distinct series referenced by at least one
// link with watching status. Series nobody watches are skipped so the
// reconciler does not waste provider calls.
func (s *Store) ActivelyWatchedSeries(ctx context.Context) ([]*Series, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT DISTINCT s.id, s.tmdb_id, s.name, s.year, s.total_seasons, s.last_update
         FROM series s
         JOIN user_series us ON us.series_id = s.id
         WHERE us.is_watching = 1
         ORDER BY s.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query watched series: %w", err)
	}
	defer rows.Close()

	var result []*Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, series)
	}
	return result, rows.Err()
}

// UpdateSeriesTotals advances the stored season high-water mark. Only the
// totals and last_update fields change; per-user progress is untouched.
func (s *Store) UpdateSeriesTotals(ctx context.Context, seriesID int64, totalSeasons int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE series SET total_seasons = ?, last_update = ? WHERE id = ?`,
		totalSeasons,
		timestamp(time.Now()),
		seriesID,
	)
	if err != nil {
		return fmt.Errorf("update series totals: %w", err)
	}
	return nil
}

// TouchSeries advances last_update without changing any metadata, recording
// that the series was checked so the same episodes are not announced twice.
func (s *Store) TouchSeries(ctx context.Context, seriesID int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE series SET last_update = ? WHERE id = ?`,
		timestamp(time.Now()),
		seriesID,
	)
	if err != nil {
		return fmt.Errorf("touch series: %w", err)
	}
	return nil
}

// RefreshSeriesMetadata replaces name, year, and season count from a full
// provider refresh.
func (s *Store) RefreshSeriesMetadata(ctx context.Context, seriesID int64, name string, year, totalSeasons int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("series name is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE series SET name = ?, year = ?, total_seasons = ?, last_update = ? WHERE id = ?`,
		name,
		year,
		totalSeasons,
		timestamp(time.Now()),
		seriesID,
	)
	if err != nil {
		return fmt.Errorf("refresh series metadata: %w", err)
	}
	return nil
}

// Stats returns row counts for diagnostic output.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&stats.Users); err != nil {
		return Stats{}, fmt.Errorf("count users: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM series`).Scan(&stats.Series); err != nil {
		return Stats{}, fmt.Errorf("count series: %w", err)
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT
            COALESCE(SUM(is_watching), 0),
            COALESCE(SUM(in_watchlist), 0),
            COALESCE(SUM(is_watched), 0)
         FROM user_series`,
	)
	if err := row.Scan(&stats.Watching, &stats.Watchlisted, &stats.Watched); err != nil {
		return Stats{}, fmt.Errorf("count links: %w", err)
	}
	return stats, nil
}

func scanSeries(scanner interface{ Scan(dest ...any) error }) (*Series, error) {
	var (
		id         int64
		tmdbID     int64
		name       string
		year       sql.NullInt64
		totals     sql.NullInt64
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &tmdbID, &name, &year, &totals, &updatedRaw); err != nil {
		return nil, err
	}

	series := &Series{
		ID:           id,
		TMDBID:       tmdbID,
		Name:         name,
		Year:         int(year.Int64),
		TotalSeasons: int(totals.Int64),
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		series.LastUpdate = updated
	}
	return series, nil
}
