package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/SanyCska/serials-bot/internal/services"
	"github.com/SanyCska/serials-bot/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenPath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func seedUserAndSeries(t *testing.T, s *store.Store) (*store.User, *store.Series) {
	t.Helper()
	ctx := context.Background()
	user, err := s.UpsertUser(ctx, "100200300", "viewer", "Vera", "")
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	series, err := s.UpsertSeries(ctx, 1399, "Game of Thrones", 2011, 8)
	if err != nil {
		t.Fatalf("UpsertSeries() error = %v", err)
	}
	return user, series
}

func TestUpsertUserRefreshesNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertUser(ctx, "42", "old_handle", "Old", "Name")
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	second, err := s.UpsertUser(ctx, "42", "new_handle", "New", "Name")
	if err != nil {
		t.Fatalf("UpsertUser() second call error = %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected same user row, got ids %d and %d", first.ID, second.ID)
	}
	if second.Username != "new_handle" {
		t.Errorf("Username = %q, want %q", second.Username, "new_handle")
	}
}

func TestUpsertSeriesDeduplicatesByTMDBID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertSeries(ctx, 66732, "Stranger Things", 2016, 4)
	if err != nil {
		t.Fatalf("UpsertSeries() error = %v", err)
	}
	second, err := s.UpsertSeries(ctx, 66732, "Stranger Things", 2016, 5)
	if err != nil {
		t.Fatalf("UpsertSeries() second call error = %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected same series row, got ids %d and %d", first.ID, second.ID)
	}
	if second.TotalSeasons != 5 {
		t.Errorf("TotalSeasons = %d, want 5", second.TotalSeasons)
	}
}

func TestGetSeriesByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, series := seedUserAndSeries(t, s)

	got, err := s.GetSeriesByID(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetSeriesByID() error = %v", err)
	}
	if got == nil || got.TMDBID != series.TMDBID || got.Name != series.Name {
		t.Errorf("GetSeriesByID() = %+v, want %+v", got, series)
	}

	missing, err := s.GetSeriesByID(ctx, series.ID+100)
	if err != nil {
		t.Fatalf("GetSeriesByID() for unknown id error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetSeriesByID() for unknown id = %+v, want nil", missing)
	}
}

func TestTouchSeriesAdvancesLastUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, series := seedUserAndSeries(t, s)

	time.Sleep(5 * time.Millisecond)
	if err := s.TouchSeries(ctx, series.ID); err != nil {
		t.Fatalf("TouchSeries() error = %v", err)
	}

	got, err := s.GetSeriesByID(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetSeriesByID() error = %v", err)
	}
	if !got.LastUpdate.After(series.LastUpdate) {
		t.Errorf("LastUpdate = %v, want later than %v", got.LastUpdate, series.LastUpdate)
	}
	if got.Name != series.Name || got.TotalSeasons != series.TotalSeasons {
		t.Errorf("metadata changed: %+v, want %+v", got, series)
	}
}

func TestAttachSeriesIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, series := seedUserAndSeries(t, s)

	first, err := s.AttachSeries(ctx, user.ID, series.ID, store.StatusWatching)
	if err != nil {
		t.Fatalf("AttachSeries() error = %v", err)
	}
	second, err := s.AttachSeries(ctx, user.ID, series.ID, store.StatusWatchlisted)
	if err != nil {
		t.Fatalf("AttachSeries() second call error = %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected same link row, got ids %d and %d", first.ID, second.ID)
	}
	if second.Status != store.StatusWatchlisted {
		t.Errorf("Status = %q, want %q", second.Status, store.StatusWatchlisted)
	}
}

func TestUpdateProgressValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, series := seedUserAndSeries(t, s)
	if _, err := s.AttachSeries(ctx, user.ID, series.ID, store.StatusWatching); err != nil {
		t.Fatalf("AttachSeries() error = %v", err)
	}

	if err := s.UpdateProgress(ctx, user.ID, series.ID, 0, 3); !errors.Is(err, services.ErrValidation) {
		t.Errorf("UpdateProgress(season=0) error = %v, want ErrValidation", err)
	}
	if err := s.UpdateProgress(ctx, user.ID, series.ID, 2, -1); !errors.Is(err, services.ErrValidation) {
		t.Errorf("UpdateProgress(episode=-1) error = %v, want ErrValidation", err)
	}

	if err := s.UpdateProgress(ctx, user.ID, series.ID, 3, 7); err != nil {
		t.Fatalf("UpdateProgress() error = %v", err)
	}
	link, err := s.GetLink(ctx, user.ID, series.ID)
	if err != nil {
		t.Fatalf("GetLink() error = %v", err)
	}
	if link.CurrentSeason != 3 || link.CurrentEpisode != 7 {
		t.Errorf("progress = s%d e%d, want s3 e7", link.CurrentSeason, link.CurrentEpisode)
	}
}

func TestUpdateProgressUntrackedSeries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, series := seedUserAndSeries(t, s)

	err := s.UpdateProgress(ctx, user.ID, series.ID, 1, 1)
	if !errors.Is(err, services.ErrNotFound) {
		t.Errorf("UpdateProgress() error = %v, want ErrNotFound", err)
	}
}

func TestSetWatchStatusStampsWatchedDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, series := seedUserAndSeries(t, s)
	link, err := s.AttachSeries(ctx, user.ID, series.ID, store.StatusWatching)
	if err != nil {
		t.Fatalf("AttachSeries() error = %v", err)
	}

	if err := s.SetWatchStatus(ctx, link.ID, store.StatusWatched); err != nil {
		t.Fatalf("SetWatchStatus(watched) error = %v", err)
	}
	watched, err := s.GetLink(ctx, user.ID, series.ID)
	if err != nil {
		t.Fatalf("GetLink() error = %v", err)
	}
	if watched.Status != store.StatusWatched {
		t.Fatalf("Status = %q, want %q", watched.Status, store.StatusWatched)
	}
	if watched.WatchedDate == nil {
		t.Fatal("WatchedDate not stamped on watched transition")
	}

	if err := s.SetWatchStatus(ctx, link.ID, store.StatusWatching); err != nil {
		t.Fatalf("SetWatchStatus(watching) error = %v", err)
	}
	rewatching, err := s.GetLink(ctx, user.ID, series.ID)
	if err != nil {
		t.Fatalf("GetLink() error = %v", err)
	}
	if rewatching.WatchedDate != nil {
		t.Error("WatchedDate not cleared when leaving watched status")
	}
}

func TestListUserSeriesFiltersByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, watching := seedUserAndSeries(t, s)
	queued, err := s.UpsertSeries(ctx, 94997, "House of the Dragon", 2022, 2)
	if err != nil {
		t.Fatalf("UpsertSeries() error = %v", err)
	}

	if _, err := s.AttachSeries(ctx, user.ID, watching.ID, store.StatusWatching); err != nil {
		t.Fatalf("AttachSeries() error = %v", err)
	}
	if _, err := s.AttachSeries(ctx, user.ID, queued.ID, store.StatusWatchlisted); err != nil {
		t.Fatalf("AttachSeries() error = %v", err)
	}

	active, err := s.ListUserSeries(ctx, user.ID, store.StatusWatching)
	if err != nil {
		t.Fatalf("ListUserSeries(watching) error = %v", err)
	}
	if len(active) != 1 || active[0].Series.ID != watching.ID {
		t.Errorf("watching list = %+v, want only series %d", active, watching.ID)
	}

	listed, err := s.ListUserSeries(ctx, user.ID, store.StatusWatchlisted)
	if err != nil {
		t.Fatalf("ListUserSeries(watchlisted) error = %v", err)
	}
	if len(listed) != 1 || listed[0].Series.ID != queued.ID {
		t.Errorf("watchlist = %+v, want only series %d", listed, queued.ID)
	}
}

func TestWatchersOfExcludesInactiveLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, series := seedUserAndSeries(t, s)

	active, err := s.UpsertUser(ctx, "111", "active", "Ann", "")
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	done, err := s.UpsertUser(ctx, "222", "done", "Dan", "")
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if _, err := s.AttachSeries(ctx, active.ID, series.ID, store.StatusWatching); err != nil {
		t.Fatalf("AttachSeries() error = %v", err)
	}
	if _, err := s.AttachSeries(ctx, done.ID, series.ID, store.StatusWatched); err != nil {
		t.Fatalf("AttachSeries() error = %v", err)
	}

	watchers, err := s.WatchersOf(ctx, series.ID)
	if err != nil {
		t.Fatalf("WatchersOf() error = %v", err)
	}
	if len(watchers) != 1 {
		t.Fatalf("len(watchers) = %d, want 1", len(watchers))
	}
	if watchers[0].TelegramID != "111" {
		t.Errorf("watcher = %q, want telegram id 111", watchers[0].TelegramID)
	}
}

func TestDetachSeries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, series := seedUserAndSeries(t, s)
	if _, err := s.AttachSeries(ctx, user.ID, series.ID, store.StatusWatching); err != nil {
		t.Fatalf("AttachSeries() error = %v", err)
	}

	if err := s.DetachSeries(ctx, user.ID, series.ID); err != nil {
		t.Fatalf("DetachSeries() error = %v", err)
	}
	link, err := s.GetLink(ctx, user.ID, series.ID)
	if err != nil {
		t.Fatalf("GetLink() error = %v", err)
	}
	if link != nil {
		t.Error("link still present after detach")
	}

	if err := s.DetachSeries(ctx, user.ID, series.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("second DetachSeries() error = %v, want ErrNotFound", err)
	}
}

func TestActivelyWatchedSeriesDistinct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, series := seedUserAndSeries(t, s)

	for _, telegramID := range []string{"501", "502"} {
		user, err := s.UpsertUser(ctx, telegramID, "", "Viewer", "")
		if err != nil {
			t.Fatalf("UpsertUser() error = %v", err)
		}
		if _, err := s.AttachSeries(ctx, user.ID, series.ID, store.StatusWatching); err != nil {
			t.Fatalf("AttachSeries() error = %v", err)
		}
	}

	watched, err := s.ActivelyWatchedSeries(ctx)
	if err != nil {
		t.Fatalf("ActivelyWatchedSeries() error = %v", err)
	}
	if len(watched) != 1 {
		t.Fatalf("len(watched) = %d, want 1 distinct series", len(watched))
	}
	if watched[0].ID != series.ID {
		t.Errorf("series id = %d, want %d", watched[0].ID, series.ID)
	}
}

func TestStatsCountsLinkStates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, series := seedUserAndSeries(t, s)
	if _, err := s.AttachSeries(ctx, user.ID, series.ID, store.StatusWatched); err != nil {
		t.Fatalf("AttachSeries() error = %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Users != 1 || stats.Series != 1 {
		t.Errorf("stats = %+v, want 1 user and 1 series", stats)
	}
	if stats.Watched != 1 || stats.Watching != 0 {
		t.Errorf("stats = %+v, want 1 watched link", stats)
	}
}
