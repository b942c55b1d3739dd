package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SanyCska/serials-bot/internal/logging"
	"github.com/SanyCska/serials-bot/internal/notify"
	"github.com/SanyCska/serials-bot/internal/store"
	"github.com/SanyCska/serials-bot/internal/tmdb"
)

// Catalog is the persistence surface the engine reconciles against.
type Catalog interface {
	ActivelyWatchedSeries(ctx context.Context) ([]*store.Series, error)
	UpdateSeriesTotals(ctx context.Context, seriesID int64, totalSeasons int) error
	RefreshSeriesMetadata(ctx context.Context, seriesID int64, name string, year, totalSeasons int) error
	TouchSeries(ctx context.Context, seriesID int64) error
	WatchersOf(ctx context.Context, seriesID int64) ([]store.Watcher, error)
}

// MetadataClient fetches current show metadata from the provider.
type MetadataClient interface {
	GetTVDetails(ctx context.Context, showID int64) (*tmdb.TVDetails, error)
	GetSeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*tmdb.SeasonDetails, error)
}

// Summary reports what a single reconciliation cycle did.
type Summary struct {
	CycleID             uuid.UUID
	SeriesChecked       int
	SeriesUpdated       int
	NewEpisodes         int
	FetchFailures       int
	NotificationsQueued int
	NotificationsSent   int
	NotificationsFailed int
	Duration            time.Duration
}

// Options configures engine behavior beyond its collaborators.
type Options struct {
	// Workers bounds concurrent provider fetches. Values below 1 mean serial.
	Workers int
	// FullRefresh also rewrites name and year from the provider, not just the
	// season count.
	FullRefresh bool
	// NotifyTimeout bounds each notification delivery. Zero disables the bound.
	NotifyTimeout time.Duration
}

// Engine runs reconciliation cycles: it polls the provider for every actively
// watched series, advances stored season counts, and fans out announcements
// to watchers when a new season or episode appears.
type Engine struct {
	catalog  Catalog
	metadata MetadataClient
	notifier notify.Notifier
	logger   *slog.Logger
	opts     Options
}

// NewEngine constructs a reconciliation engine.
func NewEngine(catalog Catalog, metadata MetadataClient, notifier notify.Notifier, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{
		catalog:  catalog,
		metadata: metadata,
		notifier: notifier,
		logger:   logger.With(logging.String(logging.FieldComponent, "reconciler")),
		opts:     opts,
	}
}

// delta is the new content detected for one series: a season-count advance,
// or fresh episodes within the latest known season when the count is
// unchanged.
type delta struct {
	series   *store.Series
	details  *tmdb.TVDetails
	seasons  int // 0 when no season advance was found
	airDate  string
	episodes []tmdb.Episode
}

// RunCycle performs one full reconciliation pass in three phases: fetch all
// provider state, persist every detected advance, then dispatch the buffered
// notifications. A slow or hanging delivery therefore never delays another
// series' persist. Per-series failures are logged and counted but never abort
// the cycle; only catalog listing errors and context cancellation do.
func (e *Engine) RunCycle(ctx context.Context) (Summary, error) {
	summary := Summary{CycleID: uuid.New()}
	start := time.Now()
	logger := e.logger.With(logging.String(logging.FieldCycleID, summary.CycleID.String()))

	series, err := e.catalog.ActivelyWatchedSeries(ctx)
	if err != nil {
		return summary, err
	}
	summary.SeriesChecked = len(series)
	logger.Info("reconciliation cycle started",
		logging.Int("series", len(series)),
		logging.Bool("full_refresh", e.opts.FullRefresh))

	updates := e.fetchUpdates(ctx, logger, series, &summary)

	var (
		seasonEvents  []notify.Event
		episodeEvents []notify.EpisodeEvent
	)
	for _, update := range updates {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		newSeasons, newEpisodes := e.persistUpdate(ctx, logger, update, &summary)
		seasonEvents = append(seasonEvents, newSeasons...)
		episodeEvents = append(episodeEvents, newEpisodes...)
	}

	e.dispatch(ctx, logger, seasonEvents, episodeEvents, &summary)

	summary.Duration = time.Since(start)
	logger.Info("reconciliation cycle finished",
		logging.Int("checked", summary.SeriesChecked),
		logging.Int("updated", summary.SeriesUpdated),
		logging.Int("new_episodes", summary.NewEpisodes),
		logging.Int("fetch_failures", summary.FetchFailures),
		logging.Int("notifications_sent", summary.NotificationsSent),
		logging.Int("notifications_failed", summary.NotificationsFailed),
		logging.Duration("duration", summary.Duration))
	return summary, nil
}

// fetchUpdates polls the provider across a bounded worker pool and returns
// the advances found. Results are collected before any row is written so a
// slow provider never holds write locks open.
func (e *Engine) fetchUpdates(ctx context.Context, logger *slog.Logger, series []*store.Series, summary *Summary) []*delta {
	jobs := make(chan *store.Series)
	var (
		mu      sync.Mutex
		updates []*delta
		wg      sync.WaitGroup
	)

	workers := e.opts.Workers
	if workers > len(series) && len(series) > 0 {
		workers = len(series)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				update, err := e.checkSeries(ctx, item)
				if err != nil {
					mu.Lock()
					summary.FetchFailures++
					mu.Unlock()
					logger.Warn("series check failed",
						logging.Int64(logging.FieldSeriesID, item.ID),
						logging.Int64(logging.FieldTMDBID, item.TMDBID),
						logging.Error(err))
					continue
				}
				if update == nil {
					continue
				}
				mu.Lock()
				updates = append(updates, update)
				mu.Unlock()
			}
		}()
	}

	for _, item := range series {
		if ctx.Err() != nil {
			break
		}
		jobs <- item
	}
	close(jobs)
	wg.Wait()
	return updates
}

// checkSeries fetches provider metadata for one series and reports new
// content, or nil when the stored state is already current. Season counts
// never regress; a provider payload listing fewer seasons than the stored
// high-water mark is ignored.
func (e *Engine) checkSeries(ctx context.Context, item *store.Series) (*delta, error) {
	details, err := e.metadata.GetTVDetails(ctx, item.TMDBID)
	if err != nil {
		return nil, err
	}

	seasons := details.RegularSeasonCount()
	if seasons > item.TotalSeasons {
		update := &delta{
			series:  item,
			details: details,
			seasons: seasons,
		}
		if latest := details.LatestSeason(); latest != nil {
			update.airDate = latest.AirDate
		}
		return update, nil
	}
	return e.checkEpisodes(ctx, item, details)
}

// checkEpisodes looks for episodes of the latest season that aired after the
// series was last checked. Episodes with future air dates wait for a later
// cycle so each is announced once, when actually available.
func (e *Engine) checkEpisodes(ctx context.Context, item *store.Series, details *tmdb.TVDetails) (*delta, error) {
	latest := details.LatestSeason()
	if latest == nil || latest.EpisodeCount == 0 {
		return nil, nil
	}

	since := item.LastUpdate
	if since.IsZero() {
		since = time.Now().AddDate(0, 0, -7)
	}
	now := time.Now()

	season, err := e.metadata.GetSeasonDetails(ctx, item.TMDBID, latest.SeasonNumber)
	if err != nil {
		return nil, err
	}

	var fresh []tmdb.Episode
	for _, episode := range season.Episodes {
		aired, ok := episode.Aired()
		if !ok || !aired.After(since) || aired.After(now) {
			continue
		}
		fresh = append(fresh, episode)
	}
	if len(fresh) == 0 {
		return nil, nil
	}
	return &delta{series: item, details: details, episodes: fresh}, nil
}

// persistUpdate writes one detected advance to the catalog and returns the
// notification events to dispatch for it. Nothing is sent from here; delivery
// happens after every update in the cycle has been persisted.
func (e *Engine) persistUpdate(ctx context.Context, logger *slog.Logger, update *delta, summary *Summary) ([]notify.Event, []notify.EpisodeEvent) {
	seriesLogger := logger.With(
		logging.Int64(logging.FieldSeriesID, update.series.ID),
		logging.String("series", update.series.Name))

	if update.seasons > 0 {
		var err error
		if e.opts.FullRefresh {
			err = e.catalog.RefreshSeriesMetadata(ctx, update.series.ID, update.details.Name, update.details.FirstAirYear(), update.seasons)
		} else {
			err = e.catalog.UpdateSeriesTotals(ctx, update.series.ID, update.seasons)
		}
		if err != nil {
			seriesLogger.Error("season advance not persisted", logging.Error(err))
			return nil, nil
		}
		summary.SeriesUpdated++
		seriesLogger.Info("new season detected",
			logging.String(logging.FieldEventType, "season"),
			logging.Int("seasons_before", update.series.TotalSeasons),
			logging.Int("seasons_now", update.seasons))

		var events []notify.Event
		for _, watcher := range e.watcherChats(ctx, seriesLogger, update.series.ID, summary) {
			events = append(events, notify.Event{
				EventID:      uuid.New(),
				ChatID:       watcher,
				SeriesName:   update.series.Name,
				SeasonNumber: update.seasons,
				AirDate:      update.airDate,
			})
			summary.NotificationsQueued++
		}
		return events, nil
	}

	if err := e.catalog.TouchSeries(ctx, update.series.ID); err != nil {
		seriesLogger.Error("episode check not recorded", logging.Error(err))
		return nil, nil
	}
	summary.NewEpisodes += len(update.episodes)
	seriesLogger.Info("new episodes detected",
		logging.String(logging.FieldEventType, "episode"),
		logging.Int("episodes", len(update.episodes)))

	var events []notify.EpisodeEvent
	for _, watcher := range e.watcherChats(ctx, seriesLogger, update.series.ID, summary) {
		for _, episode := range update.episodes {
			events = append(events, notify.EpisodeEvent{
				EventID:       uuid.New(),
				ChatID:        watcher,
				SeriesName:    update.series.Name,
				SeasonNumber:  episode.SeasonNumber,
				EpisodeNumber: episode.EpisodeNumber,
				EpisodeName:   episode.Name,
				AirDate:       episode.AirDate,
			})
			summary.NotificationsQueued++
		}
	}
	return nil, events
}

// watcherChats resolves the chat ids of everyone watching a series. Watchers
// with unusable chat ids count as failed deliveries and are skipped.
func (e *Engine) watcherChats(ctx context.Context, logger *slog.Logger, seriesID int64, summary *Summary) []int64 {
	watchers, err := e.catalog.WatchersOf(ctx, seriesID)
	if err != nil {
		logger.Error("watcher lookup failed", logging.Error(err))
		return nil
	}

	chats := make([]int64, 0, len(watchers))
	for _, watcher := range watchers {
		chatID, err := notify.ParseChatID(watcher.TelegramID)
		if err != nil {
			logger.Warn("watcher has unusable chat id",
				logging.Int64("user_id", watcher.UserID),
				logging.Error(err))
			summary.NotificationsFailed++
			continue
		}
		chats = append(chats, chatID)
	}
	return chats
}

// dispatch delivers the buffered events. Delivery failures count against the
// summary without blocking the remaining sends; cancellation stops the run.
func (e *Engine) dispatch(ctx context.Context, logger *slog.Logger, seasons []notify.Event, episodes []notify.EpisodeEvent, summary *Summary) {
	for _, event := range seasons {
		if ctx.Err() != nil {
			return
		}
		if err := e.deliverSeason(ctx, event); err != nil {
			summary.NotificationsFailed++
			logger.Warn("season alert not delivered",
				logging.Int64(logging.FieldChatID, event.ChatID),
				logging.Error(err))
			continue
		}
		summary.NotificationsSent++
	}
	for _, event := range episodes {
		if ctx.Err() != nil {
			return
		}
		if err := e.deliverEpisode(ctx, event); err != nil {
			summary.NotificationsFailed++
			logger.Warn("episode alert not delivered",
				logging.Int64(logging.FieldChatID, event.ChatID),
				logging.Error(err))
			continue
		}
		summary.NotificationsSent++
	}
}

func (e *Engine) deliverSeason(ctx context.Context, event notify.Event) error {
	if e.opts.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.NotifyTimeout)
		defer cancel()
	}
	return e.notifier.NotifyNewSeason(ctx, event)
}

func (e *Engine) deliverEpisode(ctx context.Context, event notify.EpisodeEvent) error {
	if e.opts.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.NotifyTimeout)
		defer cancel()
	}
	return e.notifier.NotifyNewEpisode(ctx, event)
}
