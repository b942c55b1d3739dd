package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/SanyCska/serials-bot/internal/config"
	"github.com/SanyCska/serials-bot/internal/logging"
	"github.com/SanyCska/serials-bot/internal/store"
	"github.com/SanyCska/serials-bot/internal/tmdb"
)

// Bot runs the Telegram transport: it receives updates via long polling or a
// webhook and dispatches them to command handlers.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	store    *store.Store
	search   tmdb.Searcher
	logger   *slog.Logger
	sessions *sessionMap

	mu      sync.Mutex
	running bool
	httpSrv *http.Server
	wg      sync.WaitGroup
}

// New constructs the bot transport around an authorized Telegram API client.
func New(cfg *config.Config, st *store.Store, search tmdb.Searcher, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	if cfg.Telegram.RequestTimeout > 0 {
		api.Client = &http.Client{Timeout: time.Duration(cfg.Telegram.RequestTimeout) * time.Second}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bot{
		api:      api,
		cfg:      cfg,
		store:    st,
		search:   search,
		logger:   logger.With(logging.String(logging.FieldComponent, "bot")),
		sessions: newSessionMap(),
	}, nil
}

// API exposes the underlying client so the notifier can share the session.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

// Start begins receiving updates. Production mode registers a webhook and
// serves it on the configured port; otherwise long polling is used.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("bot already running")
	}

	b.registerCommands()

	var updates tgbotapi.UpdatesChannel
	if b.cfg.Production() && b.cfg.Telegram.WebhookURL != "" {
		channel, err := b.startWebhook()
		if err != nil {
			return err
		}
		updates = channel
	} else {
		channel, err := b.startPolling()
		if err != nil {
			return err
		}
		updates = channel
	}

	b.running = true
	b.wg.Add(1)
	go b.loop(ctx, updates)
	b.logger.Info("bot started", logging.String("username", b.api.Self.UserName))
	return nil
}

// Stop halts update delivery and waits for the dispatch loop to drain.
func (b *Bot) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	srv := b.httpSrv
	b.httpSrv = nil
	b.mu.Unlock()

	b.api.StopReceivingUpdates()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	b.wg.Wait()
	b.logger.Info("bot stopped")
}

func (b *Bot) startPolling() (tgbotapi.UpdatesChannel, error) {
	// A stale webhook blocks getUpdates, so clear it first.
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return nil, fmt.Errorf("delete webhook: %w", err)
	}
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	b.logger.Info("receiving updates via long polling")
	return b.api.GetUpdatesChan(updateCfg), nil
}

func (b *Bot) startWebhook() (tgbotapi.UpdatesChannel, error) {
	path := "/" + b.api.Token
	webhook, err := tgbotapi.NewWebhook(b.cfg.Telegram.WebhookURL + path)
	if err != nil {
		return nil, fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(webhook); err != nil {
		return nil, fmt.Errorf("register webhook: %w", err)
	}

	updates := b.api.ListenForWebhook(path)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", b.cfg.Telegram.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}
	b.httpSrv = srv
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			b.logger.Error("webhook server failed", logging.Error(err))
		}
	}()
	b.logger.Info("receiving updates via webhook",
		logging.String("url", b.cfg.Telegram.WebhookURL),
		logging.Int("port", b.cfg.Telegram.Port))
	return updates, nil
}

func (b *Bot) registerCommands() {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start the bot"},
		tgbotapi.BotCommand{Command: "help", Description: "Show help"},
		tgbotapi.BotCommand{Command: "add", Description: "Track a series you're watching"},
		tgbotapi.BotCommand{Command: "list", Description: "Series you're watching"},
		tgbotapi.BotCommand{Command: "update", Description: "Update season and episode progress"},
		tgbotapi.BotCommand{Command: "remove", Description: "Stop tracking a series"},
		tgbotapi.BotCommand{Command: "addwatch", Description: "Add a series to your watchlist"},
		tgbotapi.BotCommand{Command: "watchlist", Description: "Series you plan to watch"},
		tgbotapi.BotCommand{Command: "addwatched", Description: "Record a series you finished"},
		tgbotapi.BotCommand{Command: "watched", Description: "Series you've finished"},
	)
	if _, err := b.api.Request(commands); err != nil {
		b.logger.Warn("command menu registration failed", logging.Error(err))
	}
}

func (b *Bot) loop(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic", logging.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("message send failed", logging.Error(err))
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
}
