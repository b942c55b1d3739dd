package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SanyCska/serials-bot/internal/bot"
	"github.com/SanyCska/serials-bot/internal/daemon"
	"github.com/SanyCska/serials-bot/internal/logging"
	"github.com/SanyCska/serials-bot/internal/notify"
	"github.com/SanyCska/serials-bot/internal/reconciler"
	"github.com/SanyCska/serials-bot/internal/store"
	"github.com/SanyCska/serials-bot/internal/tmdb"
)

func newRunCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot and the new-season reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, configPath, err := loadConfig(configFlag)
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			logger.Info("configuration loaded", logging.String("path", configPath))

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}

			tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, cfg.TMDB.RequestsPerSecond)
			if err != nil {
				_ = st.Close()
				return err
			}

			chatBot, err := bot.New(cfg, st, tmdbClient, logger)
			if err != nil {
				_ = st.Close()
				return err
			}

			notifier := notify.NewService(chatBot.API(), logger)
			engine := reconciler.NewEngine(st, tmdbClient, notifier, logger, reconciler.Options{
				Workers:       cfg.Reconciler.WorkerCount,
				FullRefresh:   cfg.Reconciler.FullRefresh,
				NotifyTimeout: time.Duration(cfg.Reconciler.NotifyTimeout) * time.Second,
			})
			scheduler := reconciler.NewScheduler(engine, time.Duration(cfg.Reconciler.Interval)*time.Second, logger)

			d, err := daemon.New(cfg, st, chatBot, scheduler, logger)
			if err != nil {
				_ = st.Close()
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(ctx); err != nil {
				_ = d.Close()
				return err
			}

			<-ctx.Done()
			logger.Info("shutdown signal received")
			return d.Close()
		},
	}
}
