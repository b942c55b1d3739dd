package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateReconciler(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTelegram() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/serialsbot/config.toml"
		}
		return fmt.Errorf("telegram.token is required. Set TELEGRAM_BOT_TOKEN env var or edit %s (create with 'serialsbot config init')", defaultPath)
	}
	if c.Production() && strings.TrimSpace(c.Telegram.WebhookURL) == "" {
		return errors.New("telegram.webhook_url must be set when environment is production")
	}
	if c.Telegram.Port <= 0 || c.Telegram.Port > 65535 {
		return errors.New("telegram.port must be a valid TCP port")
	}
	if c.Telegram.RequestTimeout <= 0 {
		return errors.New("telegram.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/serialsbot/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'serialsbot config init')", defaultPath)
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		return errors.New("tmdb.requests_per_second must be positive")
	}
	if c.TMDB.SearchLimit <= 0 {
		return errors.New("tmdb.search_limit must be positive")
	}
	return nil
}

func (c *Config) validateReconciler() error {
	if c.Reconciler.Interval <= 0 {
		return errors.New("reconciler.interval must be positive (seconds)")
	}
	if c.Reconciler.WorkerCount <= 0 {
		return errors.New("reconciler.worker_count must be positive")
	}
	if c.Reconciler.NotifyTimeout <= 0 {
		return errors.New("reconciler.notify_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("environment: unsupported value %q (use development or production)", c.Environment)
	}
	return nil
}
