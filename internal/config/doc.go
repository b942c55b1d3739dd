// Package config loads, normalizes, and validates serialsbot configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TELEGRAM_BOT_TOKEN and TMDB_API_KEY. The Config type centralizes every knob
// the daemon and CLI need.
package config
