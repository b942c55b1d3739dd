// Package logging configures slog output for the daemon and CLI.
//
// It provides a human-readable console handler, a JSON handler for
// production, component-scoped child loggers, and attribute helpers with
// standardized field names so chat, store, and reconciler logs stay
// greppable.
package logging
