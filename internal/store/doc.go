// Package store provides SQLite persistence for users, series, and the
// per-user tracking links between them.
package store
