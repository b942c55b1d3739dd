// Package reconciler polls the metadata provider for actively watched series,
// advances stored season counts, and fans out new-season alerts to watchers.
package reconciler
