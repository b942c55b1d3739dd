// Package tmdb implements a throttled client for The Movie Database TV API.
package tmdb
