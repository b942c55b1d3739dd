// Package textutil provides token fingerprints and cosine similarity for
// ranking search results against user queries.
package textutil
