// Package vectorindex stores embedded document chunks and serves
// tenant-filtered similarity search. Every entry is tagged with the owning
// user and source document so reads and deletes can never cross tenants.
package vectorindex

import (
	"context"
	"errors"
)

// ErrUnavailable marks transient backend or embedding-provider failures.
// Callers may retry the whole request.
var ErrUnavailable = errors.New("vector index unavailable")

// Chunk is one text segment to be embedded and stored.
type Chunk struct {
	Text     string
	Source   string
	Position int
}

// Match is a retrieved chunk with its similarity score.
type Match struct {
	Text       string
	Source     string
	DocumentID string
	Score      float32
}

// Embedder maps text to fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the contract the ingestion and conversation pipelines rely on.
type Index interface {
	// Upsert embeds and stores chunks tagged with ownerID and documentID.
	Upsert(ctx context.Context, ownerID uint, documentID string, chunks []Chunk) error
	// DeleteByDocument removes all entries matching both documentID and
	// ownerID and reports how many were removed. Zero is not an error.
	DeleteByDocument(ctx context.Context, documentID string, ownerID uint) (int64, error)
	// Search returns at most k matches for the query, restricted to entries
	// owned by ownerID, ordered by descending similarity.
	Search(ctx context.Context, query string, ownerID uint, k int) ([]Match, error)
}
