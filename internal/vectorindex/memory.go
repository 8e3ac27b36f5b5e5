package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

type memoryEntry struct {
	ownerID    uint
	documentID string
	source     string
	text       string
	position   int
	vector     []float32
}

// MemoryIndex is an in-process Index backed by brute-force cosine similarity.
// Useful for development without a Milvus deployment and for tests.
type MemoryIndex struct {
	embedder Embedder

	mu      sync.RWMutex
	entries []memoryEntry
}

func NewMemoryIndex(embedder Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

func (m *MemoryIndex) Upsert(ctx context.Context, ownerID uint, documentID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed chunks: %v", ErrUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", ErrUnavailable, len(vectors), len(chunks))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range chunks {
		m.entries = append(m.entries, memoryEntry{
			ownerID:    ownerID,
			documentID: documentID,
			source:     c.Source,
			text:       c.Text,
			position:   c.Position,
			vector:     vectors[i],
		})
	}
	return nil
}

func (m *MemoryIndex) DeleteByDocument(ctx context.Context, documentID string, ownerID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	var deleted int64
	for _, e := range m.entries {
		if e.documentID == documentID && e.ownerID == ownerID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return deleted, nil
}

func (m *MemoryIndex) Search(ctx context.Context, query string, ownerID uint, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	vector, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrUnavailable, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, e := range m.entries {
		if e.ownerID != ownerID {
			continue
		}
		matches = append(matches, Match{
			Text:       e.text,
			Source:     e.source,
			DocumentID: e.documentID,
			Score:      cosineSimilarity(vector, e.vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Count reports stored entries for a document, regardless of owner when
// ownerID is zero. Intended for consistency checks.
func (m *MemoryIndex) Count(documentID string, ownerID uint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.entries {
		if e.documentID != documentID {
			continue
		}
		if ownerID != 0 && e.ownerID != ownerID {
			continue
		}
		count++
	}
	return count
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
