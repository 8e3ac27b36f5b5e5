package ai

import "context"

// embeddingBatchSize caps one embeddings request; most providers limit
// array input length.
const embeddingBatchSize = 10

// Embedder binds a Client to one embedding model so callers don't carry
// provider settings around.
type Embedder struct {
	client *Client
	cfg    EmbeddingConfig
}

func NewEmbedder(client *Client, cfg EmbeddingConfig) *Embedder {
	return &Embedder{client: client, cfg: cfg}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.client.Embed(ctx, e.cfg, text)
}

// EmbedBatch embeds texts in provider-sized batches, preserving order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.client.EmbedBatch(ctx, e.cfg, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
