// Package embedding produces query embeddings for hybrid index search, via
// ONNX when available, with caching.
package embedding

import "context"

// Embedder produces a vector embedding for a query string. The vector is sent
// alongside the keyword query so the external index can run hybrid search
// against its precomputed concept embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}
