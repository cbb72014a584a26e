// Package knowledge provides the evidence layer behind the domain agents:
// an in-memory vector index seeded from per-department documents, plus the
// embedding client used both at ingestion and at query time.
package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
)

// Document is one embedded chunk of a department's corpus.
type Document struct {
	ID         string
	Department contractx.DepartmentIntent
	Content    string
	Embedding  []float64
}

// Embedder turns text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Index is an in-memory cosine-similarity store. Reads are concurrent;
// writes happen at seed time.
type Index struct {
	mu     sync.RWMutex
	docs   []Document
	logger zerolog.Logger
}

func NewIndex(logger zerolog.Logger) *Index {
	return &Index{logger: logger}
}

func (ix *Index) Add(docs ...Document) error {
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: document %s has no embedding", contractx.ErrValidation, doc.ID)
		}
		if doc.Department.IsUnknown() {
			return fmt.Errorf("%w: document %s has no department", contractx.ErrValidation, doc.ID)
		}
	}

	ix.mu.Lock()
	ix.docs = append(ix.docs, docs...)
	total := len(ix.docs)
	ix.mu.Unlock()

	ix.logger.Debug().Int("added", len(docs)).Int("total", total).Msg("documents indexed")
	return nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search returns the topK passages of one department most similar to the
// query embedding, best first.
func (ix *Index) Search(department contractx.DepartmentIntent, queryEmbedding []float64, topK int) []contractx.Passage {
	if topK <= 0 || len(queryEmbedding) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scored := make([]contractx.Passage, 0, len(ix.docs))
	for _, doc := range ix.docs {
		if doc.Department != department {
			continue
		}
		scored = append(scored, contractx.Passage{
			ID:      doc.ID,
			Content: doc.Content,
			Score:   cosineSimilarity(queryEmbedding, doc.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// VectorRetriever satisfies the retriever contract by embedding the query
// and searching the index.
type VectorRetriever struct {
	index    *Index
	embedder Embedder
}

func NewRetriever(index *Index, embedder Embedder) (*VectorRetriever, error) {
	if index == nil {
		return nil, fmt.Errorf("%w: index is required", contractx.ErrConfiguration)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", contractx.ErrConfiguration)
	}
	return &VectorRetriever{index: index, embedder: embedder}, nil
}

func (r *VectorRetriever) Retrieve(
	ctx context.Context,
	department contractx.DepartmentIntent,
	query string,
	topK int,
) ([]contractx.Passage, error) {
	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for one query", contractx.ErrValidation, len(embeddings))
	}
	return r.index.Search(department, embeddings[0], topK), nil
}
