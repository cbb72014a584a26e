package knowledge

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
)

// minChunkRunes merges trailing short paragraphs into the previous chunk
// so the index does not fill with one-line fragments.
const minChunkRunes = 80

var (
	//go:embed corpus/hr.md
	hrCorpusRaw string

	//go:embed corpus/tech.md
	techCorpusRaw string

	//go:embed corpus/finance.md
	financeCorpusRaw string
)

// SeedDocument is one raw source document scoped to a department.
type SeedDocument struct {
	Department contractx.DepartmentIntent
	Name       string
	Content    string
}

// DefaultCorpus returns the embedded seed documents, one per department.
func DefaultCorpus() []SeedDocument {
	return []SeedDocument{
		{Department: contractx.IntentHR, Name: "hr-handbook", Content: hrCorpusRaw},
		{Department: contractx.IntentTech, Name: "tech-kb", Content: techCorpusRaw},
		{Department: contractx.IntentFinance, Name: "finance-policy", Content: financeCorpusRaw},
	}
}

// SeedIndex chunks each seed document, embeds the chunks in one batch per
// document, and adds them to the index. It returns the number of indexed
// chunks.
func SeedIndex(ctx context.Context, index *Index, embedder Embedder, seeds []SeedDocument) (int, error) {
	if index == nil || embedder == nil {
		return 0, fmt.Errorf("%w: index and embedder are required", contractx.ErrConfiguration)
	}

	total := 0
	for _, seed := range seeds {
		chunks := chunkContent(seed.Content)
		if len(chunks) == 0 {
			continue
		}

		embeddings, err := embedder.Embed(ctx, chunks)
		if err != nil {
			return total, fmt.Errorf("embed %s: %w", seed.Name, err)
		}
		if len(embeddings) != len(chunks) {
			return total, fmt.Errorf("%w: %s produced %d embeddings for %d chunks",
				contractx.ErrValidation, seed.Name, len(embeddings), len(chunks))
		}

		docs := make([]Document, 0, len(chunks))
		for i, chunk := range chunks {
			docs = append(docs, Document{
				ID:         fmt.Sprintf("%s-%d", seed.Name, i),
				Department: seed.Department,
				Content:    chunk,
				Embedding:  embeddings[i],
			})
		}
		if err := index.Add(docs...); err != nil {
			return total, err
		}
		total += len(docs)
	}
	return total, nil
}

// chunkContent splits a document on blank lines and folds chunks shorter
// than minChunkRunes into their predecessor.
func chunkContent(content string) []string {
	paragraphs := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n")

	chunks := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(chunks) > 0 && len([]rune(p)) < minChunkRunes {
			chunks[len(chunks)-1] = chunks[len(chunks)-1] + "\n\n" + p
			continue
		}
		chunks = append(chunks, p)
	}
	return chunks
}
