package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
)

type fakeEmbedder struct {
	vectors  [][]float64
	err      error
	gotTexts [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	f.gotTexts = append(f.gotTexts, texts)
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	// Default: one axis-aligned unit vector per text.
	out := make([][]float64, len(texts))
	for i := range texts {
		v := make([]float64, len(texts))
		v[i] = 1
		out[i] = v
	}
	return out, nil
}

func TestIndexAddRequiresEmbeddingAndDepartment(t *testing.T) {
	t.Parallel()

	ix := NewIndex(zerolog.Nop())
	err := ix.Add(Document{ID: "d1", Department: contractx.IntentHR})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Add(no embedding) error = %v, want ErrValidation", err)
	}
	err = ix.Add(Document{ID: "d2", Embedding: []float64{1}})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Add(no department) error = %v, want ErrValidation", err)
	}
	if ix.Len() != 0 {
		t.Fatalf("Len() = %d after rejected adds, want 0", ix.Len())
	}
}

func TestIndexSearchFiltersAndRanks(t *testing.T) {
	t.Parallel()

	ix := NewIndex(zerolog.Nop())
	err := ix.Add(
		Document{ID: "hr-0", Department: contractx.IntentHR, Content: "far", Embedding: []float64{0, 1}},
		Document{ID: "hr-1", Department: contractx.IntentHR, Content: "near", Embedding: []float64{1, 0.1}},
		Document{ID: "fin-0", Department: contractx.IntentFinance, Content: "other dept", Embedding: []float64{1, 0}},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got := ix.Search(contractx.IntentHR, []float64{1, 0}, 10)
	if len(got) != 2 {
		t.Fatalf("Search() returned %d passages, want 2", len(got))
	}
	if got[0].ID != "hr-1" || got[1].ID != "hr-0" {
		t.Fatalf("Search() order = [%s %s], want [hr-1 hr-0]", got[0].ID, got[1].ID)
	}
	if got[0].Score <= got[1].Score {
		t.Fatalf("scores not descending: %v then %v", got[0].Score, got[1].Score)
	}

	if capped := ix.Search(contractx.IntentHR, []float64{1, 0}, 1); len(capped) != 1 {
		t.Fatalf("Search(topK=1) returned %d passages", len(capped))
	}
	if none := ix.Search(contractx.IntentTech, []float64{1, 0}, 10); len(none) != 0 {
		t.Fatalf("Search(tech) returned %d passages, want 0", len(none))
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	if got := cosineSimilarity([]float64{1, 0}, []float64{1, 0}); got != 1 {
		t.Fatalf("identical vectors = %v, want 1", got)
	}
	if got := cosineSimilarity([]float64{1, 0}, []float64{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors = %v, want 0", got)
	}
	if got := cosineSimilarity([]float64{1, 0}, []float64{1}); got != 0 {
		t.Fatalf("mismatched lengths = %v, want 0", got)
	}
}

func TestVectorRetrieverRetrieve(t *testing.T) {
	t.Parallel()

	ix := NewIndex(zerolog.Nop())
	if err := ix.Add(
		Document{ID: "hr-0", Department: contractx.IntentHR, Content: "leave policy", Embedding: []float64{1, 0}},
	); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	embedder := &fakeEmbedder{vectors: [][]float64{{1, 0}}}
	retriever, err := NewRetriever(ix, embedder)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	passages, err := retriever.Retrieve(context.Background(), contractx.IntentHR, "leave", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(passages) != 1 || passages[0].ID != "hr-0" {
		t.Fatalf("Retrieve() = %v, want [hr-0]", passages)
	}
	if len(embedder.gotTexts) != 1 || len(embedder.gotTexts[0]) != 1 || embedder.gotTexts[0][0] != "leave" {
		t.Fatalf("embedder received %v, want the query", embedder.gotTexts)
	}
}

func TestVectorRetrieverEmbedderFailure(t *testing.T) {
	t.Parallel()

	retriever, err := NewRetriever(NewIndex(zerolog.Nop()), &fakeEmbedder{err: errors.New("quota exceeded")})
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	if _, err := retriever.Retrieve(context.Background(), contractx.IntentHR, "q", 3); err == nil {
		t.Fatal("Retrieve() error = nil, want embed failure")
	}
}
