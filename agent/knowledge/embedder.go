package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// EmbedderConfig configures the OpenAI-compatible embeddings endpoint.
type EmbedderConfig struct {
	BaseURL  string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey   string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model    string        `envconfig:"MODEL" split_words:"true" default:"text-embedding-3-small"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	MaxBatch int           `envconfig:"MAX_BATCH" split_words:"true" default:"64"`
}

// OpenAIEmbedder embeds text through the OpenAI SDK.
type OpenAIEmbedder struct {
	client   openaisdk.Client
	model    string
	maxBatch int
}

func NewOpenAIEmbedder(cfg EmbedderConfig) (*OpenAIEmbedder, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("embedding api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 64
	}

	return &OpenAIEmbedder{
		client:   openaisdk.NewClient(opts...),
		model:    strings.TrimSpace(cfg.Model),
		maxBatch: maxBatch,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.maxBatch {
		end := start + e.maxBatch
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
			Input: openaisdk.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts[start:end],
			},
			Model: openaisdk.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("embeddings request: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embeddings response has %d vectors, want %d", len(resp.Data), end-start)
		}
		for _, item := range resp.Data {
			vectors = append(vectors, item.Embedding)
		}
	}
	return vectors, nil
}
