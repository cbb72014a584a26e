// Package classifier maps a raw question onto an ordered, deduplicated set
// of department intents using a structured LLM call.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
)

const maxIntents = 3

type llmClassifier struct {
	runner compose.Runnable[map[string]any, classifierLLMOutput]
}

type classifierLLMOutput struct {
	Intents    []string `json:"intents"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// New builds an LLM-backed classifier over the given chat model.
func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (contractx.Classifier, error) {
	runner, err := compileClassifierGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrClassification, err)
	}
	return &llmClassifier{runner: runner}, nil
}

func (c *llmClassifier) Classify(ctx context.Context, question string) (contractx.ClassificationResult, error) {
	if strings.TrimSpace(question) == "" {
		return contractx.ClassificationResult{}, fmt.Errorf("%w: question is required", contractx.ErrValidation)
	}

	departments := make([]string, 0, len(contractx.KnownIntents()))
	for _, intent := range contractx.KnownIntents() {
		departments = append(departments, string(intent))
	}

	payload := map[string]any{
		"question":    question,
		"departments": departments,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.ClassificationResult{}, fmt.Errorf("%w: marshal classifier payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return contractx.ClassificationResult{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrClassification, err)
	}

	reasoning := strings.TrimSpace(out.Reasoning)
	if reasoning == "" {
		return contractx.ClassificationResult{}, fmt.Errorf("%w: classifier reasoning is empty", contractx.ErrClassification)
	}

	return contractx.ClassificationResult{
		Intents:    resolveOrderedIntents(out.Intents),
		Confidence: clamp01(out.Confidence),
		Reasoning:  reasoning,
	}, nil
}

// resolveOrderedIntents parses raw department names into the enum, dropping
// unparseable entries and duplicates while preserving first-seen order. An
// empty resolution collapses to the unknown sentinel so the result always
// carries at least one intent.
func resolveOrderedIntents(raw []string) []contractx.DepartmentIntent {
	resolved := make([]contractx.DepartmentIntent, 0, maxIntents)
	seen := make(map[contractx.DepartmentIntent]bool, maxIntents)
	for _, name := range raw {
		intent := contractx.ParseDepartmentIntent(name)
		if intent.IsUnknown() || seen[intent] {
			continue
		}
		seen[intent] = true
		resolved = append(resolved, intent)
		if len(resolved) == maxIntents {
			break
		}
	}
	if len(resolved) == 0 {
		return []contractx.DepartmentIntent{contractx.IntentUnknown}
	}
	return resolved
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
