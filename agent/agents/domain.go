// Package agents builds the domain agents and the registry that binds one
// agent per department alongside the intent classifier.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
)

const defaultTopK = 4

// domainAgent answers tasks for one department, grounded on passages
// retrieved from that department's corpus.
type domainAgent struct {
	intent    contractx.DepartmentIntent
	retriever contractx.Retriever
	runner    compose.Runnable[map[string]any, domainLLMOutput]
	topK      int
}

type domainLLMOutput struct {
	Answer    string            `json:"answer"`
	Citations []string          `json:"citations,omitempty"`
	Handoff   *handoffLLMOutput `json:"handoff,omitempty"`
}

type handoffLLMOutput struct {
	Department string `json:"department"`
	Reason     string `json:"reason,omitempty"`
	Context    string `json:"context,omitempty"`
}

func newDomainAgent(
	ctx context.Context,
	intent contractx.DepartmentIntent,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	retriever contractx.Retriever,
	topK int,
) (*domainAgent, error) {
	if intent.IsUnknown() {
		return nil, fmt.Errorf("%w: unknown intent cannot back a domain agent", contractx.ErrConfiguration)
	}
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever is required for agent=%s", contractx.ErrConfiguration, intent)
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	runner, err := compileDomainAgentGraph(ctx, chatModel, systemPrompt, intent)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s agent graph: %v", contractx.ErrGeneration, intent, err)
	}

	return &domainAgent{
		intent:    intent,
		retriever: retriever,
		runner:    runner,
		topK:      topK,
	}, nil
}

func (a *domainAgent) Invoke(ctx context.Context, task string, history string) (contractx.AgentResult, error) {
	if strings.TrimSpace(task) == "" {
		return contractx.AgentResult{}, fmt.Errorf("%w: task is required", contractx.ErrValidation)
	}

	passages, err := a.retriever.Retrieve(ctx, a.intent, task, a.topK)
	if err != nil {
		return contractx.AgentResult{}, fmt.Errorf("%w: retrieve evidence for %s: %v", contractx.ErrGeneration, a.intent, err)
	}

	evidence := make([]map[string]string, 0, len(passages))
	for _, p := range passages {
		evidence = append(evidence, map[string]string{
			"id":      p.ID,
			"content": p.Content,
		})
	}

	payload := map[string]any{
		"task":     task,
		"history":  history,
		"evidence": evidence,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.AgentResult{}, fmt.Errorf("%w: marshal %s agent payload: %v", contractx.ErrValidation, a.intent, err)
	}

	out, err := a.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return contractx.AgentResult{}, fmt.Errorf("%w: %s agent invoke: %v", contractx.ErrGeneration, a.intent, err)
	}

	answer := strings.TrimSpace(out.Answer)
	if answer == "" {
		return contractx.AgentResult{}, fmt.Errorf("%w: %s agent answer is empty", contractx.ErrGeneration, a.intent)
	}

	return contractx.AgentResult{
		Text:    answer,
		Sources: resolveSources(out.Citations, passages),
		Handoff: a.resolveHandoff(out.Handoff),
	}, nil
}

// resolveSources keeps the model's own citations when it produced any,
// falling back to the identifiers of the raw retrieved passages.
func resolveSources(citations []string, passages []contractx.Passage) []string {
	sources := make([]string, 0, len(citations))
	for _, c := range citations {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			sources = append(sources, trimmed)
		}
	}
	if len(sources) > 0 {
		return sources
	}
	for _, p := range passages {
		sources = append(sources, p.ID)
	}
	return sources
}

// resolveHandoff drops handoffs that name no other department: an unknown
// or self target is equivalent to no handoff at all.
func (a *domainAgent) resolveHandoff(raw *handoffLLMOutput) *contractx.Handoff {
	if raw == nil {
		return nil
	}
	target := contractx.ParseDepartmentIntent(raw.Department)
	if target.IsUnknown() || target == a.intent {
		return nil
	}
	return &contractx.Handoff{
		Target:  target,
		Reason:  strings.TrimSpace(raw.Reason),
		Context: strings.TrimSpace(raw.Context),
	}
}
