package agents

import (
	"context"
	"fmt"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
	classifierx "github.com/razaqfatiu/m3-multi-agent-system/agent/classifier"
	llmx "github.com/razaqfatiu/m3-multi-agent-system/agent/llm"
	promptx "github.com/razaqfatiu/m3-multi-agent-system/agent/prompt"
)

type registryImpl struct {
	classifier contractx.Classifier
	agents     map[contractx.DepartmentIntent]contractx.DomainAgent
}

func (r *registryImpl) Classifier() contractx.Classifier {
	return r.classifier
}

func (r *registryImpl) Agents() map[contractx.DepartmentIntent]contractx.DomainAgent {
	return r.agents
}

// NewRegistry resolves one chat model per role and builds the classifier
// plus one domain agent per known department. The mapping is fixed at
// startup and read-only afterwards.
func NewRegistry(ctx context.Context, cfg llmx.Config, retriever contractx.Retriever) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever is required", contractx.ErrConfiguration)
	}

	prompts := promptx.LoadPromptSet()

	classifierModelCfg := cfg.OpenRouterForClassifier()
	classifierModel, err := classifierModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create classifier model: %v", contractx.ErrClassification, err)
	}
	classifier, err := classifierx.New(ctx, classifierModel, prompts.Classifier)
	if err != nil {
		return nil, err
	}

	agents := make(map[contractx.DepartmentIntent]contractx.DomainAgent, len(contractx.KnownIntents()))
	for _, intent := range contractx.KnownIntents() {
		modelCfg := cfg.OpenRouterFor(intent)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s agent model: %v", contractx.ErrGeneration, intent, err)
		}
		agent, err := newDomainAgent(ctx, intent, chatModel, prompts.For(intent), retriever, cfg.RetrievalTopK)
		if err != nil {
			return nil, err
		}
		agents[intent] = agent
	}

	return &registryImpl{
		classifier: classifier,
		agents:     agents,
	}, nil
}
