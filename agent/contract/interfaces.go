package contract

import "context"

// Classifier proposes an ordered set of candidate departments for a raw
// question. Implementations must honor ctx cancellation.
type Classifier interface {
	Classify(ctx context.Context, question string) (ClassificationResult, error)
}

// DomainAgent answers a task using department-specific grounding evidence.
// History carries prior agents' answers in dispatch order; task carries the
// original question plus any follow-up directive injected by a handoff.
type DomainAgent interface {
	Invoke(ctx context.Context, task string, history string) (AgentResult, error)
}

// Retriever surfaces evidence passages for a department's corpus.
type Retriever interface {
	Retrieve(ctx context.Context, department DepartmentIntent, query string, topK int) ([]Passage, error)
}

// Registry exposes the classifier and the fixed intent-to-agent mapping
// resolved once at startup.
type Registry interface {
	Classifier() Classifier
	Agents() map[DepartmentIntent]DomainAgent
}
