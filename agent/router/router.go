// Package router implements the routing/handoff state machine: it expands a
// classification into a bounded FIFO work queue of agent invocations,
// resolves handoffs into follow-up entries, and accumulates the transcript
// returned to the caller.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
)

// DefaultTurnBudget is the hard cap on completed agent turns per Route
// call. It bounds cost and latency against runaway handoff chains and is
// deliberately more general than the current department count.
const DefaultTurnBudget = 5

const noPriorResponses = "No prior department responses."

// Router drives one question through classification and a bounded sequence
// of domain agent invocations. All mutable state lives in the per-call
// routeState, so a single Router is safe for concurrent Route calls.
type Router struct {
	classifier contractx.Classifier
	agents     map[contractx.DepartmentIntent]contractx.DomainAgent
	turnBudget int
	logger     zerolog.Logger

	graphRunner compose.Runnable[string, contractx.RouteResult]
}

// Option customizes a Router.
type Option func(*Router)

// WithTurnBudget overrides DefaultTurnBudget. Non-positive values are
// ignored.
func WithTurnBudget(budget int) Option {
	return func(r *Router) {
		if budget > 0 {
			r.turnBudget = budget
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New builds a Router over a classifier and a fixed intent-to-agent
// mapping. The mapping is copied and never mutated afterwards.
func New(
	classifier contractx.Classifier,
	agents map[contractx.DepartmentIntent]contractx.DomainAgent,
	opts ...Option,
) (*Router, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier is required", contractx.ErrConfiguration)
	}
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w: at least one domain agent is required", contractx.ErrConfiguration)
	}

	bound := make(map[contractx.DepartmentIntent]contractx.DomainAgent, len(agents))
	for intent, agent := range agents {
		if intent.IsUnknown() {
			return nil, fmt.Errorf("%w: the unknown intent cannot have an agent", contractx.ErrConfiguration)
		}
		if agent == nil {
			return nil, fmt.Errorf("%w: nil agent bound to intent=%s", contractx.ErrConfiguration, intent)
		}
		bound[intent] = agent
	}

	r := &Router{
		classifier: classifier,
		agents:     bound,
		turnBudget: DefaultTurnBudget,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	graphRunner, err := r.compileRouteGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// Route classifies the question, then pops the work queue until it drains
// or the turn budget is exhausted. Classification and generation errors
// abort the call; no partial RouteResult is returned.
func (r *Router) Route(ctx context.Context, question string) (contractx.RouteResult, error) {
	out, err := r.graphRunner.Invoke(ctx, question)
	if err != nil {
		return contractx.RouteResult{}, err
	}
	return out, nil
}

// routeState is the call-scoped state of one Route invocation. It is owned
// exclusively by the single pass through the route graph.
type routeState struct {
	question       string
	classification contractx.ClassificationResult
	queue          workQueue
	visited        map[contractx.DepartmentIntent]bool
	turns          []contractx.AgentTurn
	unresolved     []contractx.DepartmentIntent
}

func (r *Router) validateQuestion(question string) (*routeState, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: question is required", contractx.ErrValidation)
	}
	return &routeState{
		question: trimmed,
		visited:  make(map[contractx.DepartmentIntent]bool, r.turnBudget),
		turns:    make([]contractx.AgentTurn, 0, r.turnBudget),
	}, nil
}

func (r *Router) classify(ctx context.Context, st *routeState) (*routeState, error) {
	classification, err := r.classifier.Classify(ctx, st.question)
	if err != nil {
		return nil, err
	}
	if len(classification.Intents) == 0 {
		return nil, fmt.Errorf("%w: classifier returned no intents", contractx.ErrClassification)
	}
	st.classification = classification
	r.logger.Debug().
		Interface("intents", classification.Intents).
		Float64("confidence", classification.Confidence).
		Msg("question classified")
	return st, nil
}

func (r *Router) seedQueue(st *routeState) (*routeState, error) {
	for _, intent := range st.classification.Intents {
		st.queue.push(queueItem{intent: intent})
	}
	return st, nil
}

// drainQueue is the dispatch loop. Each pop yields an explicit decision;
// only dispatches consume turn budget. A handoff whose target is already
// visited is dropped at enqueue time, which, together with the visited
// check at dequeue time, makes handoff cycles terminate.
func (r *Router) drainQueue(ctx context.Context, st *routeState) (*routeState, error) {
	for st.queue.len() > 0 && len(st.turns) < r.turnBudget {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item, _ := st.queue.pop()
		decision := classifyDequeue(item, st.visited, r.agents)
		if decision != decisionDispatch {
			r.logger.Debug().
				Str("intent", string(item.intent)).
				Str("decision", decision.String()).
				Msg("queue item skipped")
			continue
		}

		agent := r.agents[item.intent]
		task := buildTask(st.question, item.note)
		history := buildHistory(st.turns)

		r.logger.Info().
			Str("intent", string(item.intent)).
			Int("turn", len(st.turns)+1).
			Msg("dispatching domain agent")

		result, err := agent.Invoke(ctx, task, history)
		if err != nil {
			return nil, err
		}

		st.turns = append(st.turns, contractx.AgentTurn{Intent: item.intent, Result: result})
		st.visited[item.intent] = true

		if handoff := result.Handoff; handoff != nil && !handoff.Target.IsUnknown() && !st.visited[handoff.Target] {
			st.queue.push(queueItem{intent: handoff.Target, note: handoff.Note()})
			r.logger.Info().
				Str("from", string(item.intent)).
				Str("to", string(handoff.Target)).
				Msg("handoff queued")
		}
	}

	st.unresolved = unresolvedIntents(st.queue.remaining(), st.visited)
	return st, nil
}

func (r *Router) finalizeResult(st *routeState) (contractx.RouteResult, error) {
	if st == nil {
		return contractx.RouteResult{}, fmt.Errorf("%w: route state is nil", contractx.ErrValidation)
	}
	return contractx.RouteResult{
		Classification: st.classification,
		Turns:          st.turns,
		Unresolved:     st.unresolved,
	}, nil
}

// buildHistory renders the transcript the way downstream agents consume
// it: one block per completed turn, in dispatch order.
func buildHistory(turns []contractx.AgentTurn) string {
	if len(turns) == 0 {
		return noPriorResponses
	}
	blocks := make([]string, 0, len(turns))
	for _, turn := range turns {
		blocks = append(blocks, turn.Intent.AgentName()+":\n"+turn.Result.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// buildTask appends a handoff note to the original question as an explicit
// follow-up directive section.
func buildTask(question, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return question
	}
	return question + "\n\nFollow-up directive:\n" + note
}
