package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
)

// compileRouteGraph wires the route pipeline: validate the question,
// classify it, seed the work queue from the ordered intents, drain the
// queue, and shape the terminal RouteResult.
func (r *Router) compileRouteGraph(
	ctx context.Context,
) (compose.Runnable[string, contractx.RouteResult], error) {
	graph := compose.NewGraph[string, contractx.RouteResult]()

	if err := graph.AddLambdaNode("validate_question",
		compose.InvokableLambda(func(ctx context.Context, question string) (*routeState, error) {
			return r.validateQuestion(question)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_question: %w", err)
	}

	if err := graph.AddLambdaNode("classify",
		compose.InvokableLambda(func(ctx context.Context, st *routeState) (*routeState, error) {
			return r.classify(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify: %w", err)
	}

	if err := graph.AddLambdaNode("seed_queue",
		compose.InvokableLambda(func(ctx context.Context, st *routeState) (*routeState, error) {
			return r.seedQueue(st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node seed_queue: %w", err)
	}

	if err := graph.AddLambdaNode("drain_queue",
		compose.InvokableLambda(func(ctx context.Context, st *routeState) (*routeState, error) {
			return r.drainQueue(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node drain_queue: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_result",
		compose.InvokableLambda(func(ctx context.Context, st *routeState) (contractx.RouteResult, error) {
			return r.finalizeResult(st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_result: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_question"},
		{"validate_question", "classify"},
		{"classify", "seed_queue"},
		{"seed_queue", "drain_queue"},
		{"drain_queue", "finalize_result"},
		{"finalize_result", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.route"))
	if err != nil {
		return nil, fmt.Errorf("compile route graph: %w", err)
	}
	return runner, nil
}
