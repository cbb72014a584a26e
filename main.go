package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	agentsx "github.com/razaqfatiu/m3-multi-agent-system/agent/agents"
	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
	historyx "github.com/razaqfatiu/m3-multi-agent-system/agent/history"
	knowledgex "github.com/razaqfatiu/m3-multi-agent-system/agent/knowledge"
	llmx "github.com/razaqfatiu/m3-multi-agent-system/agent/llm"
	routerx "github.com/razaqfatiu/m3-multi-agent-system/agent/router"
	configx "github.com/razaqfatiu/m3-multi-agent-system/pkg/config"
	logx "github.com/razaqfatiu/m3-multi-agent-system/pkg/logger"
)

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		log.Fatal().Msg("usage: m3-multi-agent-system [-env path] <question>")
	}

	llmCfg := configx.MustNew[llmx.Config]("LLM")
	embedderCfg := configx.MustNew[knowledgex.EmbedderConfig]("EMBEDDING")
	historyCfg := configx.MustNew[historyx.UpstashRedisConfig]("HISTORY_REDIS")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := knowledgex.NewOpenAIEmbedder(*embedderCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create embedder")
	}

	index := knowledgex.NewIndex(log.Logger)
	ingested, err := knowledgex.SeedIndex(ctx, index, embedder, knowledgex.DefaultCorpus())
	if err != nil {
		log.Fatal().Err(err).Msg("seed knowledge index")
	}
	log.Info().Int("documents", ingested).Msg("knowledge index ready")

	retriever, err := knowledgex.NewRetriever(index, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("create retriever")
	}

	registry, err := agentsx.NewRegistry(ctx, *llmCfg, retriever)
	if err != nil {
		log.Fatal().Err(err).Msg("build agent registry")
	}

	router, err := routerx.New(
		registry.Classifier(),
		registry.Agents(),
		routerx.WithLogger(log.Logger),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}

	runID := uuid.NewString()
	log.Info().Str("run_id", runID).Str("question", question).Msg("routing question")

	result, err := router.Route(ctx, question)
	if err != nil {
		log.Fatal().Err(err).Msg("route failed")
	}

	log.Info().
		Strs("intents", intentStrings(result.Classification.Intents)).
		Float64("confidence", result.Classification.Confidence).
		Str("reasoning", result.Classification.Reasoning).
		Msg("classification")

	for i, turn := range result.Turns {
		log.Info().
			Int("turn", i+1).
			Str("agent", turn.Intent.AgentName()).
			Strs("sources", turn.Result.Sources).
			Str("answer", turn.Result.Text).
			Msg("agent turn")
	}
	if len(result.Unresolved) > 0 {
		log.Warn().
			Strs("unresolved", intentStrings(result.Unresolved)).
			Msg("turn budget ran out before the queue drained")
	}

	persistRecord(ctx, *historyCfg, runID, question, result)
}

// persistRecord saves the transcript when a redis store is configured.
// An unset HISTORY_REDIS_URL means persistence is disabled.
func persistRecord(ctx context.Context, cfg historyx.UpstashRedisConfig, runID, question string, result contractx.RouteResult) {
	if strings.TrimSpace(cfg.URL) == "" {
		return
	}

	store, err := historyx.NewUpstashRedisStore(cfg)
	if err != nil {
		log.Error().Err(err).Msg("create history store")
		return
	}

	rec := &historyx.RouteRecord{
		RunID:     runID,
		Question:  question,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, rec); err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("persist route record")
		return
	}
	log.Info().Str("run_id", runID).Msg("route record persisted")
}

func intentStrings(intents []contractx.DepartmentIntent) []string {
	out := make([]string, 0, len(intents))
	for _, intent := range intents {
		out = append(out, string(intent))
	}
	return out
}
