package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/city-brain/enterprise-cli/internal/braintable"
	"github.com/city-brain/enterprise-cli/internal/pipeline"
	"github.com/city-brain/enterprise-cli/internal/registry"
	"github.com/city-brain/enterprise-cli/internal/resilience"
	"github.com/city-brain/enterprise-cli/pkg/bocha"
	"github.com/city-brain/enterprise-cli/pkg/llm"
)

// pipelineEnv holds the registry, capability clients and the pipeline for
// the resolve/batch/serve commands.
type pipelineEnv struct {
	Registry registry.SeedRegistry
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Registry != nil {
		_ = pe.Registry.Close()
	}
}

// initPipeline opens the registry, builds the capability clients and wires
// the pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	reg, err := registry.Open(ctx, cfg.Registry)
	if err != nil {
		return nil, err
	}

	maps, err := braintable.Load(cfg.BrainMap.Path)
	if err != nil {
		_ = reg.Close()
		return nil, eris.Wrap(err, "load brain tables")
	}

	searchClient := pipeline.NewTracedSearchClient(
		bocha.NewClient(cfg.Bocha.Key, bocha.WithBaseURL(cfg.Bocha.BaseURL)))
	llmClient := pipeline.NewTracedLLMClient(llm.NewClient(cfg.Anthropic.Key,
		llm.WithModel(cfg.Anthropic.Model),
		llm.WithMaxTokens(cfg.Anthropic.MaxTokens),
	))

	matcher := pipeline.NewMatcher(reg, cfg.Pipeline.MinFuzzyBaseRunes)
	static := pipeline.NewStaticResolver(maps)
	relational := pipeline.NewRelationalResolver(reg, matcher)

	retryCfg := resilience.SearchRetryConfig()
	if cfg.Pipeline.SearchRetries > 0 {
		retryCfg.MaxAttempts = cfg.Pipeline.SearchRetries
	}

	p := pipeline.New(pipeline.Deps{
		Matcher:              matcher,
		Industry:             pipeline.NewIndustryResolver(searchClient),
		BrainChain:           pipeline.NewFallbackResolver(relational, static),
		Ranking:              pipeline.NewRankingResolver(searchClient, llmClient, retryCfg),
		News:                 pipeline.NewNewsResolver(searchClient, llmClient),
		Revenue:              pipeline.NewRevenueResolver(searchClient, llmClient),
		LLM:                  llmClient,
		LocalBaseConfidence:  cfg.Pipeline.LocalBaseConfidence,
		SearchBaseConfidence: cfg.Pipeline.SearchBaseConfidence,
	})

	return &pipelineEnv{Registry: reg, Pipeline: p}, nil
}
