package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/bankerai/agent/agents/analyst"
	"github.com/tanpawarit/bankerai/agent/agents/editor"
	"github.com/tanpawarit/bankerai/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/dispatch"
	llmx "github.com/tanpawarit/bankerai/agent/llm"
	"github.com/tanpawarit/bankerai/agent/monitor"
	"github.com/tanpawarit/bankerai/agent/router"
	statex "github.com/tanpawarit/bankerai/agent/state"
	configx "github.com/tanpawarit/bankerai/pkg/config"
	metricsx "github.com/tanpawarit/bankerai/pkg/metrics"
	qstashx "github.com/tanpawarit/bankerai/pkg/qstash"
)

const appPrefix = "BANKERAI"

type AppConfig struct {
	CorpusDir       string        `envconfig:"CORPUS_DIR" default:"./raw_data"`
	KnowledgeFile   string        `envconfig:"KNOWLEDGE_FILE"`
	MonitorLogPath  string        `envconfig:"MONITOR_LOG_PATH" default:"monitor_logs.json"`
	AnalysisTimeout time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"300s"`
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":8080"`
}

type app struct {
	cfg      AppConfig
	monitor  *monitor.Logger
	metrics  *metricsx.Recorder
	registry *analyst.Registry
	router   *router.Router
	workflow *orchestrator.Workflow
	reports  *statex.UpstashRedisStore
}

func newClassifier(cfg AppConfig, mon contractx.Monitor) (*router.Classifier, error) {
	kb, err := router.LoadKnowledgeBase(cfg.KnowledgeFile)
	if err != nil {
		return nil, err
	}
	return router.NewClassifier(kb, cfg.CorpusDir, mon), nil
}

// newApp wires every component from the environment. Missing LLM or store
// settings disable the parts that need them instead of failing.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := configx.New[AppConfig](appPrefix)
	if err != nil {
		return nil, err
	}
	agentsCfg, err := configx.New[analyst.Config]("AGENTS")
	if err != nil {
		return nil, err
	}

	mon := monitor.FromGlobal()
	metrics := metricsx.New(metricsx.DefaultConfig())

	classifier, err := newClassifier(*cfg, mon)
	if err != nil {
		return nil, err
	}

	var llmCfg *llmx.Config
	if c, err := configx.New[llmx.Config]("OPENROUTER"); err != nil {
		log.Warn().Err(err).Msg("openrouter is not configured; llm agents are disabled")
	} else if err := c.Validate(); err != nil {
		log.Warn().Err(err).Msg("openrouter config is invalid; llm agents are disabled")
	} else {
		llmCfg = c
	}

	registry := analyst.Build(ctx, analyst.DefaultBuilders(analyst.Deps{
		Config:  *agentsCfg,
		LLM:     llmCfg,
		Corpus:  classifier.Corpus(),
		Monitor: mon,
	}), mon)

	dispatcher := dispatch.NewDispatcher(registry, mon, dispatch.WithMetrics(metrics))
	aggregator := dispatch.NewAggregator(router.Name, monitor.NewFileSink(cfg.MonitorLogPath), mon,
		dispatch.WithAggregatorMetrics(metrics))
	rt := router.New(classifier, dispatcher, aggregator, mon)

	deps := orchestrator.Deps{
		Analyzer:   rt,
		Dispatcher: dispatcher,
		Aggregator: aggregator,
		Monitor:    mon,
		Metrics:    metrics,
	}
	if llmCfg != nil {
		improver, summarizer, err := editor.New(ctx, *llmCfg)
		if err != nil {
			mon.LogError("Editor", "failed to initialize editor", map[string]any{"error": err.Error()})
		} else {
			deps.Improver = improver
			deps.Summarizer = summarizer
		}
	}

	a := &app{cfg: *cfg, monitor: mon, metrics: metrics, registry: registry, router: rt}

	if redisCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS"); err == nil && redisCfg.Enabled() {
		store, err := statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			return nil, errors.Join(err, registry.Close())
		}
		a.reports = store
		deps.Reports = append(deps.Reports, store)
	}
	if qstashCfg, err := configx.New[qstashx.Config]("QSTASH"); err == nil && qstashCfg.Enabled() {
		publisher, err := qstashx.NewClient(*qstashCfg)
		if err != nil {
			return nil, errors.Join(err, registry.Close())
		}
		deps.Reports = append(deps.Reports, publisher)
	}

	a.workflow, err = orchestrator.New(deps)
	if err != nil {
		return nil, errors.Join(err, registry.Close())
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.registry.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to release agent resources")
	}
}
