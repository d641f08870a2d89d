package analyst

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	llmx "github.com/tanpawarit/bankerai/agent/llm"
	"github.com/tanpawarit/bankerai/agent/monitor"
	promptx "github.com/tanpawarit/bankerai/agent/prompt"
	"github.com/tanpawarit/bankerai/agent/router"
	"github.com/tanpawarit/bankerai/pkg/filingsdb"
	openrouterx "github.com/tanpawarit/bankerai/pkg/openrouter"
)

const componentRegistry = "AgentRegistry"

var _ contractx.Registry = (*Registry)(nil)

// Registry is read-only once built.
type Registry struct {
	agents  map[contractx.AgentID]contractx.Capability
	closers []io.Closer
}

func NewRegistry(capabilities ...contractx.Capability) *Registry {
	r := &Registry{agents: make(map[contractx.AgentID]contractx.Capability, len(capabilities))}
	for _, c := range capabilities {
		if c != nil {
			r.agents[c.ID()] = c
		}
	}
	return r
}

func (r *Registry) Lookup(id contractx.AgentID) (contractx.Capability, bool) {
	c, ok := r.agents[id]
	return c, ok
}

func (r *Registry) Len() int { return len(r.agents) }

func (r *Registry) IDs() []contractx.AgentID {
	ids := make([]contractx.AgentID, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Close releases resources held by the agents.
func (r *Registry) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Builder constructs one agent. A returned closer is released with the registry.
type Builder struct {
	ID    contractx.AgentID
	Build func(ctx context.Context) (contractx.Capability, io.Closer, error)
}

// Build runs every builder once. Agents that fail to build are logged and left out.
func Build(ctx context.Context, builders []Builder, mon contractx.Monitor) *Registry {
	mon = monitor.OrNop(mon)
	r := NewRegistry()
	for _, b := range builders {
		capability, closer, err := safeBuild(ctx, b)
		if err != nil {
			mon.LogError(componentRegistry, fmt.Sprintf("failed to initialize %s", b.ID), map[string]any{
				"agent": string(b.ID),
				"error": err.Error(),
			})
			continue
		}
		r.agents[b.ID] = capability
		if closer != nil {
			r.closers = append(r.closers, closer)
		}
	}
	mon.LogHealth(componentRegistry, monitor.EventInitialized, fmt.Sprintf("Loaded %d agents", r.Len()))
	return r
}

func safeBuild(ctx context.Context, b Builder) (capability contractx.Capability, closer io.Closer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			capability, closer, err = nil, nil, fmt.Errorf("%w: build panicked: %v", contractx.ErrAgentPanic, rec)
		}
	}()
	if b.Build == nil {
		return nil, nil, fmt.Errorf("%w: no builder for %s", contractx.ErrValidation, b.ID)
	}
	capability, closer, err = b.Build(ctx)
	if err == nil && capability == nil {
		err = fmt.Errorf("%w: builder for %s returned nothing", contractx.ErrValidation, b.ID)
	}
	return capability, closer, err
}

// Deps are the shared inputs of the default agents.
type Deps struct {
	Config  Config
	LLM     *llmx.Config
	Corpus  router.Corpus
	Filings FilingSource
	Monitor contractx.Monitor
}

// DefaultBuilders lists the five agents in selection order.
func DefaultBuilders(deps Deps) []Builder {
	prompts := promptx.LoadPromptSet()
	httpClient := &http.Client{Timeout: deps.Config.HTTPTimeout}

	return []Builder{
		{ID: contractx.AgentFinance, Build: func(ctx context.Context) (contractx.Capability, io.Closer, error) {
			if deps.LLM == nil {
				return nil, nil, fmt.Errorf("%w: llm is not configured", contractx.ErrValidation)
			}
			chatModel, err := openrouterx.NewChatModel(ctx, deps.LLM.OpenRouterFor(llmx.RoleFinance))
			if err != nil {
				return nil, nil, err
			}
			agent, err := NewFinance(ctx, chatModel, prompts.Finance, deps.Corpus)
			return agent, nil, err
		}},
		{ID: contractx.AgentMarketData, Build: func(context.Context) (contractx.Capability, io.Closer, error) {
			agent, err := NewMarketData(deps.Config.MarketDataURL, deps.Config.MarketDataRange, httpClient)
			return agent, nil, err
		}},
		{ID: contractx.AgentFilings, Build: func(ctx context.Context) (contractx.Capability, io.Closer, error) {
			if deps.Filings != nil {
				agent, err := NewFilings(deps.Filings, deps.Config.FilingsPerTicker)
				return agent, nil, err
			}
			store, err := filingsdb.Open(filingsdb.Config{DSN: deps.Config.FilingsDSN, Timeout: deps.Config.HTTPTimeout})
			if err != nil {
				return nil, nil, err
			}
			if err := store.Ping(ctx); err != nil {
				_ = store.Close()
				return nil, nil, err
			}
			agent, err := NewFilings(store, deps.Config.FilingsPerTicker)
			return agent, store, err
		}},
		{ID: contractx.AgentSocialSentiment, Build: func(context.Context) (contractx.Capability, io.Closer, error) {
			agent, err := NewSocialSentiment(deps.Config.SentimentURL, deps.Config.SentimentUserAgent, deps.Config.SentimentLimit, httpClient)
			return agent, nil, err
		}},
		{ID: contractx.AgentGeneral, Build: func(context.Context) (contractx.Capability, io.Closer, error) {
			if deps.LLM == nil {
				return nil, nil, fmt.Errorf("%w: llm is not configured", contractx.ErrValidation)
			}
			cfg := deps.LLM.OpenRouterFor(llmx.RoleGeneral)
			client, err := openrouterx.NewClient(cfg)
			if err != nil {
				return nil, nil, err
			}
			maxTokens := 0
			if cfg.MaxCompletionToken != nil {
				maxTokens = *cfg.MaxCompletionToken
			}
			agent, err := NewGeneral(newOpenAICompleter(client, cfg.Model, cfg.Temperature, maxTokens), prompts, deps.Monitor)
			return agent, nil, err
		}},
	}
}
