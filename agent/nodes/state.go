// Package orchestratornode holds the stage values of the analysis pipeline and
// the transition function that produces each of them.
package orchestratornode

import (
	"context"
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/router"
)

const (
	Component       = "AnalysisPipeline"
	WorkflowVersion = "2.0"
	SummaryKey      = "final_summary"
)

// Analyzer classifies a query and selects its agents.
type Analyzer interface {
	Analyze(query string) (router.Analysis, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req contractx.Request, agents []contractx.AgentID) []contractx.ExecutionRecord
}

type Aggregator interface {
	Aggregate(req contractx.Request, records []contractx.ExecutionRecord, startedAt time.Time) contractx.Response
}

type AnalyzeInput struct {
	RequestID string
	Query     string
	StartedAt time.Time
}

type Analyzed struct {
	RequestID    string
	Query        string
	StartedAt    time.Time
	Companies    []string
	Tickers      []string
	IsFinance    bool
	Agents       []contractx.AgentID
	AnalysisTime time.Duration
}

// Executed adds what the agents returned. Results holds successful agents only.
type Executed struct {
	Analyzed
	Results        map[contractx.AgentID]any
	Succeeded      []contractx.AgentID
	Failed         []contractx.AgentID
	Errors         map[contractx.AgentID]string
	ExecutionTimes map[contractx.AgentID]time.Duration
	DispatchStatus contractx.Status
	ContextUpdates map[string]any
}

// Improved adds one readable text per successful agent.
type Improved struct {
	Executed
	Texts map[contractx.AgentID]string
}

type Summarized struct {
	Improved
	Summary  string
	Fallback bool
}

type Metadata struct {
	WorkflowVersion string             `json:"workflow_version"`
	TotalAgents     int                `json:"total_agents"`
	ExecutionTimes  map[string]float64 `json:"execution_times"`
	AnalysisTime    float64            `json:"analysis_time"`
	TotalTime       float64            `json:"total_time"`
	CompletionTime  time.Time          `json:"completion_time"`
	AgentOrder      []string           `json:"agent_order"`
	DispatchStatus  contractx.Status   `json:"dispatch_status"`
	FailedAgents    []string           `json:"failed_agents"`
	AgentErrors     map[string]string  `json:"agent_errors,omitempty"`
	Companies       []string           `json:"companies"`
	Tickers         []string           `json:"tickers"`
	SummaryFallback bool               `json:"summary_fallback"`
	ContextUpdates  map[string]any     `json:"context_updates,omitempty"`
}

// Final is the packaged result of one pipeline run.
type Final struct {
	RequestID string         `json:"request_id"`
	Status    string         `json:"status"`
	Results   map[string]any `json:"results"`
	Metadata  Metadata       `json:"metadata"`
}
