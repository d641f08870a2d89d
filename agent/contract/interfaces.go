package contract

import "context"

// Capability is an analysis backend reachable through the registry.
type Capability interface {
	ID() AgentID
	Invoke(ctx context.Context, req Request) (*Response, error)
}

type Registry interface {
	Lookup(id AgentID) (Capability, bool)
}

// Monitor receives fire-and-forget diagnostics. Implementations must not block or panic.
type Monitor interface {
	LogError(component, message string, fields map[string]any)
	LogHealth(component, event, detail string)
}

// Sink appends one structured record per call.
type Sink interface {
	Append(record any) error
}

type Improver interface {
	Improve(ctx context.Context, agent AgentID, content string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, query string, original map[string]any, improved map[string]string) (string, error)
}

type ReportStore interface {
	SaveReport(ctx context.Context, requestID string, report any) error
}
