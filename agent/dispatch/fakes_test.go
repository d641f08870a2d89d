package dispatch

import (
	"context"
	"errors"
	"sync"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

type fakeCapability struct {
	id     contractx.AgentID
	invoke func(ctx context.Context, req contractx.Request) (*contractx.Response, error)
}

func (f fakeCapability) ID() contractx.AgentID { return f.id }

func (f fakeCapability) Invoke(ctx context.Context, req contractx.Request) (*contractx.Response, error) {
	return f.invoke(ctx, req)
}

type fakeRegistry map[contractx.AgentID]contractx.Capability

func (r fakeRegistry) Lookup(id contractx.AgentID) (contractx.Capability, bool) {
	c, ok := r[id]
	return c, ok
}

func (r fakeRegistry) add(id contractx.AgentID, fn func(ctx context.Context, req contractx.Request) (*contractx.Response, error)) fakeRegistry {
	r[id] = fakeCapability{id: id, invoke: fn}
	return r
}

func respond(results map[string]any, updates map[string]any) func(context.Context, contractx.Request) (*contractx.Response, error) {
	return func(_ context.Context, req contractx.Request) (*contractx.Response, error) {
		return &contractx.Response{
			RequestID:      req.ID,
			Results:        results,
			ContextUpdates: updates,
			Status:         contractx.StatusSuccess,
		}, nil
	}
}

type loggedError struct {
	component string
	message   string
}

type recordingMonitor struct {
	mu     sync.Mutex
	errors []loggedError
}

func (m *recordingMonitor) LogError(component, message string, _ map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, loggedError{component: component, message: message})
}

func (m *recordingMonitor) LogHealth(string, string, string) {}

func (m *recordingMonitor) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

type memorySink struct {
	mu      sync.Mutex
	records []any
	err     error
}

func (s *memorySink) Append(record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

var errBoom = errors.New("boom")
