package orchestratornode

import (
	"context"
	"errors"
	"sync"
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/router"
)

var errBoom = errors.New("boom")

func fixedClock() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) }

type fakeAnalyzer struct {
	analysis router.Analysis
	err      error
	panics   bool
}

func (f fakeAnalyzer) Analyze(string) (router.Analysis, error) {
	if f.panics {
		panic("classifier exploded")
	}
	return f.analysis, f.err
}

type fakeDispatcher struct {
	records []contractx.ExecutionRecord
	gotReq  contractx.Request
	gotIDs  []contractx.AgentID
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req contractx.Request, agents []contractx.AgentID) []contractx.ExecutionRecord {
	f.gotReq = req
	f.gotIDs = agents
	return f.records
}

type fakeAggregator struct {
	resp contractx.Response
}

func (f fakeAggregator) Aggregate(contractx.Request, []contractx.ExecutionRecord, time.Time) contractx.Response {
	return f.resp
}

type fakeImprover struct {
	mu    sync.Mutex
	fail  map[contractx.AgentID]bool
	calls []contractx.AgentID
}

func (f *fakeImprover) Improve(_ context.Context, agent contractx.AgentID, content string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, agent)
	f.mu.Unlock()
	if f.fail[agent] {
		return "", errBoom
	}
	return "improved " + string(agent), nil
}

type fakeSummarizer struct {
	summary  string
	err      error
	original map[string]any
	improved map[string]string
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, original map[string]any, improved map[string]string) (string, error) {
	f.original = original
	f.improved = improved
	return f.summary, f.err
}

type recordingMonitor struct {
	mu     sync.Mutex
	errors []string
	events []string
}

func (m *recordingMonitor) LogError(_ string, message string, _ map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, message)
}

func (m *recordingMonitor) LogHealth(_ string, event, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}
