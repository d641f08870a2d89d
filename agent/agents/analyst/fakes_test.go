package analyst

import (
	"context"
	"errors"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/pkg/filingsdb"
)

type fakeCompleter struct {
	reply   string
	err     error
	systems []string
	users   []string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeChatModel struct {
	content string
	err     error
	inputs  [][]*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.content}, nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

type fakeFilingSource struct {
	rows      []filingsdb.Filing
	err       error
	tickers   []string
	perTicker int
}

func (f *fakeFilingSource) LatestFilings(_ context.Context, tickers []string, perTicker int) ([]filingsdb.Filing, error) {
	f.tickers = tickers
	f.perTicker = perTicker
	return f.rows, f.err
}

type recordingMonitor struct {
	mu     sync.Mutex
	errors []string
	health []string
}

func (m *recordingMonitor) LogError(_ string, message string, _ map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, message)
}

func (m *recordingMonitor) LogHealth(_ string, event, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health = append(m.health, event+": "+detail)
}

type stubCapability struct{ id contractx.AgentID }

func (s stubCapability) ID() contractx.AgentID { return s.id }

func (s stubCapability) Invoke(context.Context, contractx.Request) (*contractx.Response, error) {
	return &contractx.Response{Status: contractx.StatusSuccess}, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
