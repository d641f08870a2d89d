package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/monitor"
	metricsx "github.com/tanpawarit/bankerai/pkg/metrics"
)

const componentDispatcher = "Dispatcher"

// Dispatcher runs agents concurrently and turns every outcome into an ExecutionRecord.
type Dispatcher struct {
	registry contractx.Registry
	monitor  contractx.Monitor
	metrics  *metricsx.Recorder
}

type Option func(*Dispatcher)

func WithMetrics(r *metricsx.Recorder) Option {
	return func(d *Dispatcher) { d.metrics = r }
}

func NewDispatcher(registry contractx.Registry, mon contractx.Monitor, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: registry, monitor: monitor.OrNop(mon)}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Dispatch invokes every agent in agents and waits for all of them. Each agent
// gets its own copy of req. Records come back in the order of agents, with
// repeated identifiers dispatched once.
func (d *Dispatcher) Dispatch(ctx context.Context, req contractx.Request, agents []contractx.AgentID) []contractx.ExecutionRecord {
	agents = dedupe(agents)
	records := make([]contractx.ExecutionRecord, len(agents))

	var g errgroup.Group
	for i, id := range agents {
		snapshot := req.Clone()
		g.Go(func() error {
			records[i] = d.invoke(ctx, snapshot, id)
			return nil
		})
	}
	_ = g.Wait()

	return records
}

func (d *Dispatcher) invoke(ctx context.Context, req contractx.Request, id contractx.AgentID) (rec contractx.ExecutionRecord) {
	rec.Agent = id
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			rec.Success = false
			rec.Payload = nil
			rec.Err = fmt.Sprintf("%v: %v", contractx.ErrAgentPanic, r)
			d.monitor.LogError(componentDispatcher, rec.Err, map[string]any{
				"agent":      string(id),
				"request_id": req.ID,
			})
		}
		rec.Elapsed = time.Since(started)
		d.metrics.ObserveAgent(string(id), rec.Success, rec.Elapsed)
	}()

	var capability contractx.Capability
	if d.registry != nil {
		capability, _ = d.registry.Lookup(id)
	}
	if capability == nil {
		rec.Err = fmt.Errorf("%w: %s", contractx.ErrAgentNotFound, id).Error()
		d.monitor.LogError(componentDispatcher, rec.Err, map[string]any{
			"agent":      string(id),
			"request_id": req.ID,
		})
		return rec
	}

	resp, err := capability.Invoke(ctx, req)
	if err != nil {
		rec.Err = fmt.Sprintf("error running %s: %v", id, err)
		d.monitor.LogError(componentDispatcher, rec.Err, map[string]any{
			"agent":      string(id),
			"request_id": req.ID,
		})
		return rec
	}

	rec.Success = true
	rec.Payload = resp
	return rec
}

func dedupe(agents []contractx.AgentID) []contractx.AgentID {
	seen := make(map[contractx.AgentID]struct{}, len(agents))
	out := make([]contractx.AgentID, 0, len(agents))
	for _, id := range agents {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
