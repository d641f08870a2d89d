package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestRecorder() *Recorder {
	return New(Config{ProcessCollectors: false})
}

func TestObserveAgentCountsByStatus(t *testing.T) {
	t.Parallel()

	r := newTestRecorder()
	r.ObserveAgent("finance-agent", true, 20*time.Millisecond)
	r.ObserveAgent("finance-agent", false, 10*time.Millisecond)
	r.ObserveAgent("finance-agent", true, 5*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(r.agentCalls.WithLabelValues("finance-agent", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.agentCalls.WithLabelValues("finance-agent", "failure")))
	require.Equal(t, 1, testutil.CollectAndCount(r.agentLatency))
}

func TestObserveRouteAndAnalysis(t *testing.T) {
	t.Parallel()

	r := newTestRecorder()
	r.ObserveRoute("partial_failure")
	r.ObserveAnalysis("timeout")
	r.ObserveStage("analyze_query", time.Second)

	require.Equal(t, 1.0, testutil.ToFloat64(r.routes.WithLabelValues("partial_failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.analyses.WithLabelValues("timeout")))
	require.Equal(t, 1, testutil.CollectAndCount(r.stageLatency))
}

func TestNilRecorderIsNoop(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.ObserveAgent("x", true, time.Second)
	r.ObserveRoute("success")
	r.ObserveStage("x", time.Second)
	r.ObserveAnalysis("success")
	require.Nil(t, r.Registry())
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	r := newTestRecorder()
	r.ObserveRoute("success")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `bankerai_dispatch_aggregations_total{status="success"} 1`))
}
