package metric

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_SetClientState(t *testing.T) {
	r := NewRegistry()

	r.SetClientState("running")
	r.SetClientState("paused")

	tests := []struct {
		state string
		want  float64
	}{
		{"running", 0},
		{"paused", 1},
		{"close_requested", 0},
		{"closed", 0},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(r.ClientState.WithLabelValues(tt.state)); got != tt.want {
			t.Errorf("client_state{state=%q} = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	r.IncReconnects()
	r.IncReconnects()
	r.IncSessionEvent("StateExpired")
	r.IncCallbackPanics()
	r.SetBufferedTasks(7)

	if got := testutil.ToFloat64(r.Reconnects); got != 2 {
		t.Errorf("reconnects_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.SessionEvents.WithLabelValues("StateExpired")); got != 1 {
		t.Errorf("session_events_total{StateExpired} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.CallbackPanics); got != 1 {
		t.Errorf("callback_panics_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.BufferedTasks); got != 7 {
		t.Errorf("pool_buffered_tasks = %v, want 7", got)
	}
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.IncReconnects()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "zkmesh_reconnects_total 1") {
		t.Errorf("metrics output missing reconnects counter:\n%s", body)
	}
	if !strings.Contains(string(body), "zkmesh_build_info{") {
		t.Error("metrics output missing build info")
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("metrics output missing Go runtime collector")
	}
}

type staticSource Stats

func (s staticSource) MetricStats() Stats { return Stats(s) }

func TestCollector(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewCollector(staticSource{
		Connected:       true,
		PoolRunning:     2,
		WatchedPaths:    3,
		EventsDelivered: 10,
		EventsDropped:   1,
	}))

	expected := `
# HELP zkmesh_connected Whether the client holds a live session.
# TYPE zkmesh_connected gauge
zkmesh_connected 1
# HELP zkmesh_watched_paths Paths with at least one registered callback.
# TYPE zkmesh_watched_paths gauge
zkmesh_watched_paths 3
`
	err := testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected),
		"zkmesh_connected", "zkmesh_watched_paths")
	if err != nil {
		t.Error(err)
	}

	if n := testutil.CollectAndCount(NewCollector(staticSource{})); n != 5 {
		t.Errorf("CollectAndCount() = %d, want 5", n)
	}
}
