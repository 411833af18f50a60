package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.TrackEnqueued("lofi")
	m.RefillFailed("lofi", ReasonNoTrack)
	m.CommandProcessed("play")
	m.SetQueueDepth("lofi", 1)
	m.SetPlaying(true)
	m.Tick()
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.TrackEnqueued("lofi")
	m.TrackEnqueued("lofi")
	m.RefillFailed("background", ReasonDirectoryUnavailable)
	m.SetPlaying(true)

	if got := testutil.ToFloat64(m.tracksEnqueued.WithLabelValues("lofi")); got != 2 {
		t.Errorf("tracks_enqueued_total{lofi} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.refillFailures.WithLabelValues("background", ReasonDirectoryUnavailable)); got != 1 {
		t.Errorf("refill_failures_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.playing); got != 1 {
		t.Errorf("playing = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.CommandProcessed("pause")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `lullaby_commands_total{command="pause"} 1`) {
		t.Errorf("metrics output missing command counter:\n%s", body)
	}
}

func TestServerServesMetrics(t *testing.T) {
	m := NewMetrics()
	m.Tick()

	srv, err := Listen("127.0.0.1:0", m, zerolog.Nop())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "lullaby_controller_ticks_total 1") {
		t.Errorf("missing tick counter:\n%s", body)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Serve: %v", err)
	}
}
