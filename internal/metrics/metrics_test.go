package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncMutation("add_section", OutcomeApplied)
	pr.IncMutation("add_section", OutcomeApplied)
	pr.IncMutation("move", OutcomeNoop)
	pr.IncExport(OutcomeSuccess)
	pr.ObserveExportDuration(20 * time.Millisecond)
	pr.IncSectionRenderFailure("cards")
	pr.SetOpenSessions(3)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 5)

	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	require.Equal(t, 3.0, values["sitebuilder_mutations_total"])
	require.Equal(t, 1.0, values["sitebuilder_section_render_failures_total"])
	require.Equal(t, 1.0, values["sitebuilder_export_duration_seconds"])
	require.Equal(t, 3.0, values["sitebuilder_open_sessions"])
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncExport(OutcomeFailed)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `sitebuilder_exports_total{outcome="failed"} 1`)
}

func TestOrNoop(t *testing.T) {
	require.IsType(t, NoopRecorder{}, OrNoop(nil))
	pr := NewPrometheusRecorder(nil)
	require.Same(t, pr, OrNoop(pr))
}
