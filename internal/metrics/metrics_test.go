package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/rallypc/pccalc/pkg/timing"
)

func scrape(t *testing.T, m *Recorder) map[string]*dto.MetricFamily {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(rec.Body)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}
	return mfs
}

func gaugeValue(t *testing.T, mfs map[string]*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf, ok := mfs[name]
	if !ok {
		t.Fatalf("family %q missing", name)
	}
	return mf.GetMetric()[0].GetGauge().GetValue()
}

func runsByResult(mfs map[string]*dto.MetricFamily) map[string]float64 {
	out := map[string]float64{}
	for _, m := range mfs["pccalc_runs_total"].GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "result" {
				out[lp.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	return out
}

func TestRecorder_Observe(t *testing.T) {
	r := timing.Compute(timing.Input{Files: map[string]string{
		"PC1START.csv":         "h\nM,START,01:00:00.00,7\nM,START,01:01:00.00,8\n",
		"PC1GOAL.csv":          "h\nM,GOAL,01:10:00.00,7\n",
		"PC1START_CO1GOAL.csv": "h\nM,X,01:00:30.00,9\n",
	}})
	r.CalculatedAt = time.Unix(1_800_000_000, 0)

	m := New()
	m.Observe(r, 250*time.Millisecond)
	m.Observe(timing.FailedReport("boom"), time.Second)

	mfs := scrape(t, m)

	runs := runsByResult(mfs)
	if runs[ResultSuccess] != 1 || runs[ResultFailure] != 1 {
		t.Errorf("runs = %v, want 1 success and 1 failure", runs)
	}
	if got := gaugeValue(t, mfs, "pccalc_files"); got != 3 {
		t.Errorf("pccalc_files = %v, want 3", got)
	}
	if got := gaugeValue(t, mfs, "pccalc_bibs"); got != 3 {
		t.Errorf("pccalc_bibs = %v, want 3", got)
	}
	if got := gaugeValue(t, mfs, "pccalc_overlaps"); got != 1 {
		t.Errorf("pccalc_overlaps = %v, want 1", got)
	}
	if got := gaugeValue(t, mfs, "pccalc_last_run_duration_seconds"); got != 1 {
		t.Errorf("last run duration = %v, want 1 (the failed run)", got)
	}
	if mfs["pccalc_runs_total"].GetType() != dto.MetricType_COUNTER {
		t.Error("pccalc_runs_total is not a counter")
	}
}

func TestRecorder_Empty(t *testing.T) {
	mfs := scrape(t, New())
	if _, ok := mfs["pccalc_last_run_timestamp_seconds"]; ok {
		t.Error("last run timestamp exported before any run")
	}
	if got := runsByResult(mfs); got[ResultSuccess] != 0 || got[ResultFailure] != 0 {
		t.Errorf("runs = %v, want zeros", got)
	}
}

func TestRecorder_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	New().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
