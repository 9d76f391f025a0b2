// Package metrics exposes run statistics in the Prometheus text format.
//
// Families are assembled directly as client_model protobufs and encoded with
// expfmt, so the server carries no global registry.
package metrics

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/rallypc/pccalc/pkg/timing"
)

// Run results used as the "result" label of pccalc_runs_total.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder accumulates the statistics of every computed report.
// Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	runs map[string]float64

	files      float64
	bibs       float64
	sections   float64
	overlaps   float64
	duplicates float64
	skipped    float64

	lastRun      float64
	lastDuration float64
	observed     bool
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{runs: map[string]float64{ResultSuccess: 0, ResultFailure: 0}}
}

// Observe records one run that produced r and took elapsed.
// Gauges describing report contents only move on successful runs.
func (m *Recorder) Observe(r *timing.Report, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observed = true
	m.lastDuration = elapsed.Seconds()
	if r.CalculatedAt.IsZero() {
		m.lastRun = float64(time.Now().UnixNano()) / 1e9
	} else {
		m.lastRun = float64(r.CalculatedAt.UnixNano()) / 1e9
	}

	if !r.Success {
		m.runs[ResultFailure]++
		return
	}
	m.runs[ResultSuccess]++
	m.files = float64(r.FileCount)
	m.bibs = float64(len(r.BibRecords))
	m.sections = float64(len(r.Sections))
	m.overlaps = float64(len(r.Overlaps))
	m.duplicates = float64(len(r.Duplicates))
	m.skipped = float64(r.SkippedFiles())
}

// Families returns a point-in-time snapshot of all metric families, sorted by
// name.
func (m *Recorder) Families() []*dto.MetricFamily {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]string, 0, len(m.runs))
	for k := range m.runs {
		results = append(results, k)
	}
	sort.Strings(results)
	runs := &dto.MetricFamily{
		Name: proto.String("pccalc_runs_total"),
		Help: proto.String("Completed report computations by result."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, res := range results {
		runs.Metric = append(runs.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String("result"), Value: proto.String(res)}},
			Counter: &dto.Counter{Value: proto.Float64(m.runs[res])},
		})
	}

	out := []*dto.MetricFamily{
		runs,
		gauge("pccalc_files", "Input files seen by the last successful run.", m.files),
		gauge("pccalc_bibs", "Bib records in the last successful report.", m.bibs),
		gauge("pccalc_sections", "Sections in the last successful report.", m.sections),
		gauge("pccalc_overlaps", "File overlaps in the last successful report.", m.overlaps),
		gauge("pccalc_duplicates", "Duplicate crossings in the last successful report.", m.duplicates),
		gauge("pccalc_skipped_files", "Files dropped from the last successful report.", m.skipped),
	}
	if m.observed {
		out = append(out,
			gauge("pccalc_last_run_timestamp_seconds", "Unix time of the last run.", m.lastRun),
			gauge("pccalc_last_run_duration_seconds", "Wall time of the last run.", m.lastDuration),
		)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}

// ServeHTTP writes all families in the format negotiated from the Accept
// header.
func (m *Recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	format := expfmt.Negotiate(r.Header)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range m.Families() {
		if err := enc.Encode(mf); err != nil {
			slog.Error("metrics: encode failed", "family", mf.GetName(), "err", err)
			return
		}
	}
}
