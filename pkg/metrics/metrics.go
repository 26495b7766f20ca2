package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/nakabonne/tstorage"
)

const (
	MetricAPIRequestMs  = "api_request_ms"
	MetricAPIRequestErr = "api_request_error"
	MetricExportFiles   = "export_files"
)

var (
	mu      sync.RWMutex
	storage tstorage.Storage
)

// InitMetrics opens the embedded time-series store under the workdir.
// Recording is a no-op until this has been called.
func InitMetrics(workdir string) error {
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
	)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = s
	mu.Unlock()
	return nil
}

// Close flushes and closes the metrics store
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}

func insert(metric, resource string, value float64) {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return
	}
	_ = s.InsertRows([]tstorage.Row{
		{
			Metric: metric,
			Labels: []tstorage.Label{{Name: "resource", Value: resource}},
			DataPoint: tstorage.DataPoint{
				Timestamp: time.Now().Unix(),
				Value:     value,
			},
		},
	})
}

// RecordAPIRequest records one backend call latency sample
func RecordAPIRequest(resource string, elapsed time.Duration, failed bool) {
	insert(MetricAPIRequestMs, resource, float64(elapsed.Milliseconds()))
	if failed {
		insert(MetricAPIRequestErr, resource, 1)
	}
}

// RecordExport records how many files one export run produced
func RecordExport(files int) {
	insert(MetricExportFiles, "orders", float64(files))
}

// Summary aggregates latency samples for one resource
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean_ms"`
	P95   float64 `json:"p95_ms"`
}

// LatencySummary aggregates api_request_ms samples for the resource
// over the trailing window. An empty window yields a zero summary.
func LatencySummary(resource string, window time.Duration) Summary {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return Summary{}
	}
	end := time.Now().Unix()
	start := end - int64(window.Seconds())
	points, err := s.Select(MetricAPIRequestMs, []tstorage.Label{{Name: "resource", Value: resource}}, start, end)
	if err != nil || len(points) == 0 {
		return Summary{}
	}
	vals := make([]float64, 0, len(points))
	for _, p := range points {
		vals = append(vals, p.Value)
	}
	mean, _ := stats.Mean(vals)
	p95, _ := stats.Percentile(vals, 95)
	return Summary{Count: len(vals), Mean: mean, P95: p95}
}
