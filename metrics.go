package spindecay

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Metrics collects job statistics of a pool.
type Metrics struct {
	mu                 sync.RWMutex
	WorkerCount        int
	JobCount           int64
	FailedJobs         int64
	SchedulingFailures int64
	TotalJobTime       time.Duration
	AverageJobLatency  time.Duration
	P95JobLatency      time.Duration
	P99JobLatency      time.Duration

	// sliding window of recent latencies, in seconds
	latencies  []float64
	windowSize int
}

func newMetrics() *Metrics {
	return &Metrics{
		latencies:  make([]float64, 0, 1000),
		windowSize: 1000,
	}
}

func (m *Metrics) recordJobExecution(startTime time.Time, success bool) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalJobTime += duration
	m.JobCount++
	if !success {
		m.FailedJobs++
	}

	m.AverageJobLatency = m.TotalJobTime / time.Duration(m.JobCount)
	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) recordSchedulingFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SchedulingFailures++
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.latencies = append(m.latencies, duration.Seconds())
	if len(m.latencies) > m.windowSize {
		m.latencies = m.latencies[1:]
	}

	sorted := append([]float64(nil), m.latencies...)
	sort.Float64s(sorted)

	m.P95JobLatency = seconds(stat.Quantile(0.95, stat.Empirical, sorted, nil))
	m.P99JobLatency = seconds(stat.Quantile(0.99, stat.Empirical, sorted, nil))
}

// ExportMetrics returns a snapshot suitable for logging.
func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"worker_count":        m.WorkerCount,
		"job_count":           m.JobCount,
		"failed_jobs":         m.FailedJobs,
		"scheduling_failures": m.SchedulingFailures,
		"avg_latency":         m.AverageJobLatency.Milliseconds(),
		"p95_latency":         m.P95JobLatency.Milliseconds(),
		"p99_latency":         m.P99JobLatency.Milliseconds(),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
