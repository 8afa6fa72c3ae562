// Package metrics tracks how long each processing stage takes per frame.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// DefaultWindow is how many recent samples are kept per operation.
const DefaultWindow = 256

// Summary describes the retained samples of one operation, in milliseconds.
type Summary struct {
	Operation string
	Count     int
	MeanMs    float64
	MedianMs  float64
	P95Ms     float64
	MaxMs     float64
}

type Tracker struct {
	timings map[string][]float64
	window  int
	mu      sync.RWMutex
}

func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		timings: make(map[string][]float64),
		window:  window,
	}
}

// Start returns a function that records the elapsed time under operation.
func (tt *Tracker) Start(operation string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		tt.Record(operation, d)
		return d
	}
}

func (tt *Tracker) Record(operation string, d time.Duration) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	samples := append(tt.timings[operation], float64(d)/float64(time.Millisecond))
	if len(samples) > tt.window {
		samples = samples[len(samples)-tt.window:]
	}
	tt.timings[operation] = samples
}

func (tt *Tracker) Summary(operation string) (Summary, bool) {
	tt.mu.RLock()
	samples := append([]float64(nil), tt.timings[operation]...)
	tt.mu.RUnlock()

	if len(samples) == 0 {
		return Summary{Operation: operation}, false
	}

	data := stats.Float64Data(samples)
	// errors only occur on empty input, ruled out above
	mean, _ := data.Mean()
	median, _ := data.Median()
	p95, _ := data.Percentile(95)
	maxMs, _ := data.Max()

	return Summary{
		Operation: operation,
		Count:     len(samples),
		MeanMs:    mean,
		MedianMs:  median,
		P95Ms:     p95,
		MaxMs:     maxMs,
	}, true
}

// Summaries returns one summary per recorded operation, sorted by name.
func (tt *Tracker) Summaries() []Summary {
	tt.mu.RLock()
	ops := make([]string, 0, len(tt.timings))
	for op := range tt.timings {
		ops = append(ops, op)
	}
	tt.mu.RUnlock()
	sort.Strings(ops)

	out := make([]Summary, 0, len(ops))
	for _, op := range ops {
		if s, ok := tt.Summary(op); ok {
			out = append(out, s)
		}
	}
	return out
}

// Fields flattens the summaries for structured logging.
func (tt *Tracker) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	for _, s := range tt.Summaries() {
		fields[s.Operation+"_mean_ms"] = s.MeanMs
		fields[s.Operation+"_median_ms"] = s.MedianMs
		fields[s.Operation+"_p95_ms"] = s.P95Ms
		fields[s.Operation+"_max_ms"] = s.MaxMs
	}
	return fields
}

// Reset drops every retained sample so the next summary covers a fresh period.
func (tt *Tracker) Reset() {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.timings = make(map[string][]float64)
}
