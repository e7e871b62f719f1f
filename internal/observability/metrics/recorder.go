package metrics

import (
	"sync"
	"time"
)

// Recorder is an in-memory statsd.Sink for tests.
type Recorder struct {
	mu     sync.Mutex
	Counts []Sample
}

// Sample is one recorded metric.
type Sample struct {
	Name  string
	Value float64
	Tags  map[string]string
}

func (r *Recorder) add(name string, v float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Counts = append(r.Counts, Sample{Name: name, Value: v, Tags: CloneTags(tags)})
}

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(name, float64(value), tags)
}

func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.add(name, value, tags)
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(name, float64(value.Milliseconds()), tags)
}

// Find returns the recorded samples named name.
func (r *Recorder) Find(name string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sample
	for _, s := range r.Counts {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}
