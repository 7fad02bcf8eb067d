// Package measure collects per operation timings of pipeline runs.
package measure

import (
	"sync"
	"time"
)

// DefaultMeasure keeps one metric per operation name plus the duration of
// the whole run.
type DefaultMeasure struct {
	Steps map[string]Metric

	mu          *sync.Mutex
	endDuration time.Duration
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Steps: make(map[string]Metric),
		mu:    &sync.Mutex{},
	}
}

// Metric returns the metric recorded under name, creating it if needed.
func (m *DefaultMeasure) Metric(name string) Metric {
	mt, ok := m.Steps[name]
	if !ok {
		mt = &DefaultMetric{mu: &sync.Mutex{}}
		m.Steps[name] = mt
	}

	return mt
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	return m.Steps
}

func (m *DefaultMeasure) SetTotalDuration(endDuration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endDuration = endDuration
}

func (m *DefaultMeasure) GetTotalDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.endDuration
}

var _ Measure = (*DefaultMeasure)(nil)
