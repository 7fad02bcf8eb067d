package measure

import "time"

type Measure interface {
	Metric(name string) Metric
	AllMetrics() map[string]Metric
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
}

type Metric interface {
	AddDuration(elapsed time.Duration)
	Count() int64
	AVGDuration() time.Duration
	TotalDuration() time.Duration
}
