package pipeline

import "github.com/annokit/annokit/pkg/pipeline/measure"

type Option func(p *Pipeline)

// WithName sets the name used in the pipeline operation description.
func WithName(name string) Option {
	return func(p *Pipeline) {
		p.name = name
	}
}

// WithUID sets the pipeline identifier instead of generating one.
func WithUID(uid string) Option {
	return func(p *Pipeline) {
		p.uid = uid
	}
}

// WithMeasure records per operation durations into m on each run.
func WithMeasure(m measure.Measure) Option {
	return func(p *Pipeline) {
		p.measure = m
	}
}
