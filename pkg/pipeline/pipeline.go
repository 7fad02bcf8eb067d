package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/annokit/annokit/pkg/anno"
	"github.com/annokit/annokit/pkg/pipeline/measure"
	"github.com/annokit/annokit/pkg/prov"
)

// Pipeline chains processing operations together through input and output
// keys.
//
// Steps run strictly in the order in which they are declared, there is no
// dependency detection mechanism. Each run starts from a fresh key to data
// mapping, so a pipeline can be reused across calls.
type Pipeline struct {
	Steps      []Step
	InputKeys  []string
	OutputKeys []string

	uid       string
	name      string
	measure   measure.Measure
	tracer    *prov.Tracer
	subTracer *prov.Tracer
}

var (
	_ PipelineOperation = (*Pipeline)(nil)
	_ ProvCompatible    = (*Pipeline)(nil)
)

// New creates a pipeline running steps in order, feeding them from the given
// input keys and collecting the given output keys. Every output key must
// match an output key produced by some step.
func New(steps []Step, inputKeys, outputKeys []string, opts ...Option) *Pipeline {
	p := &Pipeline{
		Steps:      steps,
		InputKeys:  inputKeys,
		OutputKeys: outputKeys,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.uid == "" {
		p.uid = anno.NewUID()
	}

	return p
}

// UID returns the pipeline identifier.
func (p *Pipeline) UID() string {
	return p.uid
}

// Description returns the provenance description of the pipeline, with the
// wiring of its steps as configuration.
func (p *Pipeline) Description() anno.OperationDescription {
	name := p.name
	if name == "" {
		name = "Pipeline"
	}

	steps := make([]map[string]any, len(p.Steps))
	for i, step := range p.Steps {
		steps[i] = step.ToDict()
	}

	return anno.OperationDescription{
		UID:    p.uid,
		Name:   name,
		Config: map[string]any{"steps": steps},
	}
}

// SetProvTracer enables provenance tracing. The per operation details are
// recorded in an internal tracer sharing the store of tracer, and attributed
// as a whole to the pipeline when a run completes.
func (p *Pipeline) SetProvTracer(tracer *prov.Tracer) {
	p.tracer = tracer
	p.subTracer = prov.NewTracer(prov.WithStore(tracer.Store()))

	for _, step := range p.Steps {
		if op, ok := step.Operation.(ProvCompatible); ok {
			op.SetProvTracer(p.subTracer)
		}
	}
}

// Run executes all the steps in order and returns one output slice per
// declared output key, or nil when the pipeline declares no output key.
//
// It expects one input slice per declared input key. The context is handed
// over to the operations untouched, the engine itself has no cancellation
// point.
func (p *Pipeline) Run(ctx context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	if len(inputs) != len(p.InputKeys) {
		return nil, errors.Errorf("Number of input data lists (%d) does not match number of pipeline input keys (%d)",
			len(inputs), len(p.InputKeys))
	}

	start := time.Now()

	dataByKey := make(map[string][]anno.DataItem, len(p.InputKeys))
	for i, key := range p.InputKeys {
		dataByKey[key] = inputs[i]
	}

	for _, step := range p.Steps {
		if err := p.performStep(ctx, step, dataByKey); err != nil {
			return nil, err
		}
	}

	outputs := make([][]anno.DataItem, 0, len(p.OutputKeys))
	for _, key := range p.OutputKeys {
		data, ok := dataByKey[key]
		if !ok {
			return nil, errors.Errorf("No data found for output key %s", key)
		}
		outputs = append(outputs, data)
	}

	if p.tracer != nil {
		if err := p.addProv(outputs); err != nil {
			return nil, err
		}
	}

	if p.measure != nil {
		p.measure.SetTotalDuration(time.Since(start))
	}

	if len(outputs) == 0 {
		return nil, nil
	}

	return outputs, nil
}

func (p *Pipeline) performStep(ctx context.Context, step Step, dataByKey map[string][]anno.DataItem) error {
	inputs := make([][]anno.DataItem, 0, len(step.InputKeys))
	for _, key := range step.InputKeys {
		data, err := p.inputDataForKey(dataByKey, key)
		if err != nil {
			return err
		}
		inputs = append(inputs, data)
	}

	opName := step.Operation.Description().Name

	stepStart := time.Now()
	outputs, err := step.Operation.Run(ctx, inputs...)
	if err != nil {
		return errors.Wrapf(err, "unable to run operation %s", opName)
	}
	if p.measure != nil {
		p.measure.Metric(opName).AddDuration(time.Since(stepStart))
	}

	if len(outputs) != len(step.OutputKeys) {
		return errors.Errorf("Number of outputs (%d) does not match number of output keys (%d)",
			len(outputs), len(step.OutputKeys))
	}

	for i, key := range step.OutputKeys {
		// append rather than overwrite, several steps may feed the same key
		dataByKey[key] = append(dataByKey[key], outputs[i]...)
		for _, item := range outputs[i] {
			if ann, ok := item.(anno.Annotation); ok {
				ann.AddKey(key)
			}
		}
	}

	return nil
}

func (p *Pipeline) inputDataForKey(dataByKey map[string][]anno.DataItem, key string) ([]anno.DataItem, error) {
	data, ok := dataByKey[key]
	if !ok {
		msg := fmt.Sprintf("No data found for input key %s", key)
		if p.keyIsStepOutput(key) {
			msg += " Did you add the steps in the correct order in the pipeline?"
		}

		return nil, errors.New(msg)
	}

	return data, nil
}

func (p *Pipeline) keyIsStepOutput(key string) bool {
	for _, step := range p.Steps {
		if containsKey(step.OutputKeys, key) {
			return true
		}
	}

	return false
}

// addProv registers the data items returned by the whole run with the outer
// tracer, attributed to the pipeline itself. Attributes added to the
// returned items by in place operations are registered as well, when the
// internal tracer knows them.
func (p *Pipeline) addProv(outputs [][]anno.DataItem) error {
	var items []anno.DataItem
	for _, output := range outputs {
		items = append(items, output...)
	}

	// the slice grows while iterating, attributes attached to collected
	// attributes are picked up too
	for i := 0; i < len(items); i++ {
		holder, ok := items[i].(anno.AttributeHolder)
		if !ok {
			continue
		}
		for _, attr := range holder.Attrs().All() {
			if p.subTracer.HasProv(attr.UID()) {
				items = append(items, attr)
			}
		}
	}

	return p.tracer.AddProvFromSubTracer(items, p.Description(), p.subTracer)
}

// CheckSanity validates the key wiring of the pipeline without running it.
func (p *Pipeline) CheckSanity() error {
	for _, key := range p.InputKeys {
		if !p.keyIsStepInput(key) {
			return errors.Errorf("Pipeline input key %s does not correspond to any step input key", key)
		}
	}

	for _, key := range p.OutputKeys {
		if !p.keyIsStepOutput(key) {
			return errors.Errorf("Pipeline output key %s does not correspond to any step output key", key)
		}
	}

	availableKeys := make([]string, 0, len(p.InputKeys))
	availableKeys = append(availableKeys, p.InputKeys...)

	for _, step := range p.Steps {
		for _, key := range step.InputKeys {
			if containsKey(availableKeys, key) {
				continue
			}
			if p.keyIsStepOutput(key) {
				return errors.Errorf("Step input key %s is not available yet at this step", key)
			}

			return errors.Errorf("Step input key %s does not correspond to any step output key nor any pipeline input key", key)
		}
		availableKeys = append(availableKeys, step.OutputKeys...)
	}

	return nil
}

func (p *Pipeline) keyIsStepInput(key string) bool {
	for _, step := range p.Steps {
		if containsKey(step.InputKeys, key) {
			return true
		}
	}

	return false
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}

	return false
}
