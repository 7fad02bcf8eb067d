package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/annokit/annokit/pkg/anno"
	"github.com/annokit/annokit/pkg/prov"
)

// DocPipeline wraps a Pipeline to run it on batches of documents, retrieving
// input annotations from each document and attaching output annotations back
// to the document they came from.
type DocPipeline[A anno.Annotation] struct {
	pipeline         *Pipeline
	labelsByInputKey map[string][]string
	uid              string
}

// NewDocPipeline wraps p. labelsByInputKey associates, to each pipeline
// input key, the labels of the existing document annotations to feed it
// with. Several labels may be associated to one key, their annotations are
// then concatenated in the declared label order.
func NewDocPipeline[A anno.Annotation](p *Pipeline, labelsByInputKey map[string][]string) *DocPipeline[A] {
	return &DocPipeline[A]{
		pipeline:         p,
		labelsByInputKey: labelsByInputKey,
		uid:              anno.NewUID(),
	}
}

// UID returns the doc pipeline identifier.
func (dp *DocPipeline[A]) UID() string {
	return dp.uid
}

// Description returns the provenance description of the doc pipeline.
func (dp *DocPipeline[A]) Description() anno.OperationDescription {
	return anno.OperationDescription{
		UID:    dp.uid,
		Name:   "DocPipeline",
		Config: map[string]any{"labels_by_input_key": dp.labelsByInputKey},
	}
}

// SetProvTracer enables provenance tracing on the wrapped pipeline.
func (dp *DocPipeline[A]) SetProvTracer(tracer *prov.Tracer) {
	dp.pipeline.SetProvTracer(tracer)
}

// RunOnDocs runs the wrapped pipeline on each document, adding all output
// annotations back onto the document. Documents are modified in place.
func (dp *DocPipeline[A]) RunOnDocs(ctx context.Context, docs []Document[A]) error {
	for _, doc := range docs {
		if err := dp.runOnDoc(ctx, doc); err != nil {
			return errors.Wrapf(err, "unable to process document with uid %s", doc.UID())
		}
	}

	return nil
}

func (dp *DocPipeline[A]) runOnDoc(ctx context.Context, doc Document[A]) error {
	inputs := make([][]anno.DataItem, 0, len(dp.pipeline.InputKeys))
	for _, key := range dp.pipeline.InputKeys {
		labels, ok := dp.labelsByInputKey[key]
		if !ok {
			return errors.Errorf("no labels associated to pipeline input key %s", key)
		}

		var items []anno.DataItem
		for _, label := range labels {
			anns, err := doc.Annotations(label)
			if err != nil {
				return errors.Wrapf(err, "unable to get annotations with label %s", label)
			}
			for _, ann := range anns {
				items = append(items, ann)
			}
		}
		inputs = append(inputs, items)
	}

	outputs, err := dp.pipeline.Run(ctx, inputs...)
	if err != nil {
		return err
	}

	for _, output := range outputs {
		for _, item := range output {
			ann, ok := item.(A)
			if !ok {
				return errors.Errorf("data item with uid %s is not an annotation of the expected type", item.UID())
			}
			if err := doc.AddAnnotation(ann); err != nil {
				return errors.Wrapf(err, "unable to add annotation with uid %s to document", ann.UID())
			}
		}
	}

	return nil
}

// Run implements PipelineOperation so a doc pipeline can be nested as a step
// of an outer pipeline. It expects a single input slice holding the
// documents to process and produces no output.
func (dp *DocPipeline[A]) Run(ctx context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	if len(inputs) != 1 {
		return nil, errors.Errorf("expected a single list of documents, got %d input lists", len(inputs))
	}

	docs := make([]Document[A], 0, len(inputs[0]))
	for _, item := range inputs[0] {
		doc, ok := item.(Document[A])
		if !ok {
			return nil, errors.Errorf("data item with uid %s is not a document", item.UID())
		}
		docs = append(docs, doc)
	}

	return nil, dp.RunOnDocs(ctx, docs)
}

var (
	_ PipelineOperation = (*DocPipeline[anno.Annotation])(nil)
	_ ProvCompatible    = (*DocPipeline[anno.Annotation])(nil)
)
