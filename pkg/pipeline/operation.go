package pipeline

import (
	"context"

	"github.com/annokit/annokit/pkg/anno"
	"github.com/annokit/annokit/pkg/prov"
)

// Operation is implemented by anything that can describe itself for
// provenance attribution.
type Operation interface {
	Description() anno.OperationDescription
}

// PipelineOperation is implemented by operations usable as a pipeline step.
//
// Run receives one input slice per declared step input key and returns one
// output slice per declared step output key. Operations modifying their
// inputs in place return a nil outer slice.
type PipelineOperation interface {
	Operation
	Run(ctx context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error)
}

// ProvCompatible is implemented by operations able to record the provenance
// of the data items they produce.
type ProvCompatible interface {
	SetProvTracer(tracer *prov.Tracer)
}
