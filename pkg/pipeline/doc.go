// Package pipeline provides a pipeline for chaining annotation operations.
//
// A pipeline is made of steps, connecting together different operations by
// the use of input and output keys. Each operation can be seen as a node and
// the keys are its edges. Two operations are chained by using the same
// string as an output key for the first operation and as an input key to the
// second.
//
// Steps must be added in the order of execution, there isn't any sort of
// dependency detection mechanism. Execution is strictly sequential and
// synchronous; operations are free to use concurrency internally, but the
// engine never runs two steps at once. The pipeline stops on the first
// encountered error.
//
// A pipeline is itself an operation, so pipelines can be nested as steps of
// outer pipelines. When provenance tracing is enabled, each pipeline records
// the fine grained provenance of its steps in an internal tracer, and
// exposes only its own inputs and outputs to the outer tracer, keeping the
// outer provenance graph readable while the details remain reachable through
// sub graphs.
//
// DocPipeline runs a pipeline over a batch of annotated documents, gathering
// the input annotations of each document by label and attaching the produced
// annotations back to it.
package pipeline
