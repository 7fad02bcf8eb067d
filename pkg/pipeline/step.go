package pipeline

// Step describes how an operation is connected to other steps of a pipeline.
//
// InputKeys holds, for each input of the operation, the key used to retrieve
// the corresponding data items, either received by the pipeline or produced
// by an earlier step. OutputKeys holds, for each output of the operation,
// the key under which the produced items are passed to the next steps. It is
// empty when the operation modifies its inputs in place and returns nothing.
//
// Two operations are chained by using the same string as an output key of
// the first step and as an input key of the second.
type Step struct {
	Operation  PipelineOperation
	InputKeys  []string
	OutputKeys []string
}

// ToDict returns a serializable view of the step, with the operation
// replaced by its description uid.
func (s Step) ToDict() map[string]any {
	return map[string]any{
		"operation":   s.Operation.Description().UID,
		"input_keys":  s.InputKeys,
		"output_keys": s.OutputKeys,
	}
}
