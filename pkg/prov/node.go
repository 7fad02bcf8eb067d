package prov

// Node describes how one data item came to exist: the operation that
// produced it and the items it was derived from. DerivedIDs is the
// reciprocal link, maintained by the graph. A node with an empty
// OperationID is a stub: the item was used as a source before anything was
// known about its own origin.
type Node struct {
	DataItemID  string
	OperationID string
	SourceIDs   []string
	DerivedIDs  []string
}

// IsStub reports whether the node describes an item of unknown origin.
func (n *Node) IsStub() bool {
	return n.OperationID == ""
}

// ToDict serializes the node to a data dict.
func (n *Node) ToDict() map[string]any {
	return map[string]any{
		"data_item_id": n.DataItemID,
		"operation_id": n.OperationID,
		"source_ids":   n.SourceIDs,
		"derived_ids":  n.DerivedIDs,
	}
}
