package prov

import "github.com/pkg/errors"

var (
	// ErrNodeNotFound is returned when a graph holds no node for the
	// requested data item.
	ErrNodeNotFound = errors.New("node not found")
	// ErrSubGraphNotFound is returned when a graph holds no sub-graph for
	// the requested operation.
	ErrSubGraphNotFound = errors.New("sub graph not found")
)

// Graph is a directed acyclic graph of provenance nodes, one per data
// item. Sub-graphs describing the inner provenance of composite operations
// are attached to the graph, keyed by the uid of the composite operation.
// Nodes and sub-graphs are kept in insertion order. Graph is not safe for
// concurrent use.
type Graph struct {
	nodeIDs   []string
	nodesByID map[string]*Node

	subGraphOpIDs   []string
	subGraphsByOpID map[string]*Graph
}

// NewGraph creates a graph holding the given nodes.
func NewGraph(nodes ...*Node) *Graph {
	g := &Graph{
		nodesByID:       make(map[string]*Node),
		subGraphsByOpID: make(map[string]*Graph),
	}
	for _, node := range nodes {
		g.setNode(node)
	}

	return g
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodeIDs))
	for _, id := range g.nodeIDs {
		nodes = append(nodes, g.nodesByID[id])
	}

	return nodes
}

// Node returns the node describing the given data item.
func (g *Graph) Node(dataItemID string) (*Node, error) {
	node, ok := g.nodesByID[dataItemID]
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "data item id %s", dataItemID)
	}

	return node, nil
}

// HasNode reports whether the graph holds a node for the given data item,
// stub nodes included.
func (g *Graph) HasNode(dataItemID string) bool {
	_, ok := g.nodesByID[dataItemID]

	return ok
}

// AddNode records that a data item was created by an operation from the
// given source items. Sources unknown to the graph get stub nodes, so that
// the use of an item is recorded even when its own origin is not. If a
// stub node already exists for the data item itself, it is completed with
// the operation and sources; a completed node cannot be added twice.
func (g *Graph) AddNode(dataItemID, operationID string, sourceIDs []string) error {
	node, ok := g.nodesByID[dataItemID]
	if !ok {
		node = &Node{
			DataItemID:  dataItemID,
			OperationID: operationID,
			SourceIDs:   sourceIDs,
		}
		g.setNode(node)
	} else {
		if !node.IsStub() {
			return errors.Errorf("Node with uid %s already added to graph", dataItemID)
		}

		if len(node.SourceIDs) != 0 {
			return errors.New("Inconsistent values for stub node: operation id is empty but source ids is not empty")
		}

		node.OperationID = operationID
		node.SourceIDs = sourceIDs
	}

	// update derivation links of source nodes
	for _, sourceID := range sourceIDs {
		sourceNode, ok := g.nodesByID[sourceID]
		if !ok {
			sourceNode = &Node{DataItemID: sourceID}
			g.setNode(sourceNode)
		}

		sourceNode.DerivedIDs = append(sourceNode.DerivedIDs, dataItemID)
	}

	return nil
}

// SubGraphs returns all attached sub-graphs in registration order.
func (g *Graph) SubGraphs() []*Graph {
	subGraphs := make([]*Graph, 0, len(g.subGraphOpIDs))
	for _, opID := range g.subGraphOpIDs {
		subGraphs = append(subGraphs, g.subGraphsByOpID[opID])
	}

	return subGraphs
}

// SubGraph returns the sub-graph attached for the given composite
// operation.
func (g *Graph) SubGraph(operationID string) (*Graph, error) {
	sub, ok := g.subGraphsByOpID[operationID]
	if !ok {
		return nil, errors.Wrapf(ErrSubGraphNotFound, "operation id %s", operationID)
	}

	return sub, nil
}

// HasSubGraph reports whether a sub-graph is attached for the given
// composite operation.
func (g *Graph) HasSubGraph(operationID string) bool {
	_, ok := g.subGraphsByOpID[operationID]

	return ok
}

// AddSubGraph attaches the inner provenance graph of a composite
// operation. When a sub-graph is already attached for the operation, the
// two are merged into a new graph: existing entries keep their position,
// entries of the new graph win on duplicate ids.
func (g *Graph) AddSubGraph(operationID string, subGraph *Graph) {
	current, ok := g.subGraphsByOpID[operationID]
	if ok {
		g.subGraphsByOpID[operationID] = current.merge(subGraph)

		return
	}

	g.setSubGraph(operationID, subGraph)
}

func (g *Graph) merge(other *Graph) *Graph {
	merged := NewGraph()

	for _, id := range g.nodeIDs {
		merged.setNode(g.nodesByID[id])
	}

	for _, id := range other.nodeIDs {
		merged.setNode(other.nodesByID[id])
	}

	for _, opID := range g.subGraphOpIDs {
		merged.setSubGraph(opID, g.subGraphsByOpID[opID])
	}

	for _, opID := range other.subGraphOpIDs {
		merged.setSubGraph(opID, other.subGraphsByOpID[opID])
	}

	return merged
}

// Flatten returns a new graph with no sub-graphs. Every node whose
// operation has an attached sub-graph is replaced by the nodes of that
// sub-graph, recursively flattened. The new graph shares the nodes of the
// original.
func (g *Graph) Flatten() *Graph {
	flattened := NewGraph()

	for _, id := range g.nodeIDs {
		node := g.nodesByID[id]
		if !g.HasSubGraph(node.OperationID) {
			flattened.setNode(node)
		}
	}

	for _, opID := range g.subGraphOpIDs {
		for _, node := range g.subGraphsByOpID[opID].Flatten().Nodes() {
			flattened.setNode(node)
		}
	}

	return flattened
}

// CheckSanity verifies that no stub node has sources, that every source
// and derived id resolves to a node and that every derivation link is
// reciprocal. Attached sub-graphs are checked recursively.
func (g *Graph) CheckSanity() error {
	for _, nodeID := range g.nodeIDs {
		node := g.nodesByID[nodeID]

		if len(node.SourceIDs) > 0 && node.IsStub() {
			return errors.Errorf("Node with identifier %s has source ids but no operation", nodeID)
		}

		for _, sourceID := range node.SourceIDs {
			sourceNode, ok := g.nodesByID[sourceID]
			if !ok {
				return errors.Errorf("Source identifier %s in node with identifier %s has no corresponding node", sourceID, nodeID)
			}

			if !containsID(sourceNode.DerivedIDs, nodeID) {
				return errors.Errorf(
					"Node with identifier %s has source item with identifier %s but reciprocate derivation link does not exists",
					nodeID, sourceID,
				)
			}
		}

		for _, derivedID := range node.DerivedIDs {
			derivedNode, ok := g.nodesByID[derivedID]
			if !ok {
				return errors.Errorf("Derived identifier %s in node with identifier %s has no corresponding node", derivedID, nodeID)
			}

			if !containsID(derivedNode.SourceIDs, nodeID) {
				return errors.Errorf(
					"Node with identifier %s has derived item with identifier %s but reciprocate source link does not exists",
					nodeID, derivedID,
				)
			}
		}
	}

	for _, opID := range g.subGraphOpIDs {
		err := g.subGraphsByOpID[opID].CheckSanity()
		if err != nil {
			return err
		}
	}

	return nil
}

// ToDict serializes the graph to a data dict.
func (g *Graph) ToDict() map[string]any {
	nodes := make([]map[string]any, 0, len(g.nodeIDs))
	for _, node := range g.Nodes() {
		nodes = append(nodes, node.ToDict())
	}

	subGraphs := make(map[string]any, len(g.subGraphOpIDs))
	for _, opID := range g.subGraphOpIDs {
		subGraphs[opID] = g.subGraphsByOpID[opID].ToDict()
	}

	return map[string]any{
		"nodes":               nodes,
		"sub_graphs_by_op_id": subGraphs,
	}
}

// setNode inserts or overwrites a node. An overwritten node keeps its
// original position.
func (g *Graph) setNode(node *Node) {
	if _, ok := g.nodesByID[node.DataItemID]; !ok {
		g.nodeIDs = append(g.nodeIDs, node.DataItemID)
	}

	g.nodesByID[node.DataItemID] = node
}

func (g *Graph) setSubGraph(operationID string, subGraph *Graph) {
	if _, ok := g.subGraphsByOpID[operationID]; !ok {
		g.subGraphOpIDs = append(g.subGraphOpIDs, operationID)
	}

	g.subGraphsByOpID[operationID] = subGraph
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}

	return false
}
