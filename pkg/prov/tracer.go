package prov

import (
	"github.com/pkg/errors"

	"github.com/annokit/annokit/pkg/anno"
)

// Prov is the provenance information of one data item: the operation that
// created it (nil when unknown), the items it was derived from and the
// items derived from it.
type Prov struct {
	DataItem         anno.DataItem
	OpDesc           *anno.OperationDescription
	SourceDataItems  []anno.DataItem
	DerivedDataItems []anno.DataItem
}

// Tracer gathers provenance information about the data items produced by
// operations.
//
// Operations report each item they create with AddProv. Composite
// operations relying on inner operations must not call AddProv themselves:
// they run their inner operations against an internal tracer sharing the
// same store, then integrate it with AddProvFromSubTracer. The resulting
// nested provenance is retrievable through SubTracer and SubTracers.
type Tracer struct {
	store anno.Store
	graph *Graph
}

// TracerOption configures a tracer at construction.
type TracerOption func(t *Tracer)

// WithStore makes the tracer resolve and store data items through the
// given store. A tracer used as the internal tracer of a composite
// operation must share the store of the outer tracer.
func WithStore(store anno.Store) TracerOption {
	return func(t *Tracer) {
		t.store = store
	}
}

// NewTracer creates a tracer. Without options it owns a fresh in-memory
// store.
func NewTracer(opts ...TracerOption) *Tracer {
	tracer := &Tracer{
		graph: NewGraph(),
	}
	for _, opt := range opts {
		opt(tracer)
	}

	if tracer.store == nil {
		tracer.store = anno.NewDictStore()
	}

	return tracer
}

// newSubTracer wraps an already attached sub-graph.
func newSubTracer(store anno.Store, graph *Graph) *Tracer {
	return &Tracer{store: store, graph: graph}
}

// Store returns the store holding the traced data items.
func (t *Tracer) Store() anno.Store {
	return t.store
}

// Graph returns the underlying provenance graph.
func (t *Tracer) Graph() *Graph {
	return t.graph
}

// AddProv records that a data item was created by an operation from the
// given source items. Provenance of an item can only be added once.
func (t *Tracer) AddProv(dataItem anno.DataItem, opDesc anno.OperationDescription, sourceDataItems []anno.DataItem) error {
	if t.graph.HasNode(dataItem.UID()) {
		return errors.Errorf("Provenance of data item with id %s was already added", dataItem.UID())
	}

	t.store.StoreDataItem(dataItem)
	t.store.StoreOpDesc(opDesc)

	sourceIDs := make([]string, 0, len(sourceDataItems))
	for _, source := range sourceDataItems {
		t.store.StoreDataItem(source)
		sourceIDs = append(sourceIDs, source.UID())
	}

	return t.graph.AddNode(dataItem.UID(), opDesc.UID, sourceIDs)
}

// AddProvFromSubTracer records that data items were created by a composite
// operation whose inner operations reported to subTracer. The sub tracer's
// graph is attached under the composite operation's uid; each data item
// gets a node in the main graph attributing it directly to the composite
// operation, with the sub-graph's stub ancestors of the item (the true
// external inputs it was derived from) as sources.
func (t *Tracer) AddProvFromSubTracer(dataItems []anno.DataItem, opDesc anno.OperationDescription, subTracer *Tracer) error {
	if t.store != subTracer.store {
		return errors.New("sub tracer must share the store of the parent tracer")
	}

	t.store.StoreOpDesc(opDesc)
	t.graph.AddSubGraph(opDesc.UID, subTracer.graph)

	for _, dataItem := range dataItems {
		// items already known are ignored, this happens with attributes
		// copied from one annotation to another
		if t.graph.HasNode(dataItem.UID()) {
			node, err := t.graph.Node(dataItem.UID())
			if err != nil {
				return err
			}

			if node.OperationID != opDesc.UID {
				return errors.Errorf(
					"Trying to add provenance for sub graph for data item with id %s that already has a node, but with different operation_id",
					dataItem.UID(),
				)
			}

			continue
		}

		err := t.addProvFromSubGraph(dataItem.UID(), opDesc.UID, subTracer.graph)
		if err != nil {
			return err
		}
	}

	return nil
}

func (t *Tracer) addProvFromSubGraph(dataItemID, operationID string, subGraph *Graph) error {
	// walk the sub graph backwards, collecting the stub ancestors that are
	// the item's true external inputs
	var sourceIDs []string

	seen := map[string]struct{}{dataItemID: {}}
	queue := []string{dataItemID}

	for len(queue) > 0 {
		nodeID := queue[0]
		queue = queue[1:]

		node, err := subGraph.Node(nodeID)
		if err != nil {
			return err
		}

		if node.IsStub() {
			sourceIDs = append(sourceIDs, nodeID)
		}

		for _, sourceID := range node.SourceIDs {
			if _, ok := seen[sourceID]; ok {
				continue
			}

			seen[sourceID] = struct{}{}
			queue = append(queue, sourceID)
		}
	}

	return t.graph.AddNode(dataItemID, operationID, sourceIDs)
}

// HasProv reports whether provenance of a data item was recorded with this
// tracer. Provenance recorded only in a sub tracer is not visible here.
func (t *Tracer) HasProv(dataItemID string) bool {
	return t.graph.HasNode(dataItemID)
}

// Prov returns the provenance information of one data item.
func (t *Tracer) Prov(dataItemID string) (Prov, error) {
	node, err := t.graph.Node(dataItemID)
	if err != nil {
		return Prov{}, err
	}

	return t.buildProv(node)
}

// Provs returns the provenance information of all data items known to this
// tracer. Nested provenance from sub tracers is not included.
func (t *Tracer) Provs() ([]Prov, error) {
	nodes := t.graph.Nodes()

	provs := make([]Prov, 0, len(nodes))
	for _, node := range nodes {
		prov, err := t.buildProv(node)
		if err != nil {
			return nil, err
		}

		provs = append(provs, prov)
	}

	return provs, nil
}

// HasSubTracer reports whether the inner provenance of a composite
// operation was attached to this tracer. Tracers deeper in the hierarchy
// are not visible here.
func (t *Tracer) HasSubTracer(operationID string) bool {
	return t.graph.HasSubGraph(operationID)
}

// SubTracer returns a tracer wrapping the inner provenance of a composite
// operation, sharing the store of this tracer.
func (t *Tracer) SubTracer(operationID string) (*Tracer, error) {
	subGraph, err := t.graph.SubGraph(operationID)
	if err != nil {
		return nil, err
	}

	return newSubTracer(t.store, subGraph), nil
}

// SubTracers returns tracers wrapping the inner provenance of all directly
// attached composite operations.
func (t *Tracer) SubTracers() []*Tracer {
	subGraphs := t.graph.SubGraphs()

	subTracers := make([]*Tracer, 0, len(subGraphs))
	for _, subGraph := range subGraphs {
		subTracers = append(subTracers, newSubTracer(t.store, subGraph))
	}

	return subTracers
}

func (t *Tracer) buildProv(node *Node) (Prov, error) {
	dataItem, err := t.store.DataItem(node.DataItemID)
	if err != nil {
		return Prov{}, err
	}

	prov := Prov{DataItem: dataItem}

	if !node.IsStub() {
		opDesc, err := t.store.OpDesc(node.OperationID)
		if err != nil {
			return Prov{}, err
		}

		prov.OpDesc = &opDesc
	}

	prov.SourceDataItems = make([]anno.DataItem, 0, len(node.SourceIDs))
	for _, sourceID := range node.SourceIDs {
		source, err := t.store.DataItem(sourceID)
		if err != nil {
			return Prov{}, err
		}

		prov.SourceDataItems = append(prov.SourceDataItems, source)
	}

	prov.DerivedDataItems = make([]anno.DataItem, 0, len(node.DerivedIDs))
	for _, derivedID := range node.DerivedIDs {
		derived, err := t.store.DataItem(derivedID)
		if err != nil {
			return Prov{}, err
		}

		prov.DerivedDataItems = append(prov.DerivedDataItems, derived)
	}

	return prov, nil
}
