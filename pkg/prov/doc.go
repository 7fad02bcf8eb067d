// Package prov records how data items were produced.
//
// Operations report each item they create to a Tracer, together with the
// items it was derived from. The tracer maintains a Graph of provenance
// nodes, one per item, with reciprocal source and derived links. Composite
// operations such as pipelines run their inner operations against their own
// internal tracer and then hand its whole graph to the outer tracer, which
// attaches it as a sub-graph: the outer graph only sees the composite
// operation and its true external inputs, while the inner details stay
// retrievable through sub-tracers or by flattening the graph.
package prov
