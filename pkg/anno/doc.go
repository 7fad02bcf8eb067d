// Package anno provides the shared data model for annotation pipelines.
//
// Every value flowing through a pipeline implements the DataItem interface,
// which only requires a unique identifier. Annotations add a label, the set
// of pipeline keys they were produced under, and a container of attributes.
// Data items are kept in a Store so that documents and provenance tracers
// can share them by uid instead of copying them around.
//
// The package also defines OperationDescription, the self-description every
// operation exposes for provenance, and a Registry used to rebuild
// serialized values polymorphically from their class name tag.
package anno
