package pipeline

import "github.com/annokit/annokit/pkg/anno"

// Document is implemented by document types whose annotations can be
// processed by a DocPipeline. The engine never depends on annotation
// internals beyond their label and identifier.
type Document[A anno.Annotation] interface {
	anno.DataItem
	Annotations(label string) ([]A, error)
	AddAnnotation(ann A) error
}
