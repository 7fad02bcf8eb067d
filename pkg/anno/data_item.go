package anno

// DataItem is anything a pipeline can process and a provenance tracer can
// track: annotations, attributes, whole documents.
type DataItem interface {
	UID() string
}

// AttributeHolder is a data item carrying attributes.
type AttributeHolder interface {
	DataItem
	Attrs() *AttributeContainer
}

// Annotation is a data item attached to a document under a label. Keys
// records the pipeline output keys the annotation was produced under.
type Annotation interface {
	AttributeHolder
	Label() string
	Keys() []string
	AddKey(key string)
}

// AsDataItems converts a slice of concrete data items to a slice of
// DataItem, as consumed and produced by pipeline operations.
func AsDataItems[T DataItem](items []T) []DataItem {
	dataItems := make([]DataItem, len(items))
	for i, item := range items {
		dataItems[i] = item
	}

	return dataItems
}
