package text

import (
	"github.com/pkg/errors"

	"github.com/annokit/annokit/pkg/anno"
)

// RawLabel is the reserved label of the raw segment holding the full text
// of a document.
const RawLabel = "RAW_TEXT"

const documentClassName = "TextDocument"

// Document holds a text and the annotations attached to it. The text
// itself lives in an auto-generated raw segment, so that operations can
// consume the full document like any other segment.
type Document struct {
	uid        string
	store      anno.Store
	rawSegment *Segment
	anns       *AnnotationContainer

	// Metadata holds arbitrary user data attached to the document.
	Metadata map[string]any
}

// DocumentOption configures a document created with NewDocument.
type DocumentOption func(*Document)

// DocumentUID sets the uid of the document instead of generating one.
func DocumentUID(uid string) DocumentOption {
	return func(d *Document) {
		d.uid = uid
	}
}

// DocumentStore sets the store holding the document annotations. By
// default each document gets its own in-memory store. Sharing one store
// between documents and a provenance tracer avoids holding items twice.
func DocumentStore(store anno.Store) DocumentOption {
	return func(d *Document) {
		d.store = store
	}
}

// DocumentMetadata sets the metadata of the document.
func DocumentMetadata(metadata map[string]any) DocumentOption {
	return func(d *Document) {
		d.Metadata = metadata
	}
}

// NewDocument creates a document holding the given text. The raw segment
// uid is derived from the document uid, so two documents sharing a uid
// also share their raw segment uid.
func NewDocument(text string, opts ...DocumentOption) *Document {
	doc := &Document{
		uid:      anno.NewUID(),
		Metadata: map[string]any{},
	}

	for _, opt := range opts {
		opt(doc)
	}

	if doc.store == nil {
		doc.store = anno.NewDictStore()
	}

	doc.rawSegment = newRawSegment(text, doc.uid)
	doc.anns = NewAnnotationContainer(doc.uid, doc.rawSegment, doc.store)

	return doc
}

func newRawSegment(text, docUID string) *Segment {
	return NewSegment(
		RawLabel,
		text,
		[]AnySpan{Span{Start: 0, End: len(text)}},
		SegmentUID(anno.NewDeterministicUID(docUID)),
	)
}

// UID returns the document identifier.
func (d *Document) UID() string {
	return d.uid
}

// Text returns the full text of the document.
func (d *Document) Text() string {
	return d.rawSegment.Text
}

// RawSegment returns the raw segment holding the full document text.
func (d *Document) RawSegment() *Segment {
	return d.rawSegment
}

// Anns returns the annotation container of the document.
func (d *Document) Anns() *AnnotationContainer {
	return d.anns
}

// Annotations returns the annotations with the given label, in insertion
// order. The reserved raw label resolves to the raw segment.
func (d *Document) Annotations(label string) ([]Annotation, error) {
	return d.anns.Get(label)
}

// AddAnnotation attaches an annotation to the document.
func (d *Document) AddAnnotation(ann Annotation) error {
	return d.anns.Add(ann)
}

// ToDict converts the document and all its annotations to a data dict.
func (d *Document) ToDict() (map[string]any, error) {
	anns, err := d.anns.All()
	if err != nil {
		return nil, err
	}

	annDicts := make([]map[string]any, len(anns))
	for i, ann := range anns {
		annDict, err := ann.ToDict()
		if err != nil {
			return nil, err
		}

		annDicts[i] = annDict
	}

	data := map[string]any{
		"uid":      d.uid,
		"text":     d.Text(),
		"anns":     annDicts,
		"metadata": d.Metadata,
	}

	err = anno.SetClassName(data, documentClassName)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// DocumentFromDict rebuilds a document and its annotations from a data
// dict.
func DocumentFromDict(data map[string]any) (*Document, error) {
	err := anno.CheckClassName(data, documentClassName)
	if err != nil {
		return nil, err
	}

	uid, ok := data["uid"].(string)
	if !ok {
		return nil, errors.New("data dict has no string entry for key uid")
	}

	text, ok := data["text"].(string)
	if !ok {
		return nil, errors.New("data dict has no string entry for key text")
	}

	opts := []DocumentOption{DocumentUID(uid)}
	if metadata, ok := data["metadata"].(map[string]any); ok {
		opts = append(opts, DocumentMetadata(metadata))
	}

	doc := NewDocument(text, opts...)

	annDicts, err := dictEntries(data, "anns")
	if err != nil {
		return nil, err
	}

	for _, annDict := range annDicts {
		ann, err := AnnotationFromDict(annDict)
		if err != nil {
			return nil, err
		}

		err = doc.AddAnnotation(ann)
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}
