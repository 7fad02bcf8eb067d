package text

import (
	"github.com/pkg/errors"

	"github.com/annokit/annokit/pkg/anno"
)

const (
	segmentClassName = "Segment"
	entityClassName  = "Entity"
)

// Annotation is implemented by all annotations attached to a text document.
type Annotation interface {
	anno.Annotation

	// ToDict converts the annotation to a data dict.
	ToDict() (map[string]any, error)
}

var annotationRegistry = anno.NewRegistry[Annotation]()

func init() {
	err := annotationRegistry.Register(segmentClassName, func(data map[string]any) (Annotation, error) {
		return SegmentFromDict(data)
	})
	if err != nil {
		panic(err)
	}

	err = annotationRegistry.Register(entityClassName, func(data map[string]any) (Annotation, error) {
		return EntityFromDict(data)
	})
	if err != nil {
		panic(err)
	}
}

// AnnotationFromDict rebuilds an annotation from a data dict, dispatching on
// the class name stored in the dict.
func AnnotationFromDict(data map[string]any) (Annotation, error) {
	return annotationRegistry.Decode(data)
}

// Segment is a portion of the text of a document, along with the spans
// localizing it in the document. The text of a segment is not necessarily a
// contiguous substring of the document text: segments produced by cleaning
// or splitting operations carry modified spans pointing back to the
// document parts they came from.
type Segment struct {
	uid   string
	label string
	keys  []string
	attrs *anno.AttributeContainer

	// Text is the text carried by the segment.
	Text string
	// Spans localize the text in the document it was extracted from.
	Spans []AnySpan
	// Metadata holds arbitrary user data attached to the segment.
	Metadata map[string]any
}

// SegmentOption configures a segment created with NewSegment or NewEntity.
type SegmentOption func(*Segment)

// SegmentUID sets the uid of the segment instead of generating one.
func SegmentUID(uid string) SegmentOption {
	return func(s *Segment) {
		s.uid = uid
	}
}

// SegmentMetadata sets the metadata of the segment.
func SegmentMetadata(metadata map[string]any) SegmentOption {
	return func(s *Segment) {
		s.Metadata = metadata
	}
}

// NewSegment creates a segment with the given label, text and spans.
func NewSegment(label, text string, spans []AnySpan, opts ...SegmentOption) *Segment {
	segment := &Segment{
		uid:      anno.NewUID(),
		label:    label,
		attrs:    anno.NewAttributeContainer(),
		Text:     text,
		Spans:    spans,
		Metadata: map[string]any{},
	}

	for _, opt := range opts {
		opt(segment)
	}

	return segment
}

// UID returns the segment identifier.
func (s *Segment) UID() string {
	return s.uid
}

// Label returns the segment label.
func (s *Segment) Label() string {
	return s.label
}

// Attrs returns the attributes attached to the segment.
func (s *Segment) Attrs() *anno.AttributeContainer {
	return s.attrs
}

// Keys returns the pipeline output keys the segment was attached to.
func (s *Segment) Keys() []string {
	return s.keys
}

// AddKey marks the segment as attached to a pipeline output key.
func (s *Segment) AddKey(key string) {
	for _, k := range s.keys {
		if k == key {
			return
		}
	}

	s.keys = append(s.keys, key)
}

// Snippet returns the part of the document text the segment was extracted
// from, extended on both sides by up to maxExtendLength characters of
// surrounding context.
func (s *Segment) Snippet(doc *Document, maxExtendLength int) string {
	normalized := NormalizeSpans(s.Spans)
	if len(normalized) == 0 {
		return ""
	}

	start, end := normalized[0].Start, normalized[0].End
	for _, span := range normalized[1:] {
		if span.Start < start {
			start = span.Start
		}
		if span.End > end {
			end = span.End
		}
	}

	startExtended := start - maxExtendLength/2
	if startExtended < 0 {
		startExtended = 0
	}
	remaining := maxExtendLength - (start - startExtended)
	endExtended := end + remaining
	if endExtended > len(doc.Text()) {
		endExtended = len(doc.Text())
	}

	return doc.Text()[startExtended:endExtended]
}

// ToDict converts the segment to a data dict.
func (s *Segment) ToDict() (map[string]any, error) {
	return s.toDict(segmentClassName)
}

func (s *Segment) toDict(className string) (map[string]any, error) {
	spans := make([]map[string]any, len(s.Spans))
	for i, span := range s.Spans {
		spanDict, err := span.ToDict()
		if err != nil {
			return nil, err
		}

		spans[i] = spanDict
	}

	attrs := make([]map[string]any, s.attrs.Len())
	for i, attr := range s.attrs.All() {
		attrDict, err := attr.ToDict()
		if err != nil {
			return nil, err
		}

		attrs[i] = attrDict
	}

	data := map[string]any{
		"uid":      s.uid,
		"label":    s.label,
		"text":     s.Text,
		"spans":    spans,
		"attrs":    attrs,
		"metadata": s.Metadata,
	}

	err := anno.SetClassName(data, className)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// SegmentFromDict rebuilds a segment from a data dict.
func SegmentFromDict(data map[string]any) (*Segment, error) {
	err := anno.CheckClassName(data, segmentClassName)
	if err != nil {
		return nil, err
	}

	return segmentFromDict(data)
}

func segmentFromDict(data map[string]any) (*Segment, error) {
	uid, ok := data["uid"].(string)
	if !ok {
		return nil, errors.New("data dict has no string entry for key uid")
	}

	label, ok := data["label"].(string)
	if !ok {
		return nil, errors.New("data dict has no string entry for key label")
	}

	text, ok := data["text"].(string)
	if !ok {
		return nil, errors.New("data dict has no string entry for key text")
	}

	spanDicts, err := dictEntries(data, "spans")
	if err != nil {
		return nil, err
	}

	spans := make([]AnySpan, len(spanDicts))
	for i, spanDict := range spanDicts {
		span, err := AnySpanFromDict(spanDict)
		if err != nil {
			return nil, err
		}

		spans[i] = span
	}

	opts := []SegmentOption{SegmentUID(uid)}
	if metadata, ok := data["metadata"].(map[string]any); ok {
		opts = append(opts, SegmentMetadata(metadata))
	}

	segment := NewSegment(label, text, spans, opts...)

	attrDicts, err := dictEntries(data, "attrs")
	if err != nil {
		return nil, err
	}

	for _, attrDict := range attrDicts {
		attr, err := anno.AttributeFromDict(attrDict)
		if err != nil {
			return nil, err
		}

		err = segment.Attrs().Add(attr)
		if err != nil {
			return nil, err
		}
	}

	return segment, nil
}

// Entity is a segment holding a mention of a named entity, such as a date
// or a disorder.
type Entity struct {
	Segment
}

// NewEntity creates an entity with the given label, text and spans.
func NewEntity(label, text string, spans []AnySpan, opts ...SegmentOption) *Entity {
	return &Entity{Segment: *NewSegment(label, text, spans, opts...)}
}

// ToDict converts the entity to a data dict.
func (e *Entity) ToDict() (map[string]any, error) {
	return e.toDict(entityClassName)
}

// EntityFromDict rebuilds an entity from a data dict.
func EntityFromDict(data map[string]any) (*Entity, error) {
	err := anno.CheckClassName(data, entityClassName)
	if err != nil {
		return nil, err
	}

	segment, err := segmentFromDict(data)
	if err != nil {
		return nil, err
	}

	return &Entity{Segment: *segment}, nil
}

// SegmentsFromDataItems narrows a slice of data items received by a
// pipeline operation down to segments. Entities are narrowed to their
// embedded segment.
func SegmentsFromDataItems(items []anno.DataItem) ([]*Segment, error) {
	segments := make([]*Segment, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case *Segment:
			segments[i] = v
		case *Entity:
			segments[i] = &v.Segment
		default:
			return nil, errors.Errorf("data item with uid %s is not a segment", item.UID())
		}
	}

	return segments, nil
}

var (
	_ Annotation = (*Segment)(nil)
	_ Annotation = (*Entity)(nil)
)
