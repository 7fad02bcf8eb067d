package text

import (
	"github.com/pkg/errors"

	"github.com/annokit/annokit/pkg/anno"
)

// AnnotationContainer manages the annotations attached to one text
// document. On top of the indexes kept by anno.AnnotationContainer it
// tracks segments and entities separately and resolves the raw segment of
// the document by its reserved label or uid.
type AnnotationContainer struct {
	*anno.AnnotationContainer[Annotation]

	rawSegment *Segment
	segmentIDs []string
	entityIDs  []string
}

// NewAnnotationContainer creates a container for the document with the
// given uid, backed by the given store. The raw segment holds the full
// document text and is not stored with the other annotations.
func NewAnnotationContainer(docUID string, rawSegment *Segment, store anno.Store) *AnnotationContainer {
	return &AnnotationContainer{
		AnnotationContainer: anno.NewAnnotationContainer[Annotation](docUID, store),
		rawSegment:          rawSegment,
	}
}

// RawSegment returns the raw segment holding the full document text.
func (c *AnnotationContainer) RawSegment() *Segment {
	return c.rawSegment
}

// Add attaches an annotation to the document and stores it. The label of
// the raw segment is reserved.
func (c *AnnotationContainer) Add(ann Annotation) error {
	if ann.Label() == c.rawSegment.Label() {
		return errors.Errorf("Cannot add annotation with reserved label %s", c.rawSegment.Label())
	}

	err := c.AnnotationContainer.Add(ann)
	if err != nil {
		return err
	}

	switch ann.(type) {
	case *Entity:
		c.entityIDs = append(c.entityIDs, ann.UID())
	case *Segment:
		c.segmentIDs = append(c.segmentIDs, ann.UID())
	}

	return nil
}

// Get returns the annotations with the given label, in insertion order.
// The label of the raw segment resolves to the raw segment itself.
func (c *AnnotationContainer) Get(label string) ([]Annotation, error) {
	if label == c.rawSegment.Label() {
		return []Annotation{c.rawSegment}, nil
	}

	return c.AnnotationContainer.Get(label)
}

// GetByID returns the annotation with the given uid. The uid of the raw
// segment resolves to the raw segment itself.
func (c *AnnotationContainer) GetByID(uid string) (Annotation, error) {
	if uid == c.rawSegment.UID() {
		return c.rawSegment, nil
	}

	return c.AnnotationContainer.GetByID(uid)
}

// Segments returns all plain segments in insertion order, entities
// excluded.
func (c *AnnotationContainer) Segments() ([]*Segment, error) {
	segments := make([]*Segment, len(c.segmentIDs))
	for i, uid := range c.segmentIDs {
		ann, err := c.GetByID(uid)
		if err != nil {
			return nil, err
		}

		segment, ok := ann.(*Segment)
		if !ok {
			return nil, errors.Errorf("data item with uid %s is not a segment", uid)
		}

		segments[i] = segment
	}

	return segments, nil
}

// Entities returns all entities in insertion order.
func (c *AnnotationContainer) Entities() ([]*Entity, error) {
	entities := make([]*Entity, len(c.entityIDs))
	for i, uid := range c.entityIDs {
		ann, err := c.GetByID(uid)
		if err != nil {
			return nil, err
		}

		entity, ok := ann.(*Entity)
		if !ok {
			return nil, errors.Errorf("data item with uid %s is not an entity", uid)
		}

		entities[i] = entity
	}

	return entities, nil
}
