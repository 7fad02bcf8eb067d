package anno

import "github.com/pkg/errors"

// AnnotationContainer manages the annotations attached to one document.
// The annotations themselves live in a Store shared with provenance; the
// container only keeps uid indexes, by label and by pipeline output key,
// in insertion order.
type AnnotationContainer[A Annotation] struct {
	store      Store
	docUID     string
	annIDs     []string
	annIDSet   map[string]struct{}
	idsByLabel map[string][]string
	idsByKey   map[string][]string
}

// NewAnnotationContainer creates a container for the document with the
// given uid, backed by the given store.
func NewAnnotationContainer[A Annotation](docUID string, store Store) *AnnotationContainer[A] {
	return &AnnotationContainer[A]{
		store:      store,
		docUID:     docUID,
		annIDSet:   make(map[string]struct{}),
		idsByLabel: make(map[string][]string),
		idsByKey:   make(map[string][]string),
	}
}

// Add attaches an annotation to the document and stores it. Attaching the
// same uid twice is an error.
func (c *AnnotationContainer[A]) Add(ann A) error {
	uid := ann.UID()
	if _, ok := c.annIDSet[uid]; ok {
		return errors.Errorf("annotation with uid %s already exists in the document %s", uid, c.docUID)
	}

	c.annIDs = append(c.annIDs, uid)
	c.annIDSet[uid] = struct{}{}

	label := ann.Label()
	c.idsByLabel[label] = append(c.idsByLabel[label], uid)

	for _, key := range ann.Keys() {
		c.idsByKey[key] = append(c.idsByKey[key], uid)
	}

	c.store.StoreDataItem(ann)

	return nil
}

// Get returns the annotations with the given label, in insertion order.
func (c *AnnotationContainer[A]) Get(label string) ([]A, error) {
	return c.fetch(c.idsByLabel[label])
}

// GetByKey returns the annotations produced under the given pipeline
// output key, in insertion order.
func (c *AnnotationContainer[A]) GetByKey(key string) ([]A, error) {
	return c.fetch(c.idsByKey[key])
}

// All returns all annotations in insertion order.
func (c *AnnotationContainer[A]) All() ([]A, error) {
	return c.fetch(c.annIDs)
}

// GetByID returns the annotation with the given uid.
func (c *AnnotationContainer[A]) GetByID(uid string) (A, error) {
	var zero A

	if _, ok := c.annIDSet[uid]; !ok {
		return zero, errors.Errorf("annotation with uid %s not found in the document %s", uid, c.docUID)
	}

	anns, err := c.fetch([]string{uid})
	if err != nil {
		return zero, err
	}

	return anns[0], nil
}

// Len returns the number of attached annotations.
func (c *AnnotationContainer[A]) Len() int {
	return len(c.annIDs)
}

func (c *AnnotationContainer[A]) fetch(ids []string) ([]A, error) {
	anns := make([]A, 0, len(ids))

	for _, uid := range ids {
		item, err := c.store.DataItem(uid)
		if err != nil {
			return nil, errors.Wrap(err, "unable to resolve annotation")
		}

		ann, ok := item.(A)
		if !ok {
			return nil, errors.Errorf("data item with uid %s is not an annotation of the expected type", uid)
		}

		anns = append(anns, ann)
	}

	return anns, nil
}
