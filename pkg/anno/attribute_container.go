package anno

import "github.com/pkg/errors"

// AttributeContainer manages the attributes attached to one annotation.
// Attributes are kept in insertion order and indexed by label.
type AttributeContainer struct {
	attrIDs    []string
	attrsByID  map[string]*Attribute
	idsByLabel map[string][]string
}

// NewAttributeContainer creates an empty container.
func NewAttributeContainer() *AttributeContainer {
	return &AttributeContainer{
		attrsByID:  make(map[string]*Attribute),
		idsByLabel: make(map[string][]string),
	}
}

// Add attaches an attribute. Attaching the same uid twice is an error.
func (c *AttributeContainer) Add(attr *Attribute) error {
	uid := attr.UID()
	if _, ok := c.attrsByID[uid]; ok {
		return errors.Errorf("Attribute with uid %s already attached to annotation", uid)
	}

	c.attrIDs = append(c.attrIDs, uid)
	c.attrsByID[uid] = attr
	c.idsByLabel[attr.Label] = append(c.idsByLabel[attr.Label], uid)

	return nil
}

// Get returns the attributes with the given label, in insertion order.
func (c *AttributeContainer) Get(label string) []*Attribute {
	return c.fetch(c.idsByLabel[label])
}

// All returns all attributes in insertion order.
func (c *AttributeContainer) All() []*Attribute {
	return c.fetch(c.attrIDs)
}

// Len returns the number of attached attributes.
func (c *AttributeContainer) Len() int {
	return len(c.attrIDs)
}

func (c *AttributeContainer) fetch(ids []string) []*Attribute {
	attrs := make([]*Attribute, 0, len(ids))
	for _, uid := range ids {
		attrs = append(attrs, c.attrsByID[uid])
	}

	return attrs
}
