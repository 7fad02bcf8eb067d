package anno

import "github.com/pkg/errors"

const attributeClassName = "Attribute"

// Attribute is a piece of information attached to an annotation, for
// instance a negation flag on a segment or a normalization code on an
// entity.
type Attribute struct {
	uid string

	Label    string
	Value    any
	Metadata map[string]any
}

// AttributeOption configures an attribute at construction.
type AttributeOption func(a *Attribute)

// AttributeUID sets the attribute uid instead of generating one.
func AttributeUID(uid string) AttributeOption {
	return func(a *Attribute) {
		a.uid = uid
	}
}

// AttributeMetadata sets free-form metadata on the attribute.
func AttributeMetadata(metadata map[string]any) AttributeOption {
	return func(a *Attribute) {
		a.Metadata = metadata
	}
}

// NewAttribute creates an attribute with a fresh uid unless AttributeUID
// is supplied.
func NewAttribute(label string, value any, opts ...AttributeOption) *Attribute {
	attr := &Attribute{
		Label:    label,
		Value:    value,
		Metadata: map[string]any{},
	}
	for _, opt := range opts {
		opt(attr)
	}

	if attr.uid == "" {
		attr.uid = NewUID()
	}

	return attr
}

func (a *Attribute) UID() string {
	return a.uid
}

// Copy returns a new attribute carrying the same label, value and metadata
// under a fresh uid. Useful to duplicate an attribute onto another
// annotation.
func (a *Attribute) Copy() *Attribute {
	return &Attribute{
		uid:      NewUID(),
		Label:    a.Label,
		Value:    a.Value,
		Metadata: a.Metadata,
	}
}

// ToDict serializes the attribute to a data dict tagged with its class
// name.
func (a *Attribute) ToDict() (map[string]any, error) {
	data := map[string]any{
		"uid":      a.uid,
		"label":    a.Label,
		"value":    a.Value,
		"metadata": a.Metadata,
	}

	err := SetClassName(data, attributeClassName)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// AttributeFromDict rebuilds an attribute from a data dict produced by
// ToDict.
func AttributeFromDict(data map[string]any) (*Attribute, error) {
	err := CheckClassName(data, attributeClassName)
	if err != nil {
		return nil, err
	}

	uid, ok := data["uid"].(string)
	if !ok {
		return nil, errors.New("data dict has no string entry for key uid")
	}

	label, ok := data["label"].(string)
	if !ok {
		return nil, errors.New("data dict has no string entry for key label")
	}

	metadata, _ := data["metadata"].(map[string]any)

	return &Attribute{
		uid:      uid,
		Label:    label,
		Value:    data["value"],
		Metadata: metadata,
	}, nil
}

var _ DataItem = (*Attribute)(nil)
