package anno_test

import (
	"github.com/annokit/annokit/pkg/anno"
)

type mockAnnotation struct {
	uid   string
	label string
	keys  []string
	attrs *anno.AttributeContainer
}

func newMockAnnotation(label string, keys ...string) *mockAnnotation {
	return &mockAnnotation{
		uid:   anno.NewUID(),
		label: label,
		keys:  keys,
		attrs: anno.NewAttributeContainer(),
	}
}

func (m *mockAnnotation) UID() string {
	return m.uid
}

func (m *mockAnnotation) Label() string {
	return m.label
}

func (m *mockAnnotation) Keys() []string {
	return m.keys
}

func (m *mockAnnotation) AddKey(key string) {
	for _, existing := range m.keys {
		if existing == key {
			return
		}
	}
	m.keys = append(m.keys, key)
}

func (m *mockAnnotation) Attrs() *anno.AttributeContainer {
	return m.attrs
}

var _ anno.Annotation = (*mockAnnotation)(nil)
