package anno_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annokit/annokit/pkg/anno"
)

func TestAsDataItems(t *testing.T) {
	t.Parallel()

	attrs := []*anno.Attribute{
		anno.NewAttribute("negation", true),
		anno.NewAttribute("severity", "high"),
	}

	items := anno.AsDataItems(attrs)

	require.Len(t, items, len(attrs))
	for i, item := range items {
		assert.Same(t, attrs[i], item)
	}
}

func TestAsDataItemsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, anno.AsDataItems([]*anno.Attribute(nil)))
}
