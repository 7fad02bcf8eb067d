package dot

import (
	"fmt"

	"github.com/annokit/annokit/pkg/anno"
)

// DataItemFormatter renders the display label of a data item.
type DataItemFormatter func(item anno.DataItem) string

// OpFormatter renders the display label of an operation.
type OpFormatter func(desc anno.OperationDescription) string

type config struct {
	dataItemFormatter DataItemFormatter
	opFormatter       OpFormatter
	graphAttributes   map[string]string
	maxDepth          int
	attrLinks         bool
	depthColors       bool
}

// Option configures a dot rendering.
type Option func(c *config)

// WithDataItemFormatter sets the formatter used for data item labels. The
// default formatter uses the label of annotations, label and value for
// attributes, and falls back to the uid for other items.
func WithDataItemFormatter(formatter DataItemFormatter) Option {
	return func(c *config) {
		c.dataItemFormatter = formatter
	}
}

// WithOpFormatter sets the formatter used for operation labels. The default
// formatter uses the operation name.
func WithOpFormatter(formatter OpFormatter) Option {
	return func(c *config) {
		c.opFormatter = formatter
	}
}

// WithMaxDepth limits how deep composite operations are expanded into their
// inner provenance. A depth of 0 renders only the outermost graph, with one
// edge per composite operation. Negative values remove the limit, which is
// the default.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// WithoutAttrLinks disables the dashed links drawn from annotations to
// their attributes.
func WithoutAttrLinks() Option {
	return func(c *config) {
		c.attrLinks = false
	}
}

// WithDepthColors colors operation edges according to the nesting depth of
// the graph they belong to, from blue for the outermost operations to red
// for the innermost ones.
func WithDepthColors() Option {
	return func(c *config) {
		c.depthColors = true
	}
}

// WithGraphAttribute sets a graphviz attribute on the whole graph, for
// instance rankdir to change the layout direction.
func WithGraphAttribute(key, value string) Option {
	return func(c *config) {
		c.graphAttributes[key] = value
	}
}

func defaultDataItemFormatter(item anno.DataItem) string {
	switch it := item.(type) {
	case *anno.Attribute:
		return fmt.Sprintf("%s:%v", it.Label, it.Value)
	case anno.Annotation:
		return it.Label()
	default:
		return item.UID()
	}
}

func defaultOpFormatter(desc anno.OperationDescription) string {
	return desc.Name
}
