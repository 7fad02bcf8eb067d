// Package dot renders provenance graphs as graphviz dot documents.
//
// Every data item becomes a vertex and every derivation becomes an edge
// from source to derived item, labeled with the operation that performed
// it. Composite operations are expanded into their inner provenance up to a
// configurable depth, and annotations are linked to their attributes with
// dashed edges.
package dot

import (
	"fmt"
	"io"
	"sort"
	"text/template"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1"

	"github.com/annokit/annokit/internal/graphstore"
	"github.com/annokit/annokit/pkg/anno"
	"github.com/annokit/annokit/pkg/prov"
)

// Write renders a provenance graph as a graphviz dot document. Data items
// and operations are resolved through store, which must be the store of the
// tracer that gathered the graph.
func Write(g *prov.Graph, store anno.Store, out io.Writer, opts ...Option) error {
	cfg := config{
		dataItemFormatter: defaultDataItemFormatter,
		opFormatter:       defaultOpFormatter,
		graphAttributes:   make(map[string]string),
		maxDepth:          -1,
		attrLinks:         true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	wrt := &writer{
		cfg:      cfg,
		store:    store,
		vertices: graphstore.New[string, string](),
	}
	wrt.graph = graph.NewWithStore(graph.StringHash, wrt.vertices, graph.Directed())

	nodes := wrt.collect(g, 0)

	err := wrt.addVertices(nodes)
	if err != nil {
		return err
	}

	err = wrt.addEdges(nodes)
	if err != nil {
		return err
	}

	return wrt.render(out)
}

// WriteTracer renders the provenance gathered by a tracer.
func WriteTracer(tracer *prov.Tracer, out io.Writer, opts ...Option) error {
	return Write(tracer.Graph(), tracer.Store(), out, opts...)
}

type writer struct {
	cfg      config
	store    anno.Store
	graph    graph.Graph[string, string]
	vertices *graphstore.OrderedStore[string, string]

	// deepest level reached while collecting, for depth colors
	maxDepth int
}

// renderNode is a provenance node retained for rendering, tagged with the
// nesting depth of the graph it belongs to.
type renderNode struct {
	node  *prov.Node
	depth int
}

// collect gathers the nodes to render. Down to the configured depth, nodes
// whose operation has an attached sub-graph are replaced by the nodes of
// that sub-graph.
func (w *writer) collect(g *prov.Graph, depth int) []renderNode {
	if depth > w.maxDepth {
		w.maxDepth = depth
	}

	expand := w.cfg.maxDepth < 0 || depth < w.cfg.maxDepth

	var nodes []renderNode
	for _, node := range g.Nodes() {
		if !expand || node.IsStub() || !g.HasSubGraph(node.OperationID) {
			nodes = append(nodes, renderNode{node: node, depth: depth})
		}
	}

	if expand {
		for _, sub := range g.SubGraphs() {
			nodes = append(nodes, w.collect(sub, depth+1)...)
		}
	}

	return nodes
}

func (w *writer) addVertices(nodes []renderNode) error {
	for _, rn := range nodes {
		item, err := w.store.DataItem(rn.node.DataItemID)
		if err != nil {
			return errors.Wrap(err, "unable to get data item")
		}

		err = w.graph.AddVertex(item.UID(), graph.VertexAttribute("label", w.cfg.dataItemFormatter(item)))
		if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return errors.Wrapf(err, "unable to add vertex %s", item.UID())
		}
	}

	return nil
}

func (w *writer) addEdges(nodes []renderNode) error {
	for _, rn := range nodes {
		opLabel := "Unknown"
		if !rn.node.IsStub() {
			opDesc, err := w.store.OpDesc(rn.node.OperationID)
			if err != nil {
				return errors.Wrap(err, "unable to get operation description")
			}

			opLabel = w.cfg.opFormatter(opDesc)
		}

		edgeOpts := []func(*graph.EdgeProperties){graph.EdgeAttribute("label", opLabel)}
		if w.cfg.depthColors {
			color, err := depthColor(rn.depth, w.maxDepth)
			if err != nil {
				return err
			}

			edgeOpts = append(edgeOpts, graph.EdgeAttribute("color", color))
		}

		for _, sourceID := range rn.node.SourceIDs {
			err := w.graph.AddEdge(sourceID, rn.node.DataItemID, edgeOpts...)
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return errors.Wrapf(err, "unable to add edge from %s to %s", sourceID, rn.node.DataItemID)
			}
		}

		if w.cfg.attrLinks {
			err := w.addAttrLinks(rn.node)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// addAttrLinks draws dashed links from an annotation to its attributes.
// Attributes without provenance of their own still get a vertex.
func (w *writer) addAttrLinks(node *prov.Node) error {
	item, err := w.store.DataItem(node.DataItemID)
	if err != nil {
		return errors.Wrap(err, "unable to get data item")
	}

	holder, ok := item.(anno.AttributeHolder)
	if !ok {
		return nil
	}

	for _, attr := range holder.Attrs().All() {
		err := w.graph.AddVertex(attr.UID(), graph.VertexAttribute("label", w.cfg.dataItemFormatter(attr)))
		if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return errors.Wrapf(err, "unable to add vertex %s", attr.UID())
		}

		err = w.graph.AddEdge(item.UID(), attr.UID(),
			graph.EdgeAttribute("style", "dashed"),
			graph.EdgeAttribute("color", "grey"),
			graph.EdgeAttribute("label", "attr"),
			graph.EdgeAttribute("fontcolor", "grey"),
		)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return errors.Wrapf(err, "unable to add edge from %s to %s", item.UID(), attr.UID())
		}
	}

	return nil
}

const maxRGB = 240

// depthColor maps a nesting depth to a color on a blue to red gradient.
func depthColor(depth, maxDepth int) (string, error) {
	fraction := 0.0
	if maxDepth > 0 {
		fraction = float64(depth) / float64(maxDepth)
	}

	red := uint8(maxRGB * fraction)
	blue := uint8(maxRGB - maxRGB*fraction)

	color, err := colors.RGB(red, 0, blue)
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return color.ToHEX().String(), nil
}

const dotTemplate = `strict {{.GraphType}} {
{{- range $k, $v := .Attributes}}
	{{$k}}="{{$v}}";
{{- end}}
{{- range $s := .Statements}}
	"{{$s.Source}}"{{if $s.Target}} {{$.EdgeOperator}} "{{$s.Target}}"{{end}}{{if $s.Attributes}} [{{range $i, $a := $s.Attributes}}{{if $i}}, {{end}}{{$a.Key}}="{{$a.Value}}"{{end}}]{{end}};
{{- end}}
}
`

type description struct {
	GraphType    string
	EdgeOperator string
	Attributes   map[string]string
	Statements   []statement
}

type statement struct {
	Source     string
	Target     string
	Attributes []attribute
}

type attribute struct {
	Key   string
	Value string
}

func (w *writer) render(out io.Writer) error {
	desc, err := w.generateDOT()
	if err != nil {
		return fmt.Errorf("failed to generate DOT description: %w", err)
	}

	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	err = tpl.Execute(out, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

// generateDOT builds the template description from the vertex store, which
// keeps vertices and edges in insertion order so the output is
// deterministic.
func (w *writer) generateDOT() (description, error) {
	desc := description{
		GraphType:    "digraph",
		EdgeOperator: "->",
		Attributes:   w.cfg.graphAttributes,
		Statements:   make([]statement, 0),
	}

	ids, err := w.vertices.ListVertices()
	if err != nil {
		return desc, errors.Wrap(err, "unable to list vertices")
	}

	for _, id := range ids {
		_, properties, err := w.vertices.Vertex(id)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		desc.Statements = append(desc.Statements, statement{
			Source:     id,
			Attributes: sortAttributes(properties.Attributes),
		})
	}

	edges, err := w.vertices.ListEdges()
	if err != nil {
		return desc, errors.Wrap(err, "unable to list edges")
	}

	for _, edge := range edges {
		desc.Statements = append(desc.Statements, statement{
			Source:     edge.Source,
			Target:     edge.Target,
			Attributes: sortAttributes(edge.Properties.Attributes),
		})
	}

	return desc, nil
}

func sortAttributes(attrs map[string]string) []attribute {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sorted := make([]attribute, 0, len(keys))
	for _, key := range keys {
		sorted = append(sorted, attribute{Key: key, Value: attrs[key]})
	}

	return sorted
}
