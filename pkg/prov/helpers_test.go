package prov_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annokit/annokit/pkg/anno"
	"github.com/annokit/annokit/pkg/prov"
)

type textItem struct {
	uid  string
	text string
}

func newTextItem(text string) *textItem {
	return &textItem{uid: anno.NewUID(), text: text}
}

func (i *textItem) UID() string {
	return i.uid
}

func makeTextItems(count int) []*textItem {
	items := make([]*textItem, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, newTextItem("This is the text item number "+strconv.Itoa(i)+"."))
	}

	return items
}

func asDataItems(items []*textItem) []anno.DataItem {
	dataItems := make([]anno.DataItem, 0, len(items))
	for _, item := range items {
		dataItems = append(dataItems, item)
	}

	return dataItems
}

// generator is a mock operation creating text items from nothing.
type generator struct {
	tracer *prov.Tracer
	desc   anno.OperationDescription
}

func newGenerator(tracer *prov.Tracer) *generator {
	return &generator{
		tracer: tracer,
		desc:   anno.OperationDescription{UID: anno.NewUID(), Name: "Generator"},
	}
}

func (g *generator) generate(t *testing.T, count int) []*textItem {
	t.Helper()

	items := makeTextItems(count)
	if g.tracer != nil {
		for _, item := range items {
			require.NoError(t, g.tracer.AddProv(item, g.desc, nil))
		}
	}

	return items
}

// prefixer is a mock operation deriving one prefixed item per input item.
type prefixer struct {
	tracer *prov.Tracer
	desc   anno.OperationDescription
}

func newPrefixer(tracer *prov.Tracer) *prefixer {
	return &prefixer{
		tracer: tracer,
		desc:   anno.OperationDescription{UID: anno.NewUID(), Name: "Prefixer"},
	}
}

func (p *prefixer) prefix(t *testing.T, items []*textItem) []*textItem {
	t.Helper()

	prefixed := make([]*textItem, 0, len(items))
	for _, item := range items {
		prefixedItem := newTextItem("Hello! " + item.text)
		prefixed = append(prefixed, prefixedItem)

		if p.tracer != nil {
			require.NoError(t, p.tracer.AddProv(prefixedItem, p.desc, []anno.DataItem{item}))
		}
	}

	return prefixed
}

// splitter is a mock operation deriving two half items per input item.
type splitter struct {
	tracer *prov.Tracer
	desc   anno.OperationDescription
}

func newSplitter(tracer *prov.Tracer) *splitter {
	return &splitter{
		tracer: tracer,
		desc:   anno.OperationDescription{UID: anno.NewUID(), Name: "Splitter"},
	}
}

func (s *splitter) split(t *testing.T, items []*textItem) []*textItem {
	t.Helper()

	split := make([]*textItem, 0, 2*len(items))
	for _, item := range items {
		half := len(item.text) / 2
		leftItem := newTextItem(item.text[:half])
		rightItem := newTextItem(item.text[half:])
		split = append(split, leftItem, rightItem)

		if s.tracer != nil {
			require.NoError(t, s.tracer.AddProv(leftItem, s.desc, []anno.DataItem{item}))
			require.NoError(t, s.tracer.AddProv(rightItem, s.desc, []anno.DataItem{item}))
		}
	}

	return split
}

// merger is a mock operation deriving one item from all its input items.
type merger struct {
	tracer *prov.Tracer
	desc   anno.OperationDescription
}

func newMerger(tracer *prov.Tracer) *merger {
	return &merger{
		tracer: tracer,
		desc:   anno.OperationDescription{UID: anno.NewUID(), Name: "Merger"},
	}
}

func (m *merger) merge(t *testing.T, items []*textItem) *textItem {
	t.Helper()

	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, item.text)
	}

	mergedItem := newTextItem(strings.Join(texts, ""))
	if m.tracer != nil {
		require.NoError(t, m.tracer.AddProv(mergedItem, m.desc, asDataItems(items)))
	}

	return mergedItem
}
