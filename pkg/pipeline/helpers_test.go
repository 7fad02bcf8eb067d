package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annokit/annokit/pkg/anno"
	"github.com/annokit/annokit/pkg/prov"
)

var sentenceTexts = []string{
	"This is a sentence",
	"This is another sentence",
	"This is the last sentence",
}

var altSentenceTexts = []string{
	"This is a sentence with a different label",
	"This is another sentence with a different label",
}

var entityTexts = []string{
	"Entity1",
	"Entity2",
}

// textSegment is a mock annotation carrying a text.
type textSegment struct {
	uid   string
	label string
	text  string
	keys  []string
	attrs *anno.AttributeContainer
}

func newTextSegment(label, text string) *textSegment {
	return &textSegment{
		uid:   anno.NewUID(),
		label: label,
		text:  text,
		attrs: anno.NewAttributeContainer(),
	}
}

func (s *textSegment) UID() string {
	return s.uid
}

func (s *textSegment) Label() string {
	return s.label
}

func (s *textSegment) Keys() []string {
	return s.keys
}

func (s *textSegment) AddKey(key string) {
	for _, existing := range s.keys {
		if existing == key {
			return
		}
	}
	s.keys = append(s.keys, key)
}

func (s *textSegment) Attrs() *anno.AttributeContainer {
	return s.attrs
}

var _ anno.Annotation = (*textSegment)(nil)

func newSentenceSegments() []*textSegment {
	segments := make([]*textSegment, 0, len(sentenceTexts))
	for _, text := range sentenceTexts {
		segments = append(segments, newTextSegment("sentence", text))
	}

	return segments
}

func asDataItems(segments []*textSegment) []anno.DataItem {
	items := make([]anno.DataItem, len(segments))
	for i, segment := range segments {
		items[i] = segment
	}

	return items
}

func segmentTexts(t *testing.T, items []anno.DataItem) []string {
	t.Helper()

	texts := make([]string, len(items))
	for i, item := range items {
		segment, ok := item.(*textSegment)
		require.True(t, ok)
		texts[i] = segment.text
	}

	return texts
}

// uppercaser is a mock operation uppercasing the text of its input segments.
type uppercaser struct {
	uid    string
	label  string
	tracer *prov.Tracer
}

func newUppercaser(label string) *uppercaser {
	return &uppercaser{uid: anno.NewUID(), label: label}
}

func (u *uppercaser) Description() anno.OperationDescription {
	return anno.OperationDescription{UID: u.uid, Name: "Uppercaser"}
}

func (u *uppercaser) SetProvTracer(tracer *prov.Tracer) {
	u.tracer = tracer
}

func (u *uppercaser) Run(_ context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	outputs := make([]anno.DataItem, 0, len(inputs[0]))
	for _, item := range inputs[0] {
		segment := item.(*textSegment)
		output := newTextSegment(u.label, strings.ToUpper(segment.text))
		outputs = append(outputs, output)
		if u.tracer != nil {
			if err := u.tracer.AddProv(output, u.Description(), []anno.DataItem{item}); err != nil {
				return nil, err
			}
		}
	}

	return [][]anno.DataItem{outputs}, nil
}

// prefixer is a mock operation prepending a prefix to its input segments.
type prefixer struct {
	uid    string
	label  string
	prefix string
	tracer *prov.Tracer
}

func newPrefixer(label, prefix string) *prefixer {
	return &prefixer{uid: anno.NewUID(), label: label, prefix: prefix}
}

func (p *prefixer) Description() anno.OperationDescription {
	return anno.OperationDescription{UID: p.uid, Name: "Prefixer"}
}

func (p *prefixer) SetProvTracer(tracer *prov.Tracer) {
	p.tracer = tracer
}

func (p *prefixer) Run(_ context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	outputs := make([]anno.DataItem, 0, len(inputs[0]))
	for _, item := range inputs[0] {
		segment := item.(*textSegment)
		output := newTextSegment(p.label, p.prefix+segment.text)
		outputs = append(outputs, output)
		if p.tracer != nil {
			if err := p.tracer.AddProv(output, p.Description(), []anno.DataItem{item}); err != nil {
				return nil, err
			}
		}
	}

	return [][]anno.DataItem{outputs}, nil
}

// halfSplitter is a mock operation splitting segments in two halves.
type halfSplitter struct {
	uid   string
	label string
}

func newHalfSplitter(label string) *halfSplitter {
	return &halfSplitter{uid: anno.NewUID(), label: label}
}

func (s *halfSplitter) Description() anno.OperationDescription {
	return anno.OperationDescription{UID: s.uid, Name: "HalfSplitter"}
}

func (s *halfSplitter) Run(_ context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	var left, right []anno.DataItem
	for _, item := range inputs[0] {
		segment := item.(*textSegment)
		half := len(segment.text) / 2
		left = append(left, newTextSegment(s.label, segment.text[:half]))
		right = append(right, newTextSegment(s.label, segment.text[half:]))
	}

	return [][]anno.DataItem{left, right}, nil
}

// pairMerger is a mock operation merging two segment lists pairwise.
type pairMerger struct {
	uid   string
	label string
}

func newPairMerger(label string) *pairMerger {
	return &pairMerger{uid: anno.NewUID(), label: label}
}

func (m *pairMerger) Description() anno.OperationDescription {
	return anno.OperationDescription{UID: m.uid, Name: "PairMerger"}
}

func (m *pairMerger) Run(_ context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	merged := make([]anno.DataItem, 0, len(inputs[0]))
	for i, item := range inputs[0] {
		left := item.(*textSegment)
		right := inputs[1][i].(*textSegment)
		merged = append(merged, newTextSegment(m.label, left.text+right.text))
	}

	return [][]anno.DataItem{merged}, nil
}

// keywordMatcher is a mock operation finding exact keyword matches.
type keywordMatcher struct {
	uid      string
	label    string
	keywords []string
}

func newKeywordMatcher(label string, keywords []string) *keywordMatcher {
	return &keywordMatcher{uid: anno.NewUID(), label: label, keywords: keywords}
}

func (k *keywordMatcher) Description() anno.OperationDescription {
	return anno.OperationDescription{UID: k.uid, Name: "KeywordMatcher"}
}

func (k *keywordMatcher) Run(_ context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	var entities []anno.DataItem
	for _, item := range inputs[0] {
		segment := item.(*textSegment)
		for _, keyword := range k.keywords {
			if strings.Contains(segment.text, keyword) {
				entities = append(entities, newTextSegment(k.label, keyword))
			}
		}
	}

	return [][]anno.DataItem{entities}, nil
}

// failer is a mock operation always returning an error.
type failer struct {
	uid string
}

func newFailer() *failer {
	return &failer{uid: anno.NewUID()}
}

func (f *failer) Description() anno.OperationDescription {
	return anno.OperationDescription{UID: f.uid, Name: "Failer"}
}

func (f *failer) Run(_ context.Context, _ ...[]anno.DataItem) ([][]anno.DataItem, error) {
	return nil, assert.AnError
}

// attributeAdder is a mock in place operation flagging its input segments.
type attributeAdder struct {
	uid    string
	label  string
	tracer *prov.Tracer
}

func newAttributeAdder(label string) *attributeAdder {
	return &attributeAdder{uid: anno.NewUID(), label: label}
}

func (a *attributeAdder) Description() anno.OperationDescription {
	return anno.OperationDescription{UID: a.uid, Name: "AttributeAdder"}
}

func (a *attributeAdder) SetProvTracer(tracer *prov.Tracer) {
	a.tracer = tracer
}

func (a *attributeAdder) Run(_ context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	for _, item := range inputs[0] {
		segment := item.(*textSegment)
		attr := anno.NewAttribute(a.label, true)
		if err := segment.attrs.Add(attr); err != nil {
			return nil, err
		}
		if a.tracer != nil {
			if err := a.tracer.AddProv(attr, a.Description(), []anno.DataItem{item}); err != nil {
				return nil, err
			}
		}
	}

	return nil, nil
}
