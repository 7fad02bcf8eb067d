package text_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annokit/annokit/pkg/anno"
	"github.com/annokit/annokit/pkg/pipeline"
	"github.com/annokit/annokit/pkg/text"
)

// documents must be consumable by doc pipelines
var _ pipeline.Document[text.Annotation] = (*text.Document)(nil)

func TestNewDocument(t *testing.T) {
	t.Parallel()

	doc := text.NewDocument("The patient has asthma.")

	assert.NotEmpty(t, doc.UID())
	assert.Equal(t, "The patient has asthma.", doc.Text())
	assert.Empty(t, doc.Metadata)

	raw := doc.RawSegment()
	assert.Equal(t, text.RawLabel, raw.Label())
	assert.Equal(t, "The patient has asthma.", raw.Text)
	assert.Equal(t, []text.AnySpan{span(0, 23)}, raw.Spans)
}

func TestNewDocumentDeterministicRawUID(t *testing.T) {
	t.Parallel()

	doc1 := text.NewDocument("some text", text.DocumentUID("doc-1"))
	doc2 := text.NewDocument("some text", text.DocumentUID("doc-1"))
	doc3 := text.NewDocument("some text", text.DocumentUID("doc-2"))

	assert.Equal(t, anno.NewDeterministicUID("doc-1"), doc1.RawSegment().UID())
	assert.Equal(t, doc1.RawSegment().UID(), doc2.RawSegment().UID())
	assert.NotEqual(t, doc1.RawSegment().UID(), doc3.RawSegment().UID())
}

func TestDocumentAddAnnotation(t *testing.T) {
	t.Parallel()

	doc := text.NewDocument("The patient has asthma.")
	sentence := text.NewSegment("sentence", "The patient has asthma", []text.AnySpan{span(0, 22)})

	require.NoError(t, doc.AddAnnotation(sentence))

	found, err := doc.Annotations("sentence")
	require.NoError(t, err)
	assert.Equal(t, []text.Annotation{sentence}, found)

	raw, err := doc.Annotations(text.RawLabel)
	require.NoError(t, err)
	assert.Equal(t, []text.Annotation{doc.RawSegment()}, raw)
}

func TestDocumentSharedStore(t *testing.T) {
	t.Parallel()

	store := anno.NewDictStore()
	doc := text.NewDocument("The patient has asthma.", text.DocumentStore(store))
	sentence := text.NewSegment("sentence", "The patient has asthma", []text.AnySpan{span(0, 22)})

	require.NoError(t, doc.AddAnnotation(sentence))

	item, err := store.DataItem(sentence.UID())
	require.NoError(t, err)
	assert.Same(t, sentence, item)
}

func TestDocumentDictRoundTrip(t *testing.T) {
	t.Parallel()

	doc := text.NewDocument("The patient has asthma and type 1 diabetes.",
		text.DocumentMetadata(map[string]any{"patient_id": "1234"}),
	)

	sentence := text.NewSegment("sentence", "The patient has asthma and type 1 diabetes", []text.AnySpan{span(0, 42)})
	disease := text.NewEntity("disease", "asthma", []text.AnySpan{span(16, 22)})
	require.NoError(t, disease.Attrs().Add(anno.NewAttribute("negation", false)))

	require.NoError(t, doc.AddAnnotation(sentence))
	require.NoError(t, doc.AddAnnotation(disease))

	data, err := doc.ToDict()
	require.NoError(t, err)

	rebuilt, err := text.DocumentFromDict(data)
	require.NoError(t, err)

	assert.Equal(t, doc.UID(), rebuilt.UID())
	assert.Equal(t, doc.Text(), rebuilt.Text())
	assert.Equal(t, doc.Metadata, rebuilt.Metadata)
	assert.Equal(t, doc.RawSegment().UID(), rebuilt.RawSegment().UID())

	all, err := rebuilt.Anns().All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	entities, err := rebuilt.Anns().Entities()
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, disease.UID(), entities[0].UID())
	require.Equal(t, 1, entities[0].Attrs().Len())
	assert.Equal(t, "negation", entities[0].Attrs().All()[0].Label)
}

func TestDocumentFromDictInvalid(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		data map[string]any
	}{
		"wrong class name": {
			data: map[string]any{"_class_name": "Segment", "uid": "u", "text": "t"},
		},
		"missing text": {
			data: map[string]any{"_class_name": "TextDocument", "uid": "u"},
		},
		"missing anns": {
			data: map[string]any{"_class_name": "TextDocument", "uid": "u", "text": "t"},
		},
	}

	for name, tc := range tcs {
		tc := tc

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := text.DocumentFromDict(tc.data)
			assert.Error(t, err)
		})
	}
}
