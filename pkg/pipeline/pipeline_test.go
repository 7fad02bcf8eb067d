package pipeline_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annokit/annokit/pkg/pipeline"
	"github.com/annokit/annokit/pkg/pipeline/measure"
)

func TestPipelineSingleStep(t *testing.T) {
	t.Parallel()

	uppercaserOp := newUppercaser("uppercased_sentence")
	steps := []pipeline.Step{
		{Operation: uppercaserOp, InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"})

	sentenceSegs := newSentenceSegments()
	outputs, err := p.Run(context.Background(), asDataItems(sentenceSegs))
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	expected := make([]string, 0, len(sentenceTexts))
	for _, text := range sentenceTexts {
		expected = append(expected, strings.ToUpper(text))
	}
	assert.Equal(t, expected, segmentTexts(t, outputs[0]))
}

func TestPipelineMultipleSteps(t *testing.T) {
	t.Parallel()

	prefix := "Hello! "
	steps := []pipeline.Step{
		{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
		{Operation: newPrefixer("prefixed_uppercased_sentence", prefix), InputKeys: []string{"UPPERCASE"}, OutputKeys: []string{"PREFIX"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"PREFIX"})

	outputs, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	expected := make([]string, 0, len(sentenceTexts))
	for _, text := range sentenceTexts {
		expected = append(expected, prefix+strings.ToUpper(text))
	}
	assert.Equal(t, expected, segmentTexts(t, outputs[0]))
}

func TestPipelineMultipleStepsWithSameOutputKey(t *testing.T) {
	t.Parallel()

	// 2 steps writing to the same output key, a 3d step reading it
	prefix1 := "Hello! "
	prefix2 := "Hi! "
	steps := []pipeline.Step{
		{Operation: newPrefixer("prefixed_sentence", prefix1), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"PREFIX"}},
		{Operation: newPrefixer("prefixed_sentence", prefix2), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"PREFIX"}},
		{Operation: newUppercaser("uppercased_prefixed_sentence"), InputKeys: []string{"PREFIX"}, OutputKeys: []string{"UPPERCASE"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"})

	outputs, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	expected := make([]string, 0, 2*len(sentenceTexts))
	for _, text := range sentenceTexts {
		expected = append(expected, strings.ToUpper(prefix1+text))
	}
	for _, text := range sentenceTexts {
		expected = append(expected, strings.ToUpper(prefix2+text))
	}
	assert.Equal(t, expected, segmentTexts(t, outputs[0]))
}

func TestPipelineMultipleStepsWithSameInputKey(t *testing.T) {
	t.Parallel()

	prefix1 := "Hello! "
	prefix2 := "Hi! "
	steps := []pipeline.Step{
		{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
		{Operation: newPrefixer("prefixed_uppercased_sentence_1", prefix1), InputKeys: []string{"UPPERCASE"}, OutputKeys: []string{"PREFIX_1"}},
		{Operation: newPrefixer("prefixed_uppercased_sentence_2", prefix2), InputKeys: []string{"UPPERCASE"}, OutputKeys: []string{"PREFIX_2"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"PREFIX_1", "PREFIX_2"})

	outputs, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	expected1 := make([]string, 0, len(sentenceTexts))
	expected2 := make([]string, 0, len(sentenceTexts))
	for _, text := range sentenceTexts {
		expected1 = append(expected1, prefix1+strings.ToUpper(text))
		expected2 = append(expected2, prefix2+strings.ToUpper(text))
	}
	assert.Equal(t, expected1, segmentTexts(t, outputs[0]))
	assert.Equal(t, expected2, segmentTexts(t, outputs[1]))
}

func TestPipelineStepWithMultipleOutputs(t *testing.T) {
	t.Parallel()

	prefix := "Hello! "
	steps := []pipeline.Step{
		{Operation: newHalfSplitter("split_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"SPLIT_LEFT", "SPLIT_RIGHT"}},
		{Operation: newUppercaser("uppercased_left_sentence"), InputKeys: []string{"SPLIT_LEFT"}, OutputKeys: []string{"UPPERCASE"}},
		{Operation: newPrefixer("prefixed_right_sentence", prefix), InputKeys: []string{"SPLIT_RIGHT"}, OutputKeys: []string{"PREFIX"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE", "PREFIX"})

	outputs, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	expectedLeft := make([]string, 0, len(sentenceTexts))
	expectedRight := make([]string, 0, len(sentenceTexts))
	for _, text := range sentenceTexts {
		half := len(text) / 2
		expectedLeft = append(expectedLeft, strings.ToUpper(text[:half]))
		expectedRight = append(expectedRight, prefix+text[half:])
	}
	assert.Equal(t, expectedLeft, segmentTexts(t, outputs[0]))
	assert.Equal(t, expectedRight, segmentTexts(t, outputs[1]))
}

func TestPipelineStepWithMultipleInputs(t *testing.T) {
	t.Parallel()

	prefix := "Hello! "
	steps := []pipeline.Step{
		{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
		{Operation: newPrefixer("prefixed_sentence", prefix), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"PREFIX"}},
		{Operation: newPairMerger("merged_sentence"), InputKeys: []string{"UPPERCASE", "PREFIX"}, OutputKeys: []string{"MERGE"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"MERGE"})

	outputs, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	expected := make([]string, 0, len(sentenceTexts))
	for _, text := range sentenceTexts {
		expected = append(expected, strings.ToUpper(text)+prefix+text)
	}
	assert.Equal(t, expected, segmentTexts(t, outputs[0]))
}

func TestPipelineStepWithNoOutput(t *testing.T) {
	t.Parallel()

	steps := []pipeline.Step{
		{Operation: newAttributeAdder("validated"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{})

	sentenceSegs := newSentenceSegments()
	outputs, err := p.Run(context.Background(), asDataItems(sentenceSegs))
	require.NoError(t, err)
	assert.Nil(t, outputs)

	// the input segments were modified in place
	for _, segment := range sentenceSegs {
		attrs := segment.Attrs().All()
		require.Len(t, attrs, 1)
		assert.Equal(t, "validated", attrs[0].Label)
		assert.Equal(t, true, attrs[0].Value)
	}
}

func TestPipelineStepWithDifferentOutputLength(t *testing.T) {
	t.Parallel()

	// 1st step returns a different number of items than it received
	steps := []pipeline.Step{
		{Operation: newKeywordMatcher("entities", []string{"sentence", "another"}), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"KEYWORD_MATCH"}},
		{Operation: newUppercaser("uppercased_entities"), InputKeys: []string{"KEYWORD_MATCH"}, OutputKeys: []string{"UPPERCASE"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"})

	outputs, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Len(t, outputs[0], 4)
}

func TestPipelineNested(t *testing.T) {
	t.Parallel()

	prefix1 := "Hi! "
	subSteps := []pipeline.Step{
		{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
		{Operation: newPrefixer("prefixed_uppercased_sentence", prefix1), InputKeys: []string{"UPPERCASE"}, OutputKeys: []string{"PREFIX"}},
	}
	subPipeline := pipeline.New(subSteps, []string{"SENTENCE"}, []string{"PREFIX"})

	prefix2 := "Hello! "
	steps := []pipeline.Step{
		{Operation: newPrefixer("prefixed_sentence", prefix2), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"PREFIX"}},
		{Operation: subPipeline, InputKeys: []string{"PREFIX"}, OutputKeys: []string{"SUB_PIPELINE"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"SUB_PIPELINE"})

	outputs, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	expected := make([]string, 0, len(sentenceTexts))
	for _, text := range sentenceTexts {
		expected = append(expected, prefix1+strings.ToUpper(prefix2+text))
	}
	assert.Equal(t, expected, segmentTexts(t, outputs[0]))
}

func TestPipelineStampsOutputKeys(t *testing.T) {
	t.Parallel()

	steps := []pipeline.Step{
		{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"})

	outputs, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	for _, item := range outputs[0] {
		segment := item.(*textSegment)
		assert.Equal(t, []string{"UPPERCASE"}, segment.Keys())
	}
}

func TestPipelineRunErrors(t *testing.T) {
	t.Parallel()

	t.Run("input count mismatch", func(t *testing.T) {
		t.Parallel()

		steps := []pipeline.Step{
			{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
		}
		p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"})

		items := asDataItems(newSentenceSegments())
		_, err := p.Run(context.Background(), items, items)
		require.EqualError(t, err, "Number of input data lists (2) does not match number of pipeline input keys (1)")
	})

	t.Run("missing input key", func(t *testing.T) {
		t.Parallel()

		steps := []pipeline.Step{
			{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"WRONG_KEY"}, OutputKeys: []string{"UPPERCASE"}},
		}
		p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"})

		_, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
		require.EqualError(t, err, "No data found for input key WRONG_KEY")
	})

	t.Run("missing input key produced by a later step", func(t *testing.T) {
		t.Parallel()

		steps := []pipeline.Step{
			{Operation: newPrefixer("prefixed_uppercased_sentence", "Hello! "), InputKeys: []string{"UPPERCASE"}, OutputKeys: []string{"PREFIX"}},
			{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
		}
		p := pipeline.New(steps, []string{"SENTENCE"}, []string{"PREFIX"})

		_, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
		require.EqualError(t, err, "No data found for input key UPPERCASE Did you add the steps in the correct order in the pipeline?")
	})

	t.Run("output count mismatch", func(t *testing.T) {
		t.Parallel()

		steps := []pipeline.Step{
			{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE", "EXTRA"}},
		}
		p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"})

		_, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
		require.EqualError(t, err, "Number of outputs (1) does not match number of output keys (2)")
	})

	t.Run("missing output key", func(t *testing.T) {
		t.Parallel()

		steps := []pipeline.Step{
			{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
		}
		p := pipeline.New(steps, []string{"SENTENCE"}, []string{"MISSING"})

		_, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
		require.EqualError(t, err, "No data found for output key MISSING")
	})

	t.Run("operation error", func(t *testing.T) {
		t.Parallel()

		steps := []pipeline.Step{
			{Operation: newFailer(), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
		}
		p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"})

		_, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "unable to run operation Failer")
	})
}

func TestPipelineCheckSanity(t *testing.T) {
	t.Parallel()

	uppercaserOp := newUppercaser("uppercased_sentence")
	prefixerOp := newPrefixer("prefixed_uppercased_sentence", "prefix ")

	steps := []pipeline.Step{
		{Operation: uppercaserOp, InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
		{Operation: prefixerOp, InputKeys: []string{"UPPERCASE"}, OutputKeys: []string{"PREFIX"}},
	}
	reversedSteps := []pipeline.Step{steps[1], steps[0]}
	wrongInputSteps := []pipeline.Step{
		steps[0],
		{Operation: prefixerOp, InputKeys: []string{"WRONG_KEY"}, OutputKeys: []string{"PREFIX"}},
	}

	tcs := map[string]struct {
		steps       []pipeline.Step
		inputKeys   []string
		outputKeys  []string
		expectedErr string
	}{
		"valid": {
			steps:      steps,
			inputKeys:  []string{"SENTENCE"},
			outputKeys: []string{"PREFIX"},
		},
		"unknown pipeline input key": {
			steps:       steps,
			inputKeys:   []string{"WRONG_KEY"},
			outputKeys:  []string{"PREFIX"},
			expectedErr: "Pipeline input key WRONG_KEY does not correspond to any step input key",
		},
		"unknown pipeline output key": {
			steps:       steps,
			inputKeys:   []string{"SENTENCE"},
			outputKeys:  []string{"WRONG_KEY"},
			expectedErr: "Pipeline output key WRONG_KEY does not correspond to any step output key",
		},
		"unknown step input key": {
			steps:       wrongInputSteps,
			inputKeys:   []string{"SENTENCE"},
			outputKeys:  []string{"PREFIX"},
			expectedErr: "Step input key WRONG_KEY does not correspond to any step output key nor any pipeline input key",
		},
		"step input key not available yet": {
			steps:       reversedSteps,
			inputKeys:   []string{"SENTENCE"},
			outputKeys:  []string{"PREFIX"},
			expectedErr: "Step input key UPPERCASE is not available yet at this step",
		},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := pipeline.New(tc.steps, tc.inputKeys, tc.outputKeys)
			err := p.CheckSanity()
			if tc.expectedErr == "" {
				require.NoError(t, err)

				return
			}
			require.EqualError(t, err, tc.expectedErr)
		})
	}
}

func TestPipelineDescription(t *testing.T) {
	t.Parallel()

	uppercaserOp := newUppercaser("uppercased_sentence")
	steps := []pipeline.Step{
		{Operation: uppercaserOp, InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
	}

	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"})
	desc := p.Description()
	assert.Equal(t, p.UID(), desc.UID)
	assert.Equal(t, "Pipeline", desc.Name)

	stepDicts, ok := desc.Config["steps"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, stepDicts, 1)
	assert.Equal(t, uppercaserOp.uid, stepDicts[0]["operation"])
	assert.Equal(t, []string{"SENTENCE"}, stepDicts[0]["input_keys"])
	assert.Equal(t, []string{"UPPERCASE"}, stepDicts[0]["output_keys"])

	named := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"},
		pipeline.WithName("SentencePipeline"), pipeline.WithUID("fixed-uid"))
	desc = named.Description()
	assert.Equal(t, "fixed-uid", desc.UID)
	assert.Equal(t, "SentencePipeline", desc.Name)
}

func TestPipelineMeasure(t *testing.T) {
	t.Parallel()

	m := measure.NewDefaultMeasure()
	steps := []pipeline.Step{
		{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
		{Operation: newPrefixer("prefixed_uppercased_sentence", "Hello! "), InputKeys: []string{"UPPERCASE"}, OutputKeys: []string{"PREFIX"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"PREFIX"}, pipeline.WithMeasure(m))

	_, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)

	assert.Equal(t, int64(1), m.Metric("Uppercaser").Count())
	assert.Equal(t, int64(1), m.Metric("Prefixer").Count())
	assert.Greater(t, m.GetTotalDuration(), time.Duration(0))

	// a second run accumulates
	_, err = p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.Metric("Uppercaser").Count())
}

func TestPipelineRunIsStateless(t *testing.T) {
	t.Parallel()

	steps := []pipeline.Step{
		{Operation: newUppercaser("uppercased_sentence"), InputKeys: []string{"SENTENCE"}, OutputKeys: []string{"UPPERCASE"}},
	}
	p := pipeline.New(steps, []string{"SENTENCE"}, []string{"UPPERCASE"})

	outputs1, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)
	outputs2, err := p.Run(context.Background(), asDataItems(newSentenceSegments()))
	require.NoError(t, err)

	// no key state survives between runs
	assert.Len(t, outputs1[0], len(sentenceTexts))
	assert.Len(t, outputs2[0], len(sentenceTexts))
}
