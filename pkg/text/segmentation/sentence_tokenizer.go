// Package segmentation splits text segments into smaller units such as
// sentences.
package segmentation

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/annokit/annokit/pkg/anno"
	"github.com/annokit/annokit/pkg/pipeline"
	"github.com/annokit/annokit/pkg/prov"
	"github.com/annokit/annokit/pkg/text"
)

// DefaultOutputLabel is the label of the sentence segments produced by a
// tokenizer unless configured otherwise.
const DefaultOutputLabel = "SENTENCE"

// DefaultPunctChars are the characters treated as sentence end punctuation
// unless configured otherwise.
var DefaultPunctChars = []rune{'\r', '\n', '.', ';', '?', '!'}

// SentenceTokenizer splits text segments into sentence segments, based on
// end punctuation characters. A trailing sentence without end punctuation
// is detected too.
type SentenceTokenizer struct {
	uid         string
	outputLabel string
	punctChars  []rune
	keepPunct   bool
	pattern     *regexp.Regexp
	tracer      *prov.Tracer
}

// Option configures a sentence tokenizer.
type Option func(*SentenceTokenizer)

// WithUID sets the operation identifier instead of generating one.
func WithUID(uid string) Option {
	return func(t *SentenceTokenizer) {
		t.uid = uid
	}
}

// WithOutputLabel sets the label of the sentence segments.
func WithOutputLabel(label string) Option {
	return func(t *SentenceTokenizer) {
		t.outputLabel = label
	}
}

// WithPunctChars sets the characters treated as sentence end punctuation.
// Removing '\r' and '\n' from the default set makes sentences span line
// breaks.
func WithPunctChars(chars []rune) Option {
	return func(t *SentenceTokenizer) {
		t.punctChars = chars
	}
}

// WithKeepPunct keeps the end punctuation characters in the sentence text.
func WithKeepPunct() Option {
	return func(t *SentenceTokenizer) {
		t.keepPunct = true
	}
}

// NewSentenceTokenizer creates a sentence tokenizer.
func NewSentenceTokenizer(opts ...Option) *SentenceTokenizer {
	tokenizer := &SentenceTokenizer{
		uid:         anno.NewUID(),
		outputLabel: DefaultOutputLabel,
		punctChars:  DefaultPunctChars,
	}

	for _, opt := range opts {
		opt(tokenizer)
	}

	tokenizer.pattern = sentencePattern(tokenizer.punctChars)

	return tokenizer
}

// sentencePattern builds the sentence detection regexp: optional leading
// blanks, the shortest possible sentence, then a run of end punctuation
// characters or the end of the text.
func sentencePattern(punctChars []rune) *regexp.Regexp {
	var class strings.Builder
	for _, char := range punctChars {
		// QuoteMeta covers every character special inside a class except '-'
		if char == '-' {
			class.WriteString(`\-`)
		} else {
			class.WriteString(regexp.QuoteMeta(string(char)))
		}
	}

	return regexp.MustCompile(`(?s)(?P<blanks> *)(?P<sentence>.+?)(?P<punctuation>[` + class.String() + `]+|$)`)
}

// Description returns the identity and configuration of the tokenizer.
func (t *SentenceTokenizer) Description() anno.OperationDescription {
	punctChars := make([]string, len(t.punctChars))
	for i, char := range t.punctChars {
		punctChars[i] = string(char)
	}

	return anno.OperationDescription{
		UID:  t.uid,
		Name: "SentenceTokenizer",
		Config: map[string]any{
			"output_label": t.outputLabel,
			"punct_chars":  punctChars,
			"keep_punct":   t.keepPunct,
		},
	}
}

// SetProvTracer enables provenance tracing on the tokenizer.
func (t *SentenceTokenizer) SetProvTracer(tracer *prov.Tracer) {
	t.tracer = tracer
}

// Tokenize returns the sentences detected in segments, one segment per
// sentence.
func (t *SentenceTokenizer) Tokenize(ctx context.Context, segments []*text.Segment) ([]*text.Segment, error) {
	var sentences []*text.Segment

	for _, segment := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := t.tokenizeSegment(segment)
		if err != nil {
			return nil, err
		}

		sentences = append(sentences, found...)
	}

	return sentences, nil
}

func (t *SentenceTokenizer) tokenizeSegment(segment *text.Segment) ([]*text.Segment, error) {
	sentenceIdx := t.pattern.SubexpIndex("sentence")
	punctIdx := t.pattern.SubexpIndex("punctuation")

	var sentences []*text.Segment

	for _, match := range t.pattern.FindAllStringSubmatchIndex(segment.Text, -1) {
		start, end := match[2*sentenceIdx], match[2*sentenceIdx+1]

		// ignore sentences holding only whitespace
		if strings.TrimSpace(segment.Text[start:end]) == "" {
			continue
		}

		if t.keepPunct {
			end = match[2*punctIdx+1]
		}

		sentenceText, spans, err := text.Extract(segment.Text, segment.Spans, [][2]int{{start, end}})
		if err != nil {
			return nil, err
		}

		sentence := text.NewSegment(t.outputLabel, sentenceText, spans)
		if t.tracer != nil {
			if err := t.tracer.AddProv(sentence, t.Description(), []anno.DataItem{segment}); err != nil {
				return nil, err
			}
		}

		sentences = append(sentences, sentence)
	}

	return sentences, nil
}

// Run implements pipeline.PipelineOperation. It expects a single input list
// holding segments and returns a single output list holding the detected
// sentences.
func (t *SentenceTokenizer) Run(ctx context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	if len(inputs) != 1 {
		return nil, errors.Errorf("expected a single list of segments, got %d input lists", len(inputs))
	}

	segments, err := text.SegmentsFromDataItems(inputs[0])
	if err != nil {
		return nil, err
	}

	sentences, err := t.Tokenize(ctx, segments)
	if err != nil {
		return nil, err
	}

	return [][]anno.DataItem{anno.AsDataItems(sentences)}, nil
}

var (
	_ pipeline.PipelineOperation = (*SentenceTokenizer)(nil)
	_ pipeline.ProvCompatible    = (*SentenceTokenizer)(nil)
)
