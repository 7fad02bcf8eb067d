package text

import (
	"github.com/annokit/annokit/pkg/anno"
)

const (
	spanClassName         = "Span"
	modifiedSpanClassName = "ModifiedSpan"
)

// AnySpan is a slice of annotation text, either a direct reference to a
// portion of the original document text or a fragment introduced by a text
// transformation.
type AnySpan interface {
	Len() int
	ToDict() (map[string]any, error)
}

// Span references a slice of the original document text. Start is the
// offset of the first character, End the offset of the last character plus
// one.
type Span struct {
	Start int
	End   int
}

// Len returns the number of characters the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether two spans reference at least one character in
// common.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && s.End > other.Start
}

// ToDict serializes the span to a data dict tagged with its class name.
func (s Span) ToDict() (map[string]any, error) {
	data := map[string]any{
		"start": s.Start,
		"end":   s.End,
	}

	err := anno.SetClassName(data, spanClassName)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// SpanFromDict rebuilds a span from a data dict produced by ToDict.
func SpanFromDict(data map[string]any) (Span, error) {
	err := anno.CheckClassName(data, spanClassName)
	if err != nil {
		return Span{}, err
	}

	start, err := intEntry(data, "start")
	if err != nil {
		return Span{}, err
	}

	end, err := intEntry(data, "end")
	if err != nil {
		return Span{}, err
	}

	return Span{Start: start, End: end}, nil
}

// ModifiedSpan stands for a slice of text not present in the original
// document text, introduced by a replacement or an insertion.
// ReplacedSpans keeps track of the original slices the new text stands for.
type ModifiedSpan struct {
	Length        int
	ReplacedSpans []Span
}

// Len returns the number of characters the span covers.
func (s ModifiedSpan) Len() int {
	return s.Length
}

// ToDict serializes the span to a data dict tagged with its class name.
func (s ModifiedSpan) ToDict() (map[string]any, error) {
	replaced := make([]map[string]any, 0, len(s.ReplacedSpans))
	for _, span := range s.ReplacedSpans {
		spanData, err := span.ToDict()
		if err != nil {
			return nil, err
		}

		replaced = append(replaced, spanData)
	}

	data := map[string]any{
		"length":         s.Length,
		"replaced_spans": replaced,
	}

	err := anno.SetClassName(data, modifiedSpanClassName)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// ModifiedSpanFromDict rebuilds a modified span from a data dict produced
// by ToDict.
func ModifiedSpanFromDict(data map[string]any) (ModifiedSpan, error) {
	err := anno.CheckClassName(data, modifiedSpanClassName)
	if err != nil {
		return ModifiedSpan{}, err
	}

	length, err := intEntry(data, "length")
	if err != nil {
		return ModifiedSpan{}, err
	}

	replacedDicts, err := dictEntries(data, "replaced_spans")
	if err != nil {
		return ModifiedSpan{}, err
	}

	var replaced []Span
	for _, spanData := range replacedDicts {
		span, err := SpanFromDict(spanData)
		if err != nil {
			return ModifiedSpan{}, err
		}

		replaced = append(replaced, span)
	}

	return ModifiedSpan{Length: length, ReplacedSpans: replaced}, nil
}

// spanRegistry rebuilds spans from data dicts, dispatching on the class
// name tag.
var spanRegistry = anno.NewRegistry[AnySpan]()

func init() {
	err := spanRegistry.Register(spanClassName, func(data map[string]any) (AnySpan, error) {
		return SpanFromDict(data)
	})
	if err != nil {
		panic(err)
	}

	err = spanRegistry.Register(modifiedSpanClassName, func(data map[string]any) (AnySpan, error) {
		return ModifiedSpanFromDict(data)
	})
	if err != nil {
		panic(err)
	}
}

// AnySpanFromDict rebuilds a span of any concrete type from a data dict,
// dispatching on the class name the dict was tagged with.
func AnySpanFromDict(data map[string]any) (AnySpan, error) {
	return spanRegistry.Decode(data)
}

var (
	_ AnySpan = Span{}
	_ AnySpan = ModifiedSpan{}
)
