package text

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultMaxGapLength is the gap size under which CleanUpGaps merges two
// neighbouring spans.
const DefaultMaxGapLength = 3

// Replace replaces parts of a text and recomputes its associated spans.
// Ranges are expressed in current text offsets, end excluded, and must be
// sorted by ascending order. One replacement text is consumed per range.
func Replace(text string, spans []AnySpan, ranges [][2]int, replacementTexts []string) (string, []AnySpan, error) {
	err := checkSpansMatchText(text, spans)
	if err != nil {
		return "", nil, err
	}

	if len(ranges) != len(replacementTexts) {
		return "", nil, errors.Errorf("got %d ranges but %d replacement texts", len(ranges), len(replacementTexts))
	}

	err = checkRanges(text, ranges)
	if err != nil {
		return "", nil, err
	}

	if len(ranges) == 0 {
		return text, spans, nil
	}

	var replaced strings.Builder
	replacementLengths := make([]int, len(ranges))
	last := 0
	for i, r := range ranges {
		replaced.WriteString(text[last:r[0]])
		replaced.WriteString(replacementTexts[i])
		replacementLengths[i] = len(replacementTexts[i])
		last = r[1]
	}
	replaced.WriteString(text[last:])

	return replaced.String(), replaceInSpans(spans, ranges, replacementLengths), nil
}

// Remove removes parts of a text and recomputes its associated spans.
// Ranges are expressed in current text offsets, end excluded, and must be
// sorted by ascending order.
func Remove(text string, spans []AnySpan, ranges [][2]int) (string, []AnySpan, error) {
	err := checkSpansMatchText(text, spans)
	if err != nil {
		return "", nil, err
	}

	err = checkRanges(text, ranges)
	if err != nil {
		return "", nil, err
	}

	if len(ranges) == 0 {
		return text, spans, nil
	}

	var remaining strings.Builder
	last := 0
	for _, r := range ranges {
		remaining.WriteString(text[last:r[0]])
		last = r[1]
	}
	remaining.WriteString(text[last:])

	return remaining.String(), removeInSpans(spans, ranges), nil
}

// Extract extracts parts of a text along with their associated spans. The
// extracted parts are concatenated in range order. Ranges are expressed in
// current text offsets, end excluded, and must be sorted by ascending
// order.
func Extract(text string, spans []AnySpan, ranges [][2]int) (string, []AnySpan, error) {
	err := checkSpansMatchText(text, spans)
	if err != nil {
		return "", nil, err
	}

	err = checkRanges(text, ranges)
	if err != nil {
		return "", nil, err
	}

	if len(ranges) == 0 {
		return "", nil, nil
	}

	var extracted strings.Builder
	for _, r := range ranges {
		extracted.WriteString(text[r[0]:r[1]])
	}

	return extracted.String(), extractInSpans(spans, ranges), nil
}

// Insert inserts strings in a text and recomputes its associated spans.
// Positions are expressed in current text offsets and must be sorted by
// ascending order. One insertion text is consumed per position.
func Insert(text string, spans []AnySpan, positions []int, insertionTexts []string) (string, []AnySpan, error) {
	err := checkSpansMatchText(text, spans)
	if err != nil {
		return "", nil, err
	}

	if len(positions) != len(insertionTexts) {
		return "", nil, errors.Errorf("got %d positions but %d insertion texts", len(positions), len(insertionTexts))
	}

	err = checkPositions(text, positions)
	if err != nil {
		return "", nil, err
	}

	if len(positions) == 0 {
		return text, spans, nil
	}

	var inserted strings.Builder
	ranges := make([][2]int, len(positions))
	insertionLengths := make([]int, len(positions))
	last := 0
	for i, position := range positions {
		inserted.WriteString(text[last:position])
		inserted.WriteString(insertionTexts[i])
		ranges[i] = [2]int{position, position}
		insertionLengths[i] = len(insertionTexts[i])
		last = position
	}
	inserted.WriteString(text[last:])

	return inserted.String(), replaceInSpans(spans, ranges, insertionLengths), nil
}

// NormalizeSpans projects spans back onto the original text offsets: every
// modified span is expanded to the spans it replaced, the result is sorted
// by start offset and contiguous spans are merged.
func NormalizeSpans(spans []AnySpan) []Span {
	var all []Span
	for _, span := range spans {
		switch span := span.(type) {
		case Span:
			all = append(all, span)
		case ModifiedSpan:
			all = append(all, span.ReplacedSpans...)
		}
	}

	if len(all) == 0 {
		return nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Start < all[j].Start
	})

	merged := []Span{all[0]}
	for _, span := range all[1:] {
		prev := merged[len(merged)-1]
		if span.Start == prev.End {
			merged[len(merged)-1] = Span{Start: prev.Start, End: span.End}
		} else {
			merged = append(merged, span)
		}
	}

	return merged
}

// CleanUpGaps merges normalized spans separated by small gaps. A gap is
// small when its text, stripped of leading and trailing whitespace, holds
// at most maxGapLength characters. Useful to turn non-contiguous spans
// whose gaps only hold whitespace or a few meaningless characters into one
// bigger span. The text is the original text the spans refer to.
func CleanUpGaps(spans []Span, text string, maxGapLength int) []Span {
	if len(spans) == 0 {
		return nil
	}

	merged := []Span{spans[0]}
	for _, span := range spans[1:] {
		prev := merged[len(merged)-1]
		gap := text[prev.End:span.Start]
		if len(strings.TrimSpace(gap)) <= maxGapLength {
			merged[len(merged)-1] = Span{Start: prev.Start, End: span.End}
		} else {
			merged = append(merged, span)
		}
	}

	return merged
}

// replaceInSpans walks spans and ranges in lockstep, both expressed in
// current text offsets. Parts of spans covered by a range are folded into a
// ModifiedSpan carrying the replacement length, or dropped when the
// replacement is empty. Span offsets are relative: spanStart and spanEnd
// track the position of the current span in the current text, comparable
// with range offsets.
func replaceInSpans(spans []AnySpan, ranges [][2]int, replacementLengths []int) []AnySpan {
	var output []AnySpan

	spanIndex := 0
	var span AnySpan
	spanStart, spanEnd := 0, 0
	if len(spans) > 0 {
		span = spans[0]
		spanEnd = span.Len()
	}

	rangeIndex := 0
	rangeStart, rangeEnd := ranges[0][0], ranges[0][1]
	replacementLength := replacementLengths[0]
	var replacedSpans []Span

	for spanIndex < len(spans) || rangeIndex < len(ranges) {
		// the current range has been fully handled, emit the modified span
		// referencing all the replaced parts and move to the next range
		if rangeIndex < len(ranges) && rangeEnd <= spanStart {
			if replacementLength > 0 {
				output = append(output, ModifiedSpan{Length: replacementLength, ReplacedSpans: replacedSpans})
			}

			rangeIndex++
			if rangeIndex < len(ranges) {
				rangeStart, rangeEnd = ranges[rangeIndex][0], ranges[rangeIndex][1]
				replacementLength = replacementLengths[rangeIndex]
				replacedSpans = nil
			}
		}

		// the current span has been fully handled or does not reach the
		// current range, emit it untouched and move to the next span
		if spanEnd == spanStart || rangeIndex == len(ranges) || spanEnd <= rangeStart {
			if spanEnd != spanStart {
				output = append(output, span)
			}

			spanIndex++
			spanStart = spanEnd
			if spanIndex < len(spans) {
				span = spans[spanIndex]
				spanEnd = spanStart + span.Len()
			}

			continue
		}

		// the span overlaps the range, split it around the overlap
		lengthBeforeRange := rangeStart - spanStart
		if lengthBeforeRange < 0 {
			lengthBeforeRange = 0
		}
		lengthAfterRange := spanEnd - rangeEnd
		if lengthAfterRange < 0 {
			lengthAfterRange = 0
		}

		if replacementLength > 0 && lengthBeforeRange+lengthAfterRange < span.Len() {
			switch span := span.(type) {
			case Span:
				replacedSpans = append(replacedSpans, Span{Start: span.Start + lengthBeforeRange, End: span.End - lengthAfterRange})
			case ModifiedSpan:
				// the sub part of the replaced spans covered by the overlap
				// cannot be known, keep a reference to all of them
				replacedSpans = append(replacedSpans, span.ReplacedSpans...)
			}
		}

		if lengthBeforeRange > 0 {
			switch span := span.(type) {
			case Span:
				output = append(output, Span{Start: span.Start, End: span.Start + lengthBeforeRange})
			case ModifiedSpan:
				output = append(output, ModifiedSpan{Length: lengthBeforeRange, ReplacedSpans: span.ReplacedSpans})
			}
		}

		// the part after the range becomes the current span
		if lengthAfterRange > 0 {
			switch sp := span.(type) {
			case Span:
				span = Span{Start: sp.End - lengthAfterRange, End: sp.End}
			case ModifiedSpan:
				span = ModifiedSpan{Length: lengthAfterRange, ReplacedSpans: sp.ReplacedSpans}
			}
		}

		spanStart = spanEnd - lengthAfterRange
	}

	return output
}

func removeInSpans(spans []AnySpan, ranges [][2]int) []AnySpan {
	return replaceInSpans(spans, ranges, make([]int, len(ranges)))
}

// extractInSpans keeps the parts of spans covered by ranges, by removing
// the complement ranges.
func extractInSpans(spans []AnySpan, ranges [][2]int) []AnySpan {
	totalLength := 0
	for _, span := range spans {
		totalLength += span.Len()
	}

	rangesToRemove := make([][2]int, 0, len(ranges)+1)
	rangesToRemove = append(rangesToRemove, [2]int{0, ranges[0][0]})
	for i := 1; i < len(ranges); i++ {
		rangesToRemove = append(rangesToRemove, [2]int{ranges[i-1][1], ranges[i][0]})
	}
	rangesToRemove = append(rangesToRemove, [2]int{ranges[len(ranges)-1][1], totalLength})

	return removeInSpans(spans, rangesToRemove)
}

func checkSpansMatchText(text string, spans []AnySpan) error {
	total := 0
	for _, span := range spans {
		total += span.Len()
	}

	if total != len(text) {
		return errors.Errorf("total span length (%d) does not match text length (%d)", total, len(text))
	}

	return nil
}

func checkRanges(text string, ranges [][2]int) error {
	for i, r := range ranges {
		if r[0] > len(text) || r[1] > len(text) {
			return errors.Errorf("range (%d, %d) is out of text bounds", r[0], r[1])
		}

		if i > 0 {
			prev := ranges[i-1]
			if r[0] < prev[0] || (r[0] == prev[0] && r[1] < prev[1]) {
				return errors.New("ranges are not sorted by ascending order")
			}
		}
	}

	return nil
}

func checkPositions(text string, positions []int) error {
	for i, position := range positions {
		if position > len(text) {
			return errors.Errorf("position %d is out of text bounds", position)
		}

		if i > 0 && position < positions[i-1] {
			return errors.New("positions are not sorted by ascending order")
		}
	}

	return nil
}
