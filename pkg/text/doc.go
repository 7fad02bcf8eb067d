// Package text provides the data model for annotated text documents.
//
// A Document owns a raw text and a container of annotations. Segments
// reference portions of the text through spans, entities are segments
// holding a mention of something of interest. Spans always point back to
// offsets of the original document text, even after the text of a segment
// has been transformed: the span utilities (Extract, Replace, Remove,
// Insert) recompute spans alongside every text change, and NormalizeSpans
// projects them back onto the original offsets.
//
// All offsets are byte offsets into the UTF-8 encoded text.
package text
