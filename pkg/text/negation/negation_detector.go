// Package negation flags text segments carrying a negated statement.
package negation

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

// NegationDetector attaches a boolean attribute to segments, holding true
// when one of its rules finds a negation cue in the segment text. Rules are
// tried in order and the first one matching wins.
//
// A rule declaring exclusion regexps is disabled on every segment one of
// them matches, wherever the exclusion match occurs in the segment.
type NegationDetector struct {
	uid         string
	outputLabel string
	rules       []Rule
	patterns    []*regexp.Regexp
	exclusions  []*regexp.Regexp
	tracer      *prov.Tracer
}

// Option configures a detector created with NewNegationDetector.
type Option func(*NegationDetector)

// WithUID sets the uid of the detector instead of generating one.
func WithUID(uid string) Option {
	return func(d *NegationDetector) {
		d.uid = uid
	}
}

// WithRules sets the detection rules to run instead of the default rules.
func WithRules(rules []Rule) Option {
	return func(d *NegationDetector) {
		d.rules = rules
	}
}

// NewNegationDetector creates a detector attaching its verdict to segments
// as an attribute labeled outputLabel. It runs the given rules, or the
// default rules when WithRules is not supplied.
func NewNegationDetector(outputLabel string, opts ...Option) (*NegationDetector, error) {
	detector := &NegationDetector{
		uid:         anno.NewUID(),
		outputLabel: outputLabel,
	}
	for _, opt := range opts {
		opt(detector)
	}

	if detector.rules == nil {
		rules, err := DefaultRules()
		if err != nil {
			return nil, err
		}

		detector.rules = rules
	}

	seen := make(map[string]struct{}, len(detector.rules))
	for _, rule := range detector.rules {
		if rule.ID == "" {
			continue
		}
		if _, ok := seen[rule.ID]; ok {
			return nil, errors.Errorf("duplicate rule id %s", rule.ID)
		}

		seen[rule.ID] = struct{}{}
	}

	detector.patterns = make([]*regexp.Regexp, len(detector.rules))
	detector.exclusions = make([]*regexp.Regexp, len(detector.rules))

	for i, rule := range detector.rules {
		pattern, err := compileRule(rule.Regexp, rule.CaseSensitive)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to compile the regexp of rule %d", i)
		}

		detector.patterns[i] = pattern

		if len(rule.ExclusionRegexps) == 0 {
			continue
		}

		exclusion, err := compileRule(joinExclusions(rule.ExclusionRegexps), rule.CaseSensitive)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to compile the exclusion regexps of rule %d", i)
		}

		detector.exclusions[i] = exclusion
	}

	return detector, nil
}

func compileRule(expr string, caseSensitive bool) (*regexp.Regexp, error) {
	if !caseSensitive {
		expr = "(?i)" + expr
	}

	return regexp.Compile(expr)
}

// joinExclusions merges the exclusion regexps of a rule into a single
// pattern matching any of them.
func joinExclusions(exprs []string) string {
	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = "(?:" + expr + ")"
	}

	return strings.Join(parts, "|")
}

// ruleID returns the declared id of a rule, or its index for rules declared
// without one.
func ruleID(rule Rule, index int) any {
	if rule.ID != "" {
		return rule.ID
	}

	return index
}

// Description returns the identity and configuration of the detector.
func (d *NegationDetector) Description() anno.OperationDescription {
	return anno.OperationDescription{
		UID:  d.uid,
		Name: "NegationDetector",
		Config: map[string]any{
			"output_label": d.outputLabel,
			"rules":        d.rules,
		},
	}
}

// SetProvTracer enables provenance tracing on the detector.
func (d *NegationDetector) SetProvTracer(tracer *prov.Tracer) {
	d.tracer = tracer
}

// Detect adds a negation attribute to every segment. Segments are modified
// in place, every one of them receives an attribute whether a negation was
// found in it or not.
func (d *NegationDetector) Detect(ctx context.Context, segments []*text.Segment) error {
	for _, segment := range segments {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := d.detectSegment(segment); err != nil {
			return err
		}
	}

	return nil
}

func (d *NegationDetector) detectSegment(segment *text.Segment) error {
	attr := d.matchSegment(segment)
	if err := segment.Attrs().Add(attr); err != nil {
		return err
	}

	if d.tracer != nil {
		if err := d.tracer.AddProv(attr, d.Description(), []anno.DataItem{segment}); err != nil {
			return err
		}
	}

	return nil
}

func (d *NegationDetector) matchSegment(segment *text.Segment) *anno.Attribute {
	for i, rule := range d.rules {
		if !d.patterns[i].MatchString(segment.Text) {
			continue
		}
		if d.exclusions[i] != nil && d.exclusions[i].MatchString(segment.Text) {
			continue
		}

		return anno.NewAttribute(d.outputLabel, true,
			anno.AttributeMetadata(map[string]any{"rule_id": ruleID(rule, i)}))
	}

	return anno.NewAttribute(d.outputLabel, false)
}

// Run implements pipeline.PipelineOperation. It expects a single input list
// holding segments, modifies them in place and produces no output.
func (d *NegationDetector) Run(ctx context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	if len(inputs) != 1 {
		return nil, errors.Errorf("expected a single list of segments, got %d input lists", len(inputs))
	}

	segments, err := text.SegmentsFromDataItems(inputs[0])
	if err != nil {
		return nil, err
	}

	return nil, d.Detect(ctx, segments)
}

var (
	_ pipeline.PipelineOperation = (*NegationDetector)(nil)
	_ pipeline.ProvCompatible    = (*NegationDetector)(nil)
)
