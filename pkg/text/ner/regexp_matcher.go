// Package ner finds entity mentions in text segments.
package ner

import (
	"context"
	"regexp"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/annokit/annokit/pkg/anno"
	"github.com/annokit/annokit/pkg/pipeline"
	"github.com/annokit/annokit/pkg/prov"
	"github.com/annokit/annokit/pkg/text"
)

// RegexpMatcher finds entity mentions in segments with regular expression
// rules, and labels them after the rule which found them.
//
// A rule declaring an exclusion regexp is disabled on every segment the
// exclusion matches, wherever the exclusion match occurs in the segment.
type RegexpMatcher struct {
	uid         string
	rules       []Rule
	attrsToCopy []string
	concurrency int
	patterns    []*regexp.Regexp
	exclusions  []*regexp.Regexp
	tracer      *prov.Tracer
}

// Option configures a matcher created with NewRegexpMatcher.
type Option func(*RegexpMatcher)

// WithUID sets the uid of the matcher instead of generating one.
func WithUID(uid string) Option {
	return func(m *RegexpMatcher) {
		m.uid = uid
	}
}

// WithRules sets the matching rules to run instead of the default rules.
func WithRules(rules []Rule) Option {
	return func(m *RegexpMatcher) {
		m.rules = rules
	}
}

// WithAttrsToCopy sets the labels of the attributes to copy from a matched
// segment to the entities found in it. Useful to propagate context
// attributes such as negation to the entities.
func WithAttrsToCopy(labels []string) Option {
	return func(m *RegexpMatcher) {
		m.attrsToCopy = labels
	}
}

// WithConcurrency bounds the number of segments matched in parallel. The
// default is the number of CPUs, values below one are ignored.
func WithConcurrency(n int) Option {
	return func(m *RegexpMatcher) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// NewRegexpMatcher creates a matcher running the given rules, or the default
// rules when WithRules is not supplied.
func NewRegexpMatcher(opts ...Option) (*RegexpMatcher, error) {
	matcher := &RegexpMatcher{
		uid:         anno.NewUID(),
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(matcher)
	}

	if matcher.rules == nil {
		rules, err := DefaultRules()
		if err != nil {
			return nil, err
		}

		matcher.rules = rules
	}

	seen := make(map[string]struct{}, len(matcher.rules))
	for _, rule := range matcher.rules {
		if rule.ID == "" {
			continue
		}
		if _, ok := seen[rule.ID]; ok {
			return nil, errors.Errorf("duplicate rule id %s", rule.ID)
		}

		seen[rule.ID] = struct{}{}
	}

	matcher.patterns = make([]*regexp.Regexp, len(matcher.rules))
	matcher.exclusions = make([]*regexp.Regexp, len(matcher.rules))

	for i, rule := range matcher.rules {
		pattern, err := compileRule(rule.Regexp, rule.CaseSensitive)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to compile the regexp of rule %d", i)
		}
		if rule.IndexExtract < 0 || rule.IndexExtract > pattern.NumSubexp() {
			return nil, errors.Errorf("rule %d has no capturing group %d to extract", i, rule.IndexExtract)
		}

		matcher.patterns[i] = pattern

		if rule.ExclusionRegexp == "" {
			continue
		}

		exclusion, err := compileRule(rule.ExclusionRegexp, rule.CaseSensitive)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to compile the exclusion regexp of rule %d", i)
		}

		matcher.exclusions[i] = exclusion
	}

	return matcher, nil
}

func compileRule(expr string, caseSensitive bool) (*regexp.Regexp, error) {
	if !caseSensitive {
		expr = "(?i)" + expr
	}

	return regexp.Compile(expr)
}

// ruleID returns the declared id of a rule, or its index for rules declared
// without one.
func ruleID(rule Rule, index int) any {
	if rule.ID != "" {
		return rule.ID
	}

	return index
}

// Description returns the identity and configuration of the matcher.
func (m *RegexpMatcher) Description() anno.OperationDescription {
	return anno.OperationDescription{
		UID:  m.uid,
		Name: "RegexpMatcher",
		Config: map[string]any{
			"rules":         m.rules,
			"attrs_to_copy": m.attrsToCopy,
		},
	}
}

// SetProvTracer enables provenance tracing on the matcher.
func (m *RegexpMatcher) SetProvTracer(tracer *prov.Tracer) {
	m.tracer = tracer
}

// ruleMatch is the range matched by a rule in the text of a segment.
type ruleMatch struct {
	ruleIndex int
	start     int
	end       int
}

// Match returns the entities found in segments. The entities of a segment
// are ordered by rule first and position in the text second.
func (m *RegexpMatcher) Match(ctx context.Context, segments []*text.Segment) ([]*text.Entity, error) {
	matchesBySegment := make([][]ruleMatch, len(segments))

	// matching is pure, only the entity building below touches shared state
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(m.concurrency)

	for i, segment := range segments {
		i, segment := i, segment
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			matchesBySegment[i] = m.matchSegment(segment)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var entities []*text.Entity
	for i, segment := range segments {
		for _, match := range matchesBySegment[i] {
			entity, err := m.entityFromMatch(segment, match)
			if err != nil {
				return nil, err
			}

			entities = append(entities, entity)
		}
	}

	return entities, nil
}

func (m *RegexpMatcher) matchSegment(segment *text.Segment) []ruleMatch {
	var matches []ruleMatch

	for i, rule := range m.rules {
		if m.exclusions[i] != nil && m.exclusions[i].MatchString(segment.Text) {
			continue
		}

		for _, location := range m.patterns[i].FindAllStringSubmatchIndex(segment.Text, -1) {
			start, end := location[2*rule.IndexExtract], location[2*rule.IndexExtract+1]

			// the extraction group may not take part in the match
			if start < 0 {
				continue
			}

			matches = append(matches, ruleMatch{ruleIndex: i, start: start, end: end})
		}
	}

	return matches
}

func (m *RegexpMatcher) entityFromMatch(segment *text.Segment, match ruleMatch) (*text.Entity, error) {
	rule := m.rules[match.ruleIndex]

	entityText, spans, err := text.Extract(segment.Text, segment.Spans, [][2]int{{match.start, match.end}})
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{
		"rule_id": ruleID(rule, match.ruleIndex),
		"version": rule.Version,
	}

	entity := text.NewEntity(rule.Label, entityText, spans, text.SegmentMetadata(metadata))

	if m.tracer != nil {
		if err := m.tracer.AddProv(entity, m.Description(), []anno.DataItem{segment}); err != nil {
			return nil, err
		}
	}

	for _, norm := range rule.Normalizations {
		attr := anno.NewAttribute(norm.KBName, norm.KBID,
			anno.AttributeMetadata(map[string]any{"version": norm.KBVersion}))
		if err := entity.Attrs().Add(attr); err != nil {
			return nil, err
		}

		if m.tracer != nil {
			if err := m.tracer.AddProv(attr, m.Description(), []anno.DataItem{segment}); err != nil {
				return nil, err
			}
		}
	}

	for _, label := range m.attrsToCopy {
		for _, attr := range segment.Attrs().Get(label) {
			copied := attr.Copy()
			if err := entity.Attrs().Add(copied); err != nil {
				return nil, err
			}

			if m.tracer != nil {
				if err := m.tracer.AddProv(copied, m.Description(), []anno.DataItem{attr}); err != nil {
					return nil, err
				}
			}
		}
	}

	return entity, nil
}

// Run implements pipeline.PipelineOperation. It expects a single input list
// holding segments and returns a single output list holding the entities
// found in them.
func (m *RegexpMatcher) Run(ctx context.Context, inputs ...[]anno.DataItem) ([][]anno.DataItem, error) {
	if len(inputs) != 1 {
		return nil, errors.Errorf("expected a single list of segments, got %d input lists", len(inputs))
	}

	segments, err := text.SegmentsFromDataItems(inputs[0])
	if err != nil {
		return nil, err
	}

	entities, err := m.Match(ctx, segments)
	if err != nil {
		return nil, err
	}

	return [][]anno.DataItem{anno.AsDataItems(entities)}, nil
}

var (
	_ pipeline.PipelineOperation = (*RegexpMatcher)(nil)
	_ pipeline.ProvCompatible    = (*RegexpMatcher)(nil)
)
