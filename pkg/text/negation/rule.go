package negation

import (
	"bytes"
	_ "embed"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yml
var defaultRulesData []byte

// Rule describes how to detect a negation with a regular expression.
type Rule struct {
	// Regexp finding the negation cue.
	Regexp string `yaml:"regexp"`
	// ExclusionRegexps disable the rule on segments where one of them
	// matches, typically to skip constructs looking like a negation but
	// carrying none.
	ExclusionRegexps []string `yaml:"exclusion_regexps,omitempty"`
	// ID identifies the rule in the metadata of the attributes it creates.
	// Optional, the rule index is used when empty.
	ID string `yaml:"id,omitempty"`
	// CaseSensitive disables the default case insensitive matching.
	CaseSensitive bool `yaml:"case_sensitive,omitempty"`
}

// LoadRules reads detection rules in YAML form, typically from a rules file.
func LoadRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil {
		return nil, errors.Wrap(err, "unable to decode detection rules")
	}

	return rules, nil
}

// SaveRules writes detection rules in YAML form, readable back with
// LoadRules.
func SaveRules(w io.Writer, rules []Rule) error {
	encoder := yaml.NewEncoder(w)
	if err := encoder.Encode(rules); err != nil {
		return errors.Wrap(err, "unable to encode detection rules")
	}

	return errors.Wrap(encoder.Close(), "unable to encode detection rules")
}

// DefaultRules returns the rules used by detectors created without
// WithRules. They target English text.
func DefaultRules() ([]Rule, error) {
	return LoadRules(bytes.NewReader(defaultRulesData))
}
