package ner

import (
	"bytes"
	_ "embed"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yml
var defaultRulesData []byte

// Rule describes how to find entity mentions with a regular expression and
// which label to give them.
type Rule struct {
	// Label of the entities created from matches of the rule.
	Label string `yaml:"label"`
	// Regexp finding the entity mentions.
	Regexp string `yaml:"regexp"`
	// ID identifies the rule in the metadata of the entities it creates.
	// Optional, the rule index is used when empty.
	ID string `yaml:"id,omitempty"`
	// Version of the rule, stored in the metadata of the entities it
	// creates.
	Version string `yaml:"version,omitempty"`
	// ExclusionRegexp disables the rule on segments it matches.
	ExclusionRegexp string `yaml:"exclusion_regexp,omitempty"`
	// IndexExtract is the index of the capturing group holding the entity
	// mention. The whole match is used when zero.
	IndexExtract int `yaml:"index_extract,omitempty"`
	// CaseSensitive disables the default case insensitive matching.
	CaseSensitive bool `yaml:"case_sensitive,omitempty"`
	// Comment is free documentation text, never interpreted.
	Comment string `yaml:"comment,omitempty"`
	// Normalizations link the entities created from matches of the rule to
	// knowledge base entries.
	Normalizations []Normalization `yaml:"normalizations,omitempty"`
}

// Normalization links an entity to an entry of a knowledge base, for
// instance a concept of a medical terminology.
type Normalization struct {
	// KBName is the name of the knowledge base, for instance "umls".
	KBName string `yaml:"kb_name"`
	// KBID is the identifier of the entry, for instance a CUI.
	KBID string `yaml:"kb_id"`
	// KBVersion is the version of the knowledge base.
	KBVersion string `yaml:"kb_version,omitempty"`
}

// LoadRules reads matching rules in YAML form, typically from a rules file.
func LoadRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil {
		return nil, errors.Wrap(err, "unable to decode matching rules")
	}

	return rules, nil
}

// SaveRules writes matching rules in YAML form, readable back with
// LoadRules.
func SaveRules(w io.Writer, rules []Rule) error {
	encoder := yaml.NewEncoder(w)
	if err := encoder.Encode(rules); err != nil {
		return errors.Wrap(err, "unable to encode matching rules")
	}

	return errors.Wrap(encoder.Close(), "unable to encode matching rules")
}

// DefaultRules returns the rules used by matchers created without WithRules.
func DefaultRules() ([]Rule, error) {
	return LoadRules(bytes.NewReader(defaultRulesData))
}
