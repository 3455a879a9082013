// Package config provides configuration loading for the intent pattern table
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dukex/taskflow/pkg/intent"
)

var ErrEmptyGroup = errors.New("pattern group is empty")

// PatternFile represents the structure of an intent patterns YAML file.
// Groups listed in the file replace the built-in ones, unless Extend is set,
// in which case they are appended to them.
type PatternFile struct {
	Extend   bool       `yaml:"extend"`
	Add      []RuleFile `yaml:"add"`
	Delete   []RuleFile `yaml:"delete"`
	Update   []RuleFile `yaml:"update"`
	Complete []RuleFile `yaml:"complete"`
	Reopen   []RuleFile `yaml:"reopen"`
	List     []RuleFile `yaml:"list"`
	Cancel   []RuleFile `yaml:"cancel"`
}

// RuleFile represents a single rule in the YAML file
type RuleFile struct {
	Pattern       string `yaml:"pattern"`
	NotFollowedBy string `yaml:"not_followed_by"`
}

// LoadPatterns loads an intent pattern table from a YAML file
func LoadPatterns(filepath string) (intent.Patterns, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return intent.Patterns{}, fmt.Errorf("failed to read patterns file %s: %w", filepath, err)
	}

	return ParsePatterns(data)
}

// ParsePatterns merges a YAML pattern document over the built-in table.
func ParsePatterns(data []byte) (intent.Patterns, error) {
	var file PatternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return intent.Patterns{}, fmt.Errorf("failed to parse YAML patterns: %w", err)
	}

	patterns := intent.DefaultPatterns()

	merge := func(dst *[]intent.Rule, rules []RuleFile) {
		if len(rules) == 0 {
			return
		}

		converted := make([]intent.Rule, len(rules))
		for i, r := range rules {
			converted[i] = intent.Rule{Pattern: r.Pattern, NotFollowedBy: r.NotFollowedBy}
		}

		if file.Extend {
			*dst = append(*dst, converted...)
		} else {
			*dst = converted
		}
	}

	merge(&patterns.Add, file.Add)
	merge(&patterns.Delete, file.Delete)
	merge(&patterns.Update, file.Update)
	merge(&patterns.Complete, file.Complete)
	merge(&patterns.Reopen, file.Reopen)
	merge(&patterns.List, file.List)
	merge(&patterns.Cancel, file.Cancel)

	if err := ValidatePatterns(patterns); err != nil {
		return intent.Patterns{}, err
	}

	return patterns, nil
}

// ValidatePatterns validates the pattern table
func ValidatePatterns(patterns intent.Patterns) error {
	groups := []struct {
		name  string
		rules []intent.Rule
	}{
		{"add", patterns.Add},
		{"delete", patterns.Delete},
		{"update", patterns.Update},
		{"complete", patterns.Complete},
		{"reopen", patterns.Reopen},
		{"list", patterns.List},
		{"cancel", patterns.Cancel},
	}

	for _, group := range groups {
		if len(group.rules) == 0 {
			return fmt.Errorf("%s: %w", group.name, ErrEmptyGroup)
		}

		for i, r := range group.rules {
			if r.Pattern == "" {
				return fmt.Errorf("%s[%d]: pattern is required", group.name, i)
			}
		}
	}

	return nil
}
