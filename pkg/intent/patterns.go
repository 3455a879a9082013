package intent

import (
	"fmt"
	"regexp"
)

// Rule is one pattern of a pattern table. NotFollowedBy, when set, rejects a
// match whose remaining text matches it at its start.
type Rule struct {
	Pattern       string
	NotFollowedBy string
}

// Patterns is the full table the classifier is built from. Every pattern is
// matched case-insensitively against the lowercased message.
type Patterns struct {
	Add      []Rule
	Delete   []Rule
	Update   []Rule
	Complete []Rule
	Reopen   []Rule
	List     []Rule
	Cancel   []Rule
}

// DefaultPatterns returns the built-in pattern table.
func DefaultPatterns() Patterns {
	return Patterns{
		Add: []Rule{
			{Pattern: `\b(add|create|new|make)\s+(a\s+)?(task|urgent\s+task)\b`},
			{Pattern: `\b(add|create)\s+(urgent|high\s+priority|important)\s+task\b`},
			{Pattern: `\b(add|create|new)\s+(high|medium|low|normal)\s+(priority\s+)?task\b`},
			{Pattern: `\b(add|create)\s+[\w\s]+task\b`},
			{Pattern: `\b(want|need|have)\s+to\b`},
			{Pattern: `\b(remind|remember)\s+me\s+to\b`},
		},
		Delete: []Rule{
			{Pattern: `\b(delete|remove|erase)\s+(the\s+)?task\s*#?(\d+)\b`},
			{Pattern: `\b(delete|remove|erase)\s+(the\s+)?task\b`},
			{Pattern: `\bcancel\s+task\s*#?(\d+)\b`},
			{Pattern: `\b(delete|remove)\s+the\s+\w+\s+task\b`},
		},
		Update: []Rule{
			{Pattern: `\b(update|change|modify|edit)\s+(the\s+)?task\b`},
			{Pattern: `\b(update|change)\s+task\s*#?(\d+)\b`},
			{Pattern: `\b(change|update)\s+the\s+\w+\s+task\b`},
			{Pattern: `\b(make|set)\s+it\s+(to\s+)?(high|medium|low)\s+priority\b`},
		},
		Complete: []Rule{
			{Pattern: `\b(mark|set)\s+(task\s*)?#?(\d+)?\s*as\s+(complete|done|finished)\b`},
			{Pattern: `\b(complete|finish)\s+task\s*#?(\d+)\b`},
			{Pattern: `\b(done\s+with)\s+task\s*#?(\d+)\b`},
			{Pattern: `\b(i\s+)?(finished|completed|done)\s+\w+`},
			{Pattern: `\btask\s*#?(\d+)\s+is\s+(done|complete|finished)\b`},
		},
		Reopen: []Rule{
			{Pattern: `\b(mark|set)\s+(task\s*)?#?(\d+)?\s*as\s+(incomplete|not\s+done|pending|undone)\b`},
			{Pattern: `\b(reopen|uncomplete)\s+task\s*#?(\d+)\b`},
		},
		List: []Rule{
			{Pattern: `\b(show|list|display|view|get)\s+(my|all|the)?\s*(pending|completed|active)?\s*tasks?\b`},
			{Pattern: `\b(show|list|display)\s+(all\s+)?my\s+tasks?\b`},
			{Pattern: `\bwhat\s+(are\s+)?my\s+tasks\b`},
			{Pattern: `\b(show|list|view)\s+(pending|completed|all)\s+tasks\b`},
		},
		Cancel: []Rule{
			{Pattern: `\b(never\s+mind|nevermind)\b`},
			{Pattern: `\b(cancel|stop|abort)\b`, NotFollowedBy: `^\s+task\s*#?\d`},
			{Pattern: `\b(forget\s+it|don't\s+bother)\b`},
		},
	}
}

type rule struct {
	re            *regexp.Regexp
	notFollowedBy *regexp.Regexp
}

func (r rule) match(message string) bool {
	if r.notFollowedBy == nil {
		return r.re.MatchString(message)
	}

	for _, loc := range r.re.FindAllStringIndex(message, -1) {
		if !r.notFollowedBy.MatchString(message[loc[1]:]) {
			return true
		}
	}

	return false
}

type ruleSet []rule

func (rs ruleSet) match(message string) bool {
	for _, r := range rs {
		if r.match(message) {
			return true
		}
	}

	return false
}

func compileRules(group string, rules []Rule) (ruleSet, error) {
	compiled := make(ruleSet, 0, len(rules))

	for i, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s pattern %d: %w", group, i, err)
		}

		entry := rule{re: re}

		if r.NotFollowedBy != "" {
			entry.notFollowedBy, err = regexp.Compile("(?i)" + r.NotFollowedBy)
			if err != nil {
				return nil, fmt.Errorf("%s pattern %d exclusion: %w", group, i, err)
			}
		}

		compiled = append(compiled, entry)
	}

	return compiled, nil
}
