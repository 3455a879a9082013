// Package fuzzy ranks tasks against a free-text reference such as "the milk task".
package fuzzy

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/dukex/taskflow/pkg/models"
)

const (
	// DefaultSingleThreshold is the score a lone candidate needs to be acted on.
	DefaultSingleThreshold = 70
	// DefaultMultiThreshold is the score a candidate needs to be suggested at all.
	DefaultMultiThreshold = 60
	// DefaultMaxResults caps the ranked list.
	DefaultMaxResults = 5

	FieldTitle       = "title"
	FieldDescription = "description"
)

// Matcher holds the thresholds used by FindMatches. The zero value is not
// useful; use NewMatcher.
type Matcher struct {
	SingleThreshold int
	MultiThreshold  int
	MaxResults      int
}

// NewMatcher returns a Matcher with the default thresholds.
func NewMatcher() Matcher {
	return Matcher{
		SingleThreshold: DefaultSingleThreshold,
		MultiThreshold:  DefaultMultiThreshold,
		MaxResults:      DefaultMaxResults,
	}
}

type scored struct {
	task  models.Task
	score int
	field string
}

// FindMatches scores every task by its title and description and returns the
// plausible ones best first. A nil task list is reported separately from an
// empty one. A single survivor below SingleThreshold counts as no match.
func (m Matcher) FindMatches(query string, tasks []models.Task) models.MatchResult {
	if strings.TrimSpace(query) == "" {
		return failed(query, "Query cannot be empty")
	}

	if tasks == nil {
		return failed(query, "Task list cannot be nil")
	}

	if len(tasks) == 0 {
		return failed(query, "No tasks to search")
	}

	normalized := strings.ToLower(strings.TrimSpace(query))

	survivors := make([]scored, 0, len(tasks))

	for _, task := range tasks {
		titleScore := Score(normalized, task.Title)

		descriptionScore := 0
		if task.Description != "" {
			descriptionScore = Score(normalized, task.Description)
		}

		best, field := titleScore, FieldTitle
		if descriptionScore > titleScore {
			best, field = descriptionScore, FieldDescription
		}

		if best >= m.MultiThreshold {
			survivors = append(survivors, scored{task: task, score: best, field: field})
		}
	}

	if len(survivors) == 0 {
		return failed(query, fmt.Sprintf("No tasks found matching '%s'", query))
	}

	slices.SortStableFunc(survivors, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}

		return len(a.task.Title) - len(b.task.Title)
	})

	if len(survivors) == 1 && survivors[0].score < m.SingleThreshold {
		return failed(query, fmt.Sprintf("No confident match found for '%s' (best score: %d%%)", query, survivors[0].score))
	}

	if m.MaxResults > 0 && len(survivors) > m.MaxResults {
		survivors = survivors[:m.MaxResults]
	}

	matches := make([]models.MatchCandidate, len(survivors))
	for i, s := range survivors {
		matches[i] = models.MatchCandidate{
			ID:           s.task.ID,
			DisplayTitle: s.task.Title,
			Score:        s.score,
			MatchedField: s.field,
		}
	}

	return models.MatchResult{Success: true, Query: query, Matches: matches}
}

// FindBestMatch returns the single top task scoring at least threshold.
func FindBestMatch(query string, tasks []models.Task, threshold int) (models.MatchCandidate, bool) {
	matcher := Matcher{SingleThreshold: threshold, MultiThreshold: threshold, MaxResults: 1}

	return matcher.FindMatches(query, tasks).Best()
}

// FindExactMatch returns the first task whose title equals query, ignoring case
// and surrounding space.
func FindExactMatch(query string, tasks []models.Task) (models.MatchCandidate, bool) {
	normalized := strings.ToLower(strings.TrimSpace(query))

	for _, task := range tasks {
		if strings.ToLower(strings.TrimSpace(task.Title)) == normalized {
			return models.MatchCandidate{
				ID:           task.ID,
				DisplayTitle: task.Title,
				Score:        100,
				MatchedField: FieldTitle,
			}, true
		}
	}

	return models.MatchCandidate{}, false
}

// Score is the partial similarity of query against text on a 0-100 scale: the
// shorter string is slid across the longer one and the best normalized edit
// distance over all equally long windows wins.
func Score(query, text string) int {
	shorter := []rune(strings.ToLower(strings.TrimSpace(query)))
	longer := []rune(strings.ToLower(strings.TrimSpace(text)))

	if len(shorter) == 0 || len(longer) == 0 {
		return 0
	}

	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	needle := string(shorter)
	width := len(shorter)
	best := 0.0

	for start := 0; start+width <= len(longer); start++ {
		distance := levenshtein.ComputeDistance(needle, string(longer[start:start+width]))

		similarity := 1 - float64(distance)/float64(width)
		if similarity > best {
			best = similarity
			if best == 1 {
				break
			}
		}
	}

	return int(math.Round(best * 100))
}

func failed(query, reason string) models.MatchResult {
	return models.MatchResult{Success: false, Query: query, Matches: []models.MatchCandidate{}, ErrorReason: reason}
}
