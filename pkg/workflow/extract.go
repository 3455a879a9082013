package workflow

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/taskflow/pkg/dates"
	"github.com/dukex/taskflow/pkg/models"
)

// ErrInvalidPriority is returned by ValidatePriority.
var ErrInvalidPriority = errors.New("invalid priority")

// Keyword lists are matched as substrings, so "not urgent" reads as high.
var (
	highKeywords   = []string{"high", "urgent", "critical", "important", "asap", "high priority", "very important"}
	lowKeywords    = []string{"low", "minor", "trivial", "someday", "later", "low priority", "not urgent"}
	mediumKeywords = []string{"medium", "normal", "regular", "medium priority"}
)

var (
	taskNumberRe   = regexp.MustCompile(`\btask\s*#?(\d+)\b`)
	bareNumberRe   = regexp.MustCompile(`^#?(\d+)$`)
	theNameTaskRe  = regexp.MustCompile(`\bthe\s+(\w+)\s+task\b`)
	nameTaskRe     = regexp.MustCompile(`\b(\w+)\s+task\b`)
	titleChangeRe  = regexp.MustCompile(`(?i)\b(?:title|name)\s+(?:to|as|=)\s*["']?(.+?)["']?\s*(?:,|$)`)
	descChangeRe   = regexp.MustCompile(`(?i)\bdescription\s+(?:to|as|=)\s*["']?(.+?)["']?\s*(?:,|$)`)
	dueChangeRe    = regexp.MustCompile(`(?i)\b(?:due\s+date|due_date|due|deadline)\s*(?:to|as|=|on|is)?\s+(.+?)\s*(?:,|$)`)
	byChangeRe     = regexp.MustCompile(`(?i)\bby\s+(.+?)\s*(?:,|$)`)
	reopenChangeRe = regexp.MustCompile(`(?i)\b(incomplete|not\s+done|pending|undone)\b`)
	doneChangeRe   = regexp.MustCompile(`(?i)\b(complete|completed|done|finished)\b`)
)

var referenceStopWords = map[string]bool{"my": true, "the": true, "a": true, "this": true, "that": true}

// ExtractPriority finds a priority keyword anywhere in text. High keywords are
// checked first, then low, then medium.
func ExtractPriority(text string) models.Priority {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, highKeywords):
		return models.PriorityHigh
	case containsAny(lower, lowKeywords):
		return models.PriorityLow
	case containsAny(lower, mediumKeywords):
		return models.PriorityMedium
	default:
		return ""
	}
}

// ValidatePriority parses an exact priority name.
func ValidatePriority(value string) (models.Priority, error) {
	priority := models.Priority(value)
	if !priority.IsValid() {
		return "", fmt.Errorf("%w: '%s'. Must be 'high', 'medium', or 'low'", ErrInvalidPriority, value)
	}

	return priority, nil
}

// ExtractTaskReference reads "task 5", "task #5", a bare number, "the milk task"
// or "milk task" from message.
func ExtractTaskReference(message string) models.TaskReference {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, re := range []*regexp.Regexp{taskNumberRe, bareNumberRe} {
		if match := re.FindStringSubmatch(lower); match != nil {
			if id, err := strconv.Atoi(match[1]); err == nil {
				return models.TaskReference{TaskID: &id}
			}
		}
	}

	if match := theNameTaskRe.FindStringSubmatch(lower); match != nil {
		return models.TaskReference{TaskName: match[1]}
	}

	if match := nameTaskRe.FindStringSubmatch(lower); match != nil && !referenceStopWords[match[1]] {
		return models.TaskReference{TaskName: match[1]}
	}

	return models.TaskReference{}
}

// ExtractFieldChanges reads the edits requested in an update message. Due
// dates are validated; a rejected one is kept with its clarification in
// DueDateError.
func (e *Engine) ExtractFieldChanges(ctx context.Context, message string, classification models.ClassificationResult) models.TaskChanges {
	priority := classification.Priority()
	if priority == "" {
		priority = ExtractPriority(message)
	}

	return e.fieldChanges(ctx, message, priority)
}

func (e *Engine) fieldChanges(ctx context.Context, message string, priority models.Priority) models.TaskChanges {
	changes := models.TaskChanges{Priority: priority}

	if match := titleChangeRe.FindStringSubmatch(message); match != nil {
		title := strings.TrimSpace(match[1])
		changes.Title = &title
	}

	if match := descChangeRe.FindStringSubmatch(message); match != nil {
		description := strings.TrimSpace(match[1])
		changes.Description = &description
	}

	for _, re := range []*regexp.Regexp{dueChangeRe, byChangeRe} {
		match := re.FindStringSubmatch(message)
		if match == nil {
			continue
		}

		raw := strings.TrimSpace(match[1])
		changes.DueDateRaw = raw

		resolved, clarification, _ := e.ValidateDeadline(ctx, raw)
		if resolved != nil {
			changes.DueDate = resolved
		} else {
			changes.DueDateError = clarification
		}

		break
	}

	switch {
	case reopenChangeRe.MatchString(message):
		completed := false
		changes.Completed = &completed
	case doneChangeRe.MatchString(message):
		completed := true
		changes.Completed = &completed
	}

	return changes
}

// ValidateDeadline resolves text, escalating when needed. On failure it
// returns the clarification to show the user.
func (e *Engine) ValidateDeadline(ctx context.Context, text string) (*time.Time, string, bool) {
	result := e.dates.ResolveWithFallback(ctx, text)
	if result.Success && result.ResolvedAt != nil {
		e.logger.DebugContext(ctx, "Deadline validated", "resolved_at", result.ResolvedAt, "source", result.Source)

		return result.ResolvedAt, "", false
	}

	e.logger.InfoContext(ctx, "Deadline needs clarification", "failure", result.Failure)

	return nil, dates.ClarificationMessage(result), true
}

// FormatDateClarification builds the longer prompt for a rejected deadline.
func FormatDateClarification(input, reason string) string {
	return dates.FormatClarificationPrompt(input, reason)
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}

	return false
}
