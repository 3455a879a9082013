// Package intent classifies free-form task messages into intents and extracts their entities.
package intent

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/dukex/taskflow/pkg/models"
)

const (
	confidenceConfirmation = 0.95
	confidenceCancel       = 0.95
	confidenceCommand      = 0.9
	confidenceMakeIt       = 0.9
	confidenceInformation  = 0.85
	confidenceUnknown      = 0.3

	maxTitleWords = 5
)

var (
	affirmativeRe = regexp.MustCompile(`^(yes|yeah|yep|yup|sure|ok|okay|confirm)$`)
	negativeRe    = regexp.MustCompile(`^(no|nope|nah|don't)$`)
	makeItRe      = regexp.MustCompile(`\b(make|set)\s+it\b`)

	highPriorityRe   = regexp.MustCompile(`\b(high|urgent|important)\b`)
	mediumPriorityRe = regexp.MustCompile(`\b(medium|normal)\b`)
	lowPriorityRe    = regexp.MustCompile(`\blow\b`)

	addPrefixRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(urgent|high|medium|low)\s+(priority)?\s*`),
		regexp.MustCompile(`(?i)\b(add|create|new|make)\s+(a\s+)?(new\s+)?task\b\s*(to\b\s*)?`),
		regexp.MustCompile(`(?i)\b(want|need|have)\s+to\s+`),
		regexp.MustCompile(`(?i)\b(remind|remember)\s+me\s+to\s+`),
	}
	bareAddRe = regexp.MustCompile(`(?i)^((add|create|new|make)\s+)?(a\s+)?(new\s+)?(task)?$`)

	taskIDRe        = regexp.MustCompile(`\btask\s*#?(\d+)\b`)
	deleteNameRe    = regexp.MustCompile(`\b(delete|remove)\s+the\s+(\w+)\s+task\b`)
	updateNameRe    = regexp.MustCompile(`\b(update|change)\s+the\s+(\w+)\s+task\b`)
	finishedNameRe  = regexp.MustCompile(`\b(finished|completed|done)\s+(.+)$`)
	trailingTaskRe  = regexp.MustCompile(`\s+(task)?$`)
	pendingFilterRe = regexp.MustCompile(`\bpending\b`)
	doneFilterRe    = regexp.MustCompile(`\bcompleted\b`)
	allFilterRe     = regexp.MustCompile(`\ball\b`)
)

// Classifier maps a message and the active operation to a ClassificationResult.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	logger *slog.Logger

	add      ruleSet
	remove   ruleSet
	update   ruleSet
	complete ruleSet
	reopen   ruleSet
	list     ruleSet
	cancel   ruleSet
}

// NewClassifier returns a classifier built from DefaultPatterns.
func NewClassifier(logger *slog.Logger) *Classifier {
	classifier, err := NewClassifierWithPatterns(logger, DefaultPatterns())
	if err != nil {
		panic(err)
	}

	return classifier
}

// NewClassifierWithPatterns compiles patterns into a classifier.
func NewClassifierWithPatterns(logger *slog.Logger, patterns Patterns) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	classifier := &Classifier{logger: logger.With("module", "intent_classifier")}

	groups := []struct {
		name  string
		rules []Rule
		dst   *ruleSet
	}{
		{"add", patterns.Add, &classifier.add},
		{"delete", patterns.Delete, &classifier.remove},
		{"update", patterns.Update, &classifier.update},
		{"complete", patterns.Complete, &classifier.complete},
		{"reopen", patterns.Reopen, &classifier.reopen},
		{"list", patterns.List, &classifier.list},
		{"cancel", patterns.Cancel, &classifier.cancel},
	}

	for _, group := range groups {
		compiled, err := compileRules(group.name, group.rules)
		if err != nil {
			return nil, err
		}

		*group.dst = compiled
	}

	return classifier, nil
}

// Classify interprets message in the context of the active operation.
// Empty input yields UNKNOWN with zero confidence.
func (c *Classifier) Classify(message string, phase models.Operation) models.ClassificationResult {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return models.NewClassification(models.IntentUnknown, 0, nil)
	}

	if phase == "" {
		phase = models.OperationNeutral
	}

	result := c.classify(message, lower, phase)

	c.logger.Debug("Classified message",
		"phase", phase,
		"intent", result.Intent,
		"confidence", result.Confidence)

	return result
}

func (c *Classifier) classify(original, lower string, phase models.Operation) models.ClassificationResult {
	if c.cancel.match(lower) {
		return models.NewClassification(models.IntentCancelOperation, confidenceCancel, nil)
	}

	if phase != models.OperationNeutral && !c.namesOtherCommand(lower, phase) {
		if info, ok := c.classifyAsInformation(lower, phase); ok {
			return info
		}
	}

	switch {
	case c.list.match(lower):
		return models.NewClassification(models.IntentListTasks, confidenceCommand, listEntities(lower))
	case c.add.match(lower):
		return models.NewClassification(models.IntentAddTask, confidenceCommand, addEntities(original, lower))
	case c.remove.match(lower):
		return models.NewClassification(models.IntentDeleteTask, confidenceCommand, deleteEntities(lower))
	case c.update.match(lower):
		return models.NewClassification(models.IntentUpdateTask, confidenceCommand, updateEntities(lower))
	case c.reopen.match(lower):
		entities := completeEntities(lower)
		entities.Reopen = true

		return models.NewClassification(models.IntentCompleteTask, confidenceCommand, entities)
	case c.complete.match(lower):
		return models.NewClassification(models.IntentCompleteTask, confidenceCommand, completeEntities(lower))
	default:
		return models.NewClassification(models.IntentUnknown, confidenceUnknown, nil)
	}
}

// namesOtherCommand reports whether the message is phrased as a command for an
// operation other than the active one. Such messages are never read as
// in-phase information. "make it ..." / "set it ..." always refers to the
// task being worked on.
func (c *Classifier) namesOtherCommand(lower string, phase models.Operation) bool {
	if makeItRe.MatchString(lower) {
		return false
	}

	commands := map[models.Operation]ruleSet{
		models.OperationAddingTask:     c.add,
		models.OperationDeletingTask:   c.remove,
		models.OperationUpdatingTask:   c.update,
		models.OperationCompletingTask: append(append(ruleSet{}, c.complete...), c.reopen...),
	}

	if c.list.match(lower) {
		return true
	}

	for op, rules := range commands {
		if op != phase && rules.match(lower) {
			return true
		}
	}

	return false
}

func (c *Classifier) matchesAnyCommand(lower string) bool {
	for _, rules := range []ruleSet{c.add, c.remove, c.update, c.complete, c.reopen, c.list, c.cancel} {
		if rules.match(lower) {
			return true
		}
	}

	return false
}

func (c *Classifier) classifyAsInformation(lower string, phase models.Operation) (models.ClassificationResult, bool) {
	if affirmativeRe.MatchString(lower) {
		yes := true

		return models.NewClassification(models.IntentProvideInformation, confidenceConfirmation,
			models.InformationEntities{Confirmation: &yes}), true
	}

	if negativeRe.MatchString(lower) {
		no := false

		return models.NewClassification(models.IntentProvideInformation, confidenceConfirmation,
			models.InformationEntities{Confirmation: &no}), true
	}

	priority := extractPriority(lower)

	switch phase {
	case models.OperationAddingTask:
		entities := models.InformationEntities{Priority: priority}

		if len(strings.Fields(lower)) <= maxTitleWords && !c.matchesAnyCommand(lower) {
			entities.Title = lower
		}

		if makeItRe.MatchString(lower) {
			return models.NewClassification(models.IntentProvideInformation, confidenceMakeIt, entities), true
		}

		if entities.Title != "" || entities.Priority != "" {
			return models.NewClassification(models.IntentProvideInformation, confidenceInformation, entities), true
		}
	case models.OperationUpdatingTask, models.OperationDeletingTask, models.OperationCompletingTask:
		if priority != "" {
			return models.NewClassification(models.IntentProvideInformation, confidenceInformation,
				models.InformationEntities{Priority: priority}), true
		}
	}

	return models.ClassificationResult{}, false
}

// extractPriority reads a priority from whole words only.
func extractPriority(lower string) models.Priority {
	switch {
	case highPriorityRe.MatchString(lower):
		return models.PriorityHigh
	case mediumPriorityRe.MatchString(lower):
		return models.PriorityMedium
	case lowPriorityRe.MatchString(lower):
		return models.PriorityLow
	default:
		return ""
	}
}

func addEntities(original, lower string) models.AddTaskEntities {
	title := original
	for _, re := range addPrefixRes {
		title = re.ReplaceAllString(title, "")
	}

	// A bare command carries no title; the workflow asks for one.
	title = strings.TrimSpace(title)
	if bareAddRe.MatchString(title) {
		title = ""
	}

	return models.AddTaskEntities{
		Title:    title,
		Priority: extractPriority(lower),
	}
}

func taskID(lower string) *int {
	match := taskIDRe.FindStringSubmatch(lower)
	if match == nil {
		return nil
	}

	id, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}

	return &id
}

func deleteEntities(lower string) models.DeleteTaskEntities {
	entities := models.DeleteTaskEntities{}
	entities.TaskID = taskID(lower)

	if match := deleteNameRe.FindStringSubmatch(lower); match != nil {
		entities.TaskName = match[2]
	}

	return entities
}

func updateEntities(lower string) models.UpdateTaskEntities {
	entities := models.UpdateTaskEntities{Priority: extractPriority(lower)}
	entities.TaskID = taskID(lower)

	if match := updateNameRe.FindStringSubmatch(lower); match != nil {
		entities.TaskName = match[2]
	}

	return entities
}

func completeEntities(lower string) models.CompleteTaskEntities {
	entities := models.CompleteTaskEntities{}
	entities.TaskID = taskID(lower)

	if match := finishedNameRe.FindStringSubmatch(lower); match != nil {
		name := trailingTaskRe.ReplaceAllString(strings.TrimSpace(match[2]), "")
		if name != "" {
			entities.TaskName = name
		}
	}

	return entities
}

func listEntities(lower string) models.ListTasksEntities {
	switch {
	case pendingFilterRe.MatchString(lower):
		return models.ListTasksEntities{Status: models.StatusPending}
	case doneFilterRe.MatchString(lower):
		return models.ListTasksEntities{Status: models.StatusCompleted}
	case allFilterRe.MatchString(lower):
		return models.ListTasksEntities{Status: models.StatusAll}
	default:
		return models.ListTasksEntities{}
	}
}
