package models

import "time"

// DateFailure classifies why a date could not be accepted.
type DateFailure string

const (
	DateFailureNone       DateFailure = ""
	DateFailureEmpty      DateFailure = "empty"
	DateFailureUnparsable DateFailure = "unparsable"
	DateFailurePast       DateFailure = "past"
	DateFailureFarFuture  DateFailure = "far_future"
)

// NeedsClarification reports whether the failure is a validation problem the
// user can fix by restating the date, as opposed to input nobody could read.
func (f DateFailure) NeedsClarification() bool {
	return f == DateFailurePast || f == DateFailureFarFuture
}

// DateSource records which resolver produced a result.
type DateSource string

const (
	DateSourceLocal  DateSource = "local"
	DateSourceOracle DateSource = "oracle"
)

// DateParseResult is the outcome of resolving one natural-language date.
type DateParseResult struct {
	Success     bool        `json:"success"`
	ResolvedAt  *time.Time  `json:"resolved_at,omitempty"`
	Confidence  float64     `json:"confidence"`
	ErrorReason string      `json:"error_reason,omitempty"`
	SourceText  string      `json:"source_text"`
	Failure     DateFailure `json:"failure,omitempty"`
	Source      DateSource  `json:"source,omitempty"`
	Reasoning   string      `json:"reasoning,omitempty"`
}

// MatchCandidate is one ranked task for a fuzzy query.
type MatchCandidate struct {
	ID           int    `json:"id"`
	DisplayTitle string `json:"display_title"`
	Score        int    `json:"score"`
	MatchedField string `json:"matched_field"`
}

// MatchResult is the best-first list of candidates for a fuzzy query.
type MatchResult struct {
	Success     bool             `json:"success"`
	Query       string           `json:"query"`
	Matches     []MatchCandidate `json:"matches"`
	ErrorReason string           `json:"error_reason,omitempty"`
}

// Best returns the top candidate when the match succeeded.
func (r MatchResult) Best() (MatchCandidate, bool) {
	if !r.Success || len(r.Matches) == 0 {
		return MatchCandidate{}, false
	}

	return r.Matches[0], true
}

// StepResult is what a single workflow turn produced: the new accumulated data,
// the step the workflow now waits on and what the caller should do next.
type StepResult[D any, S ~string] struct {
	Data           D
	Step           S
	Outcome        Outcome
	Classification ClassificationResult
}

// StepName returns the next step, or the cancel/switch_intent pseudo-step.
func (r StepResult[D, S]) StepName() string {
	switch r.Outcome {
	case OutcomeCancel, OutcomeSwitchIntent:
		return string(r.Outcome)
	default:
		return string(r.Step)
	}
}
