// Package dates resolves natural-language deadlines into validated instants.
package dates

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/oracle"
)

const (
	// DefaultFallbackThreshold is the confidence below which a local parse is escalated.
	DefaultFallbackThreshold = 0.6

	// MaxFutureYears bounds how far ahead a deadline may be.
	MaxFutureYears = 10

	defaultOracleTimeout = 8 * time.Second
)

// Oracle interprets date expressions the local grammar cannot.
type Oracle interface {
	ResolveDate(ctx context.Context, text string, now time.Time) (*oracle.DateReply, error)
}

// Resolver parses, validates and scores date expressions. It is safe for concurrent use.
type Resolver struct {
	logger        *slog.Logger
	now           func() time.Time
	oracle        Oracle
	threshold     float64
	oracleTimeout time.Duration
	dayFirst      bool
	grammar       *when.Parser
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithOracle enables escalation to oracle.
func WithOracle(o Oracle) Option {
	return func(r *Resolver) { r.oracle = o }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithDayFirst reads numeric dates as day/month/year.
func WithDayFirst(dayFirst bool) Option {
	return func(r *Resolver) { r.dayFirst = dayFirst }
}

// WithOracleTimeout bounds a single escalation call.
func WithOracleTimeout(timeout time.Duration) Option {
	return func(r *Resolver) { r.oracleTimeout = timeout }
}

// WithFallbackThreshold overrides DefaultFallbackThreshold.
func WithFallbackThreshold(threshold float64) Option {
	return func(r *Resolver) { r.threshold = threshold }
}

// NewResolver returns a Resolver configured by opts.
func NewResolver(opts ...Option) *Resolver {
	grammar := when.New(nil)
	grammar.Add(en.All...)
	grammar.Add(common.All...)

	resolver := &Resolver{
		logger:        slog.Default(),
		now:           time.Now,
		threshold:     DefaultFallbackThreshold,
		oracleTimeout: defaultOracleTimeout,
		grammar:       grammar,
	}

	for _, opt := range opts {
		opt(resolver)
	}

	resolver.logger = resolver.logger.With("module", "date_resolver")

	return resolver
}

// Resolve parses text with the local grammar only.
func (r *Resolver) Resolve(text string) models.DateParseResult {
	source := strings.TrimSpace(text)
	if source == "" {
		return failure(text, models.DateFailureEmpty, "Date string cannot be empty")
	}

	now := r.now()
	normalized := normalize(source)

	if normalized != strings.ToLower(source) {
		r.logger.Debug("Normalized date expression", "from", source, "to", normalized)
	}

	resolved, ok := r.parse(source, normalized, now)
	if !ok {
		return failure(source, models.DateFailureUnparsable, fmt.Sprintf("Could not parse date: '%s'", source))
	}

	if result, ok := validate(source, resolved, now); !ok {
		return result
	}

	return models.DateParseResult{
		Success:    true,
		ResolvedAt: &resolved,
		Confidence: confidence(normalized, resolved),
		SourceText: source,
		Source:     models.DateSourceLocal,
	}
}

// ResolveWithFallback resolves locally and escalates to the oracle when the
// local parse fails or scores below the threshold. When escalation does not
// produce a valid date the local result is returned unchanged.
func (r *Resolver) ResolveWithFallback(ctx context.Context, text string) models.DateParseResult {
	local := r.Resolve(text)
	if local.Success && local.Confidence >= r.threshold {
		return local
	}

	if local.Failure == models.DateFailureEmpty || r.oracle == nil {
		return local
	}

	r.logger.DebugContext(ctx, "Escalating date to oracle", "confidence", local.Confidence, "failure", local.Failure)

	escalated := r.ResolveWithOracle(ctx, text)
	if escalated.Success {
		return escalated
	}

	return local
}

// ResolveWithOracle skips the local grammar and asks the oracle directly.
func (r *Resolver) ResolveWithOracle(ctx context.Context, text string) models.DateParseResult {
	source := strings.TrimSpace(text)
	if source == "" {
		return failure(text, models.DateFailureEmpty, "Date string cannot be empty")
	}

	if r.oracle == nil {
		return failure(source, models.DateFailureUnparsable, "Date oracle not available for date parsing")
	}

	if r.oracleTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.oracleTimeout)
		defer cancel()
	}

	now := r.now()

	reply, err := r.oracle.ResolveDate(ctx, source, now)
	if err != nil {
		r.logger.WarnContext(ctx, "Date oracle failed", "error", err)

		return failure(source, models.DateFailureUnparsable, fmt.Sprintf("Date oracle failed: %v", err))
	}

	if !reply.Success {
		reason := reply.Reasoning
		if reason == "" {
			reason = "Unknown reason"
		}

		return failure(source, models.DateFailureUnparsable, "Date oracle could not parse date: "+reason)
	}

	resolved, err := reply.Time(now.Location())
	if err != nil {
		r.logger.WarnContext(ctx, "Date oracle returned an impossible date", "error", err)

		return failure(source, models.DateFailureUnparsable, err.Error())
	}

	if result, ok := validate(source, resolved, now); !ok {
		return result
	}

	r.logger.InfoContext(ctx, "Date resolved by oracle", "resolved_at", resolved, "confidence", reply.ConfidenceOrDefault())

	return models.DateParseResult{
		Success:    true,
		ResolvedAt: &resolved,
		Confidence: reply.ConfidenceOrDefault(),
		SourceText: source,
		Source:     models.DateSourceOracle,
		Reasoning:  reply.Reasoning,
	}
}

// parse runs the grammar layers in order: explicit layouts, built-in relative
// and calendar rules, the general grammar, then the weekday-and-time parser.
func (r *Resolver) parse(source, normalized string, now time.Time) (time.Time, bool) {
	if resolved, ok := parseLayouts(normalized, now, r.dayFirst); ok {
		return resolved, true
	}

	if resolved, ok := parseRelative(normalized, now); ok {
		return resolved, true
	}

	match, err := r.grammar.Parse(normalized, now)
	if err == nil && match != nil {
		return match.Time, true
	}

	return parseWeekdayTime(source, now)
}

func validate(source string, resolved, now time.Time) (models.DateParseResult, bool) {
	if resolved.Before(now) {
		return failure(source, models.DateFailurePast, "Date cannot be in the past"), false
	}

	if resolved.After(now.AddDate(0, 0, 365*MaxFutureYears)) {
		return failure(source, models.DateFailureFarFuture,
			fmt.Sprintf("Date cannot be more than %d years in the future", MaxFutureYears)), false
	}

	return models.DateParseResult{}, true
}

func failure(source string, kind models.DateFailure, reason string) models.DateParseResult {
	return models.DateParseResult{
		Success:     false,
		Confidence:  0,
		ErrorReason: reason,
		SourceText:  source,
		Failure:     kind,
	}
}
