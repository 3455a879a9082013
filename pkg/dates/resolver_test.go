package dates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/oracle"
)

// Tuesday.
var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

type fakeOracle struct {
	reply *oracle.DateReply
	err   error
	block bool
	calls int
}

func (f *fakeOracle) ResolveDate(ctx context.Context, _ string, _ time.Time) (*oracle.DateReply, error) {
	f.calls++

	if f.block {
		<-ctx.Done()

		return nil, ctx.Err()
	}

	return f.reply, f.err
}

func intPtr(v int) *int { return &v }

func TestResolve_EmptyInput(t *testing.T) {
	resolver := NewResolver(WithClock(fixedClock))

	for _, input := range []string{"", "   "} {
		result := resolver.Resolve(input)

		assert.False(t, result.Success)
		assert.Equal(t, models.DateFailureEmpty, result.Failure)
		assert.Equal(t, "Date string cannot be empty", result.ErrorReason)
		assert.Nil(t, result.ResolvedAt)
	}
}

func TestResolve_Validation(t *testing.T) {
	resolver := NewResolver(WithClock(fixedClock))

	past := resolver.Resolve("yesterday")
	assert.False(t, past.Success)
	assert.Equal(t, models.DateFailurePast, past.Failure)
	assert.Contains(t, past.ErrorReason, "past")
	assert.Equal(t, "yesterday", past.SourceText)

	future := resolver.Resolve("in 15 years")
	assert.False(t, future.Success)
	assert.Equal(t, models.DateFailureFarFuture, future.Failure)
	assert.Contains(t, future.ErrorReason, "10 years")

	unparsable := resolver.Resolve("xyzzy plugh")
	assert.False(t, unparsable.Success)
	assert.Equal(t, models.DateFailureUnparsable, unparsable.Failure)
	assert.Equal(t, "Could not parse date: 'xyzzy plugh'", unparsable.ErrorReason)
}

func TestResolve_Expressions(t *testing.T) {
	resolver := NewResolver(WithClock(fixedClock))

	tests := []struct {
		input      string
		want       time.Time
		confidence float64
	}{
		{"2027-02-15 14:30", time.Date(2027, 2, 15, 14, 30, 0, 0, time.UTC), 0.95},
		{"2027-02-15", time.Date(2027, 2, 15, 0, 0, 0, 0, time.UTC), 0.95},
		{"02/15/2027", time.Date(2027, 2, 15, 0, 0, 0, 0, time.UTC), 0.95},
		{"tomorrow", time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), 0.8},
		{"tomorrow at 3pm", time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC), 0.9},
		{"Tomorrow morning", time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), 0.9},
		{"tomorrow afternoon", time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC), 0.9},
		{"tomorrow midnight", time.Date(2026, 3, 11, 23, 59, 0, 0, time.UTC), 0.9},
		{"tomorrow at 5", time.Date(2026, 3, 11, 17, 0, 0, 0, time.UTC), 0.9},
		{"tomorrow at 10", time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC), 0.9},
		{"tonight", time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC), 0.9},
		{"tonight at 8", time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC), 0.9},
		{"in 3 days", time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC), 0.8},
		{"in two weeks", time.Date(2026, 3, 24, 9, 0, 0, 0, time.UTC), 0.8},
		{"next month", time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC), 0.8},
		{"January 20", time.Date(2027, 1, 20, 0, 0, 0, 0, time.UTC), 0.85},
		{"march 20 at 2pm", time.Date(2026, 3, 20, 14, 0, 0, 0, time.UTC), 0.9},
		{"20th of april", time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := resolver.Resolve(tt.input)

			require.True(t, result.Success, result.ErrorReason)
			require.NotNil(t, result.ResolvedAt)
			assert.Equal(t, tt.want, *result.ResolvedAt)
			assert.InDelta(t, tt.confidence, result.Confidence, 0.001)
			assert.Equal(t, models.DateSourceLocal, result.Source)
		})
	}
}

func TestResolve_DayFirst(t *testing.T) {
	monthFirst := NewResolver(WithClock(fixedClock))
	dayFirst := NewResolver(WithClock(fixedClock), WithDayFirst(true))

	result := dayFirst.Resolve("15/02/2027")
	require.True(t, result.Success)
	assert.Equal(t, time.Date(2027, 2, 15, 0, 0, 0, 0, time.UTC), *result.ResolvedAt)

	result = monthFirst.Resolve("03/04/2027")
	require.True(t, result.Success)
	assert.Equal(t, time.March, result.ResolvedAt.Month())

	result = dayFirst.Resolve("03/04/2027")
	require.True(t, result.Success)
	assert.Equal(t, time.April, result.ResolvedAt.Month())
}

func TestResolve_WeekdayWithTime(t *testing.T) {
	resolver := NewResolver(WithClock(fixedClock))

	result := resolver.Resolve("next friday at 3pm")
	require.True(t, result.Success, result.ErrorReason)
	assert.Equal(t, time.Friday, result.ResolvedAt.Weekday())
	assert.Equal(t, 15, result.ResolvedAt.Hour())
	assert.True(t, result.ResolvedAt.After(now))
}

func TestParseWeekdayTime(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"friday at 2", time.Date(2026, 3, 13, 14, 0, 0, 0, time.UTC)},
		{"next friday at 2:30pm", time.Date(2026, 3, 20, 14, 30, 0, 0, time.UTC)},
		{"tuesday at 9", time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)},
		{"Monday at 12am", time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, ok := parseWeekdayTime(tt.input, now)
		require.True(t, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, ok := parseWeekdayTime("someday at 3", now)
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Tomorrow Afternoon": "tomorrow at 2pm",
		"tonight":            "today at 8pm",
		"tonight at 7":       "today at 7pm",
		"tomorrow at 10":     "tomorrow at 10:00am",
		"friday evening":     "friday at 6pm",
		"midnight":           "at 11:59pm",
		"next week":          "next week",
	}

	for input, want := range tests {
		assert.Equal(t, want, normalize(input), input)
	}
}

func TestConfidence(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 0.95, confidence("2026-05-01", at), 0.001)
	assert.InDelta(t, 0.9, confidence("may 1 at 3pm", at), 0.001)
	assert.InDelta(t, 0.8, confidence("next week", at), 0.001)
	assert.InDelta(t, 0.85, confidence("may 1", at), 0.001)
	assert.InDelta(t, 0.5, confidence("sometime soon", at), 0.001)
	assert.InDelta(t, 0.7, confidence("eod", at), 0.001)
}

func TestResolveWithFallback_ConfidentLocalSkipsOracle(t *testing.T) {
	fake := &fakeOracle{}
	resolver := NewResolver(WithClock(fixedClock), WithOracle(fake))

	result := resolver.ResolveWithFallback(context.Background(), "tomorrow at 3pm")

	assert.True(t, result.Success)
	assert.Equal(t, 0, fake.calls)
}

func TestResolveWithFallback_EscalatesUnparsable(t *testing.T) {
	fake := &fakeOracle{reply: &oracle.DateReply{
		Success: true, Year: 2026, Month: 3, Day: 20, Hour: intPtr(17), Minute: intPtr(0), Reasoning: "the review is on the 20th",
	}}
	resolver := NewResolver(WithClock(fixedClock), WithOracle(fake))

	result := resolver.ResolveWithFallback(context.Background(), "xyzzy plugh")

	require.True(t, result.Success)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, models.DateSourceOracle, result.Source)
	assert.Equal(t, time.Date(2026, 3, 20, 17, 0, 0, 0, time.UTC), *result.ResolvedAt)
	assert.InDelta(t, 0.85, result.Confidence, 0.001)
	assert.Equal(t, "the review is on the 20th", result.Reasoning)
}

func TestResolveWithFallback_OracleFailureKeepsLocalResult(t *testing.T) {
	tests := map[string]*fakeOracle{
		"transport error": {err: errors.New("connection refused")},
		"declined":        {reply: &oracle.DateReply{Success: false, Reasoning: "no idea"}},
		"past answer":     {reply: &oracle.DateReply{Success: true, Year: 2020, Month: 1, Day: 1}},
		"far future":      {reply: &oracle.DateReply{Success: true, Year: 2099, Month: 1, Day: 1}},
		"impossible date": {reply: &oracle.DateReply{Success: true, Year: 2026, Month: 2, Day: 31}},
	}

	for name, fake := range tests {
		t.Run(name, func(t *testing.T) {
			resolver := NewResolver(WithClock(fixedClock), WithOracle(fake))

			result := resolver.ResolveWithFallback(context.Background(), "xyzzy plugh")

			assert.False(t, result.Success)
			assert.Equal(t, 1, fake.calls)
			assert.Equal(t, models.DateFailureUnparsable, result.Failure)
			assert.Equal(t, "Could not parse date: 'xyzzy plugh'", result.ErrorReason)
		})
	}
}

func TestResolveWithFallback_SkipsOracleForEmptyInput(t *testing.T) {
	fake := &fakeOracle{}
	resolver := NewResolver(WithClock(fixedClock), WithOracle(fake))

	result := resolver.ResolveWithFallback(context.Background(), " ")

	assert.Equal(t, models.DateFailureEmpty, result.Failure)
	assert.Equal(t, 0, fake.calls)
}

func TestResolveWithFallback_NoOracle(t *testing.T) {
	resolver := NewResolver(WithClock(fixedClock))

	result := resolver.ResolveWithFallback(context.Background(), "yesterday")
	assert.Equal(t, models.DateFailurePast, result.Failure)
}

func TestResolveWithOracle_Timeout(t *testing.T) {
	fake := &fakeOracle{block: true}
	resolver := NewResolver(WithClock(fixedClock), WithOracle(fake), WithOracleTimeout(20*time.Millisecond))

	started := time.Now()
	result := resolver.ResolveWithOracle(context.Background(), "next full moon")

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorReason, "Date oracle failed")
	assert.Less(t, time.Since(started), time.Second)
}

func TestResolveWithOracle_ForcedEvenWhenLocalWouldParse(t *testing.T) {
	fake := &fakeOracle{reply: &oracle.DateReply{Success: true, Year: 2026, Month: 3, Day: 12, Confidence: func() *float64 { v := 0.99; return &v }()}}
	resolver := NewResolver(WithClock(fixedClock), WithOracle(fake))

	result := resolver.ResolveWithOracle(context.Background(), "tomorrow")

	require.True(t, result.Success)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, 12, result.ResolvedAt.Day())
	assert.Equal(t, 23, result.ResolvedAt.Hour())
	assert.InDelta(t, 0.99, result.Confidence, 0.001)
}

func TestClarificationMessages(t *testing.T) {
	resolver := NewResolver(WithClock(fixedClock))

	assert.Contains(t, ClarificationMessage(resolver.Resolve("yesterday")), "appears to be in the past")
	assert.Contains(t, ClarificationMessage(resolver.Resolve("in 20 years")), "more than 10 years")
	assert.Equal(t,
		"I couldn't understand 'xyzzy' as a date. Try something like 'tomorrow', 'next Friday', 'January 20', or 'in 3 days'.",
		ClarificationMessage(resolver.Resolve("xyzzy")))

	assert.Contains(t, FormatClarificationPrompt("yesterday", "past date"), "'yesterday' appears to be in the past")
	assert.Contains(t, FormatClarificationPrompt("2099", "Date cannot be more than 10 years in the future"), "more than 10 years away")
	assert.Contains(t, FormatClarificationPrompt("blah", "unknown"), "'no deadline' (to skip)")
}
