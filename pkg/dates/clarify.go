package dates

import (
	"fmt"
	"strings"

	"github.com/dukex/taskflow/pkg/models"
)

// ClarificationMessage turns a failed result into the prompt shown to the user
// when a deadline is rejected.
func ClarificationMessage(result models.DateParseResult) string {
	switch result.Failure {
	case models.DateFailurePast:
		return "That date appears to be in the past. Could you provide a future date? " +
			"(e.g., 'tomorrow', 'next week', 'January 20')"
	case models.DateFailureFarFuture:
		return "That date is too far in the future (more than 10 years). " +
			"Please provide a more reasonable deadline."
	default:
		return fmt.Sprintf("I couldn't understand '%s' as a date. "+
			"Try something like 'tomorrow', 'next Friday', 'January 20', or 'in 3 days'.", result.SourceText)
	}
}

// FormatClarificationPrompt builds a longer prompt from the raw input and a
// short reason, offering the option to skip the deadline.
func FormatClarificationPrompt(input, reason string) string {
	lowered := strings.ToLower(reason)

	switch {
	case strings.Contains(lowered, "past"):
		return fmt.Sprintf("'%s' appears to be in the past. When would you like this task to be due? "+
			"(e.g., 'tomorrow at 5pm', 'next week', 'no deadline')", input)
	case strings.Contains(lowered, "future") && strings.Contains(lowered, "10 year"):
		return fmt.Sprintf("'%s' is more than 10 years away. "+
			"Please provide a closer deadline, or say 'no deadline'.", input)
	default:
		return fmt.Sprintf("I couldn't understand '%s' as a date. You can say things like:\n"+
			"• 'tomorrow at 3pm'\n"+
			"• 'next Friday'\n"+
			"• 'January 20'\n"+
			"• 'in 3 days'\n"+
			"• 'no deadline' (to skip)", input)
	}
}
