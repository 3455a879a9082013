package dates

import (
	"strconv"
	"strings"
	"time"
)

const (
	confidenceExplicit = 0.95
	confidenceClock    = 0.9
	confidenceCalendar = 0.85
	confidenceRelative = 0.8
	confidenceDefault  = 0.7
	confidenceVague    = 0.5
)

var (
	explicitMarkers = []string{"-", "/", ":", "at ", "am", "pm"}
	clockMarkers    = []string{"at ", "am", "pm", ":"}
	relativeMarkers = []string{
		"tomorrow", "next week", "next month",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"in ", "days", "weeks", "months",
	}
	monthMarkers = []string{
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "oct", "nov", "dec",
	}
	vagueMarkers = []string{"sometime", "later", "soon", "eventually"}
)

// confidence scores a successful parse by the form of the normalized input:
// explicit timestamps highest, vague words lowest.
func confidence(normalized string, resolved time.Time) float64 {
	text := strings.ToLower(normalized)

	switch {
	case containsAny(text, explicitMarkers) && strings.Contains(text, strconv.Itoa(resolved.Year())):
		return confidenceExplicit
	case containsAny(text, clockMarkers):
		return confidenceClock
	case containsAny(text, relativeMarkers):
		return confidenceRelative
	case containsAny(text, monthMarkers):
		return confidenceCalendar
	case containsAny(text, vagueMarkers):
		return confidenceVague
	default:
		return confidenceDefault
	}
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}

	return false
}
