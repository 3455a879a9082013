package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type timeOfDay struct {
	word   string
	hour   int
	minute int
}

// Longer words first so "afternoon" and "midnight" are not split by "noon" and "night".
var timesOfDay = []timeOfDay{
	{"afternoon", 14, 0},
	{"midnight", 23, 59},
	{"morning", 9, 0},
	{"evening", 18, 0},
	{"noon", 12, 0},
	{"night", 20, 0},
}

var (
	timeOfDayRes = func() []*regexp.Regexp {
		res := make([]*regexp.Regexp, len(timesOfDay))
		for i, tod := range timesOfDay {
			res[i] = regexp.MustCompile(`\b` + tod.word + `\b`)
		}

		return res
	}()

	atWordRe      = regexp.MustCompile(`\bat\b`)
	bareHourRe    = regexp.MustCompile(`at\s+(\d{1,2})(?::(\d{2}))?\s*$`)
	meridiemRe    = regexp.MustCompile(`\d\s*(am|pm)\b|\b(am|pm)\b`)
	weekdayTimeRe = regexp.MustCompile(`^(next\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\s+at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
	clockRe       = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
	relativeDayRe = regexp.MustCompile(`^(today|tomorrow|yesterday|day after tomorrow)(?:\s+at\s+(.+))?$`)
	offsetRe      = regexp.MustCompile(`^in\s+(\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+(minute|hour|day|week|month|year)s?$`)
	agoRe         = regexp.MustCompile(`^(\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+(minute|hour|day|week|month|year)s?\s+ago$`)
	nextPeriodRe  = regexp.MustCompile(`^next\s+(week|month|year)$`)
	monthDayRe    = regexp.MustCompile(`^(?:on\s+)?([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?(?:\s+at\s+(.+))?$`)
	dayMonthRe    = regexp.MustCompile(`^(?:on\s+)?(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?([a-z]+)\.?(?:,?\s+(\d{4}))?(?:\s+at\s+(.+))?$`)
	numericDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:\s+(.+))?$`)
)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday, "sunday": time.Sunday,
}

// normalize lowercases the text and rewrites casual phrasing into explicit
// clock times: "tonight" becomes today in the evening, time-of-day words become
// "at Ham/pm", and a trailing bare hour gets am or pm.
func normalize(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))

	if strings.HasPrefix(normalized, "tonight") {
		normalized = strings.Replace(normalized, "tonight", "today", 1)

		switch {
		case strings.TrimSpace(normalized) == "today":
			normalized = "today at 8pm"
		case atWordRe.MatchString(normalized) && !meridiemRe.MatchString(normalized):
			normalized += "pm"
		}
	}

	for i, tod := range timesOfDay {
		normalized = timeOfDayRes[i].ReplaceAllString(normalized, "at "+formatClock(tod.hour, tod.minute))
	}

	if match := bareHourRe.FindStringSubmatch(normalized); match != nil {
		hour, _ := strconv.Atoi(match[1])

		minutes := match[2]
		if minutes == "" {
			minutes = "00"
		}

		switch {
		case hour >= 1 && hour <= 7:
			normalized = bareHourRe.ReplaceAllString(normalized, fmt.Sprintf("at %d:%spm", hour, minutes))
		case hour >= 8 && hour <= 11:
			normalized = bareHourRe.ReplaceAllString(normalized, fmt.Sprintf("at %d:%sam", hour, minutes))
		}
	}

	return strings.Join(strings.Fields(normalized), " ")
}

func formatClock(hour, minute int) string {
	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}

	display := hour
	if display > 12 {
		display -= 12
	}

	if display == 0 {
		display = 12
	}

	if minute != 0 {
		return fmt.Sprintf("%d:%02d%s", display, minute, suffix)
	}

	return fmt.Sprintf("%d%s", display, suffix)
}

// parseClock reads "3pm", "3:30 pm" or "15:00" into an hour and minute.
func parseClock(text string) (int, int, bool) {
	match := clockRe.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return 0, 0, false
	}

	hour, _ := strconv.Atoi(match[1])

	minute := 0
	if match[2] != "" {
		minute, _ = strconv.Atoi(match[2])
	}

	switch match[3] {
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}

		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}

		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return 0, 0, false
	}

	return hour, minute, true
}

func atClock(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func quantity(word string) int {
	if n, ok := numberWords[word]; ok {
		return n
	}

	n, _ := strconv.Atoi(word)

	return n
}

func shift(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "minute":
		return now.Add(time.Duration(n) * time.Minute)
	case "hour":
		return now.Add(time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, n)
	case "week":
		return now.AddDate(0, 0, 7*n)
	case "month":
		return now.AddDate(0, n, 0)
	default:
		return now.AddDate(n, 0, 0)
	}
}

// parseLayouts handles explicit ISO timestamps and numeric slash dates.
func parseLayouts(text string, now time.Time, dayFirst bool) (time.Time, bool) {
	for _, layout := range isoLayouts {
		parsed, err := time.ParseInLocation(layout, text, now.Location())
		if err == nil {
			return parsed, true
		}

		parsed, err = time.ParseInLocation(layout, strings.ToUpper(text), now.Location())
		if err == nil {
			return parsed, true
		}
	}

	match := numericDateRe.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false
	}

	first, _ := strconv.Atoi(match[1])
	second, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])

	month, day := first, second
	if dayFirst {
		month, day = second, first
	}

	hour, minute := 0, 0

	if match[4] != "" {
		var ok bool

		hour, minute, ok = parseClock(strings.TrimPrefix(match[4], "at "))
		if !ok {
			return time.Time{}, false
		}
	}

	return calendarDate(year, month, day, hour, minute, now.Location())
}

// calendarDate builds a date, rejecting values time.Date would normalize.
func calendarDate(year, month, day, hour, minute int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	date := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if date.Day() != day || int(date.Month()) != month {
		return time.Time{}, false
	}

	return date, true
}

// parseRelative handles day words, offsets and calendar dates with an optional clock time.
func parseRelative(text string, now time.Time) (time.Time, bool) {
	if match := relativeDayRe.FindStringSubmatch(text); match != nil {
		days := map[string]int{"today": 0, "tomorrow": 1, "yesterday": -1, "day after tomorrow": 2}[match[1]]
		day := now.AddDate(0, 0, days)

		if match[2] == "" {
			return day, true
		}

		hour, minute, ok := parseClock(match[2])
		if !ok {
			return time.Time{}, false
		}

		return atClock(day, hour, minute), true
	}

	if match := offsetRe.FindStringSubmatch(text); match != nil {
		return shift(now, quantity(match[1]), match[2]), true
	}

	if match := agoRe.FindStringSubmatch(text); match != nil {
		return shift(now, -quantity(match[1]), match[2]), true
	}

	if match := nextPeriodRe.FindStringSubmatch(text); match != nil {
		return shift(now, 1, match[1]), true
	}

	if match := monthDayRe.FindStringSubmatch(text); match != nil {
		return calendarDay(now, match[1], match[2], match[3], match[4])
	}

	if match := dayMonthRe.FindStringSubmatch(text); match != nil {
		return calendarDay(now, match[2], match[1], match[3], match[4])
	}

	return time.Time{}, false
}

// calendarDay resolves a month name and day. Without an explicit year the
// next occurrence from today is used.
func calendarDay(now time.Time, monthWord, dayText, yearText, clockText string) (time.Time, bool) {
	month, ok := monthNames[monthWord]
	if !ok {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(dayText)

	hour, minute := 0, 0
	if clockText != "" {
		hour, minute, ok = parseClock(clockText)
		if !ok {
			return time.Time{}, false
		}
	}

	if yearText != "" {
		year, _ := strconv.Atoi(yearText)

		return calendarDate(year, int(month), day, hour, minute, now.Location())
	}

	date, ok := calendarDate(now.Year(), int(month), day, hour, minute, now.Location())
	if !ok {
		return calendarDate(now.Year()+1, int(month), day, hour, minute, now.Location())
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return calendarDate(now.Year()+1, int(month), day, hour, minute, now.Location())
	}

	return date, true
}

// parseWeekdayTime is the second-chance parser for "[next] friday at 2:30pm".
// A bare hour is read as pm for 1-7 and am otherwise.
func parseWeekdayTime(text string, now time.Time) (time.Time, bool) {
	match := weekdayTimeRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(text)))
	if match == nil {
		return time.Time{}, false
	}

	isNext := match[1] != ""
	target := weekdays[match[2]]

	hour, _ := strconv.Atoi(match[3])

	minute := 0
	if match[4] != "" {
		minute, _ = strconv.Atoi(match[4])
	}

	meridiem := match[5]
	if meridiem == "" {
		meridiem = "am"
		if hour >= 1 && hour <= 7 {
			meridiem = "pm"
		}
	}

	switch {
	case meridiem == "pm" && hour != 12:
		hour += 12
	case meridiem == "am" && hour == 12:
		hour = 0
	}

	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	daysAhead := int(target) - int(now.Weekday())
	if daysAhead <= 0 {
		daysAhead += 7
	}

	if isNext && daysAhead < 7 {
		daysAhead += 7
	}

	return atClock(now.AddDate(0, 0, daysAhead), hour, minute), true
}
