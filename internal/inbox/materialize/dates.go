package materialize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",
	"2006-01-02 3:04PM",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006 3:04 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04PM",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 at 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 at 3:04 PM",
	"Monday, January 2, 2006 3:04 PM",
	"Monday, January 2, 2006 at 3:04 PM",
	time.RFC1123Z,
	time.RFC1123,
}

var dateOnlyLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
	"2 January 2006",
}

// parseDate reads the date formats the model emits. dateOnly is true when
// the value carried no time of day.
func parseDate(raw string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return time.Time{}, false, fmt.Errorf("empty date")
	}
	upper := strings.ToUpper(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, upperMeridiem(layout, s, upper), loc); err == nil {
			return t, false, nil
		}
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized date %q", raw)
}

// upperMeridiem lets "3:00 pm" match layouts expecting "PM".
func upperMeridiem(layout, s, upper string) string {
	if strings.Contains(layout, "PM") && (strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM")) {
		return s[:len(s)-2] + upper[len(upper)-2:]
	}
	return s
}

// patchYear replaces a known-bad year. target zero means the current year.
func patchYear(t time.Time, knownBad, target int, now time.Time) time.Time {
	if knownBad == 0 || t.Year() != knownBad {
		return t
	}
	if target == 0 {
		target = now.Year()
	}
	if target == knownBad {
		return t
	}
	return time.Date(target, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	monthDatePattern = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	weekdayPattern   = regexp.MustCompile(`(?i)\b(?:by|due|before|on|this|next)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	relativePattern  = regexp.MustCompile(`(?i)\b(today|tonight|tomorrow|next week|end of (?:the )?week)\b`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

// extractDueDate finds the first date mentioned in free text. Patterns are
// tried in order of precision: ISO dates, numeric dates, month names,
// weekdays, then relative words. The result is midnight of that day in loc.
func extractDueDate(text string, now time.Time, loc *time.Location) *time.Time {
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		if d, ok := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), loc); ok {
			return &d
		}
	}
	if m := slashDatePattern.FindStringSubmatch(text); m != nil {
		if d, ok := dateWithOptionalYear(m[3], time.Month(atoi(m[1])), atoi(m[2]), today, loc); ok {
			return &d
		}
	}
	if m := monthDatePattern.FindStringSubmatch(text); m != nil {
		month := monthsByPrefix[strings.ToLower(m[1])[:3]]
		if d, ok := dateWithOptionalYear(m[3], month, atoi(m[2]), today, loc); ok {
			return &d
		}
	}
	if m := weekdayPattern.FindStringSubmatch(text); m != nil {
		want := weekdays[strings.ToLower(m[1])]
		ahead := (int(want) - int(today.Weekday()) + 7) % 7
		if ahead == 0 || strings.EqualFold(strings.Fields(m[0])[0], "next") {
			ahead += 7
		}
		d := today.AddDate(0, 0, ahead)
		return &d
	}
	if m := relativePattern.FindStringSubmatch(text); m != nil {
		var d time.Time
		switch strings.ToLower(m[1]) {
		case "today", "tonight":
			d = today
		case "tomorrow":
			d = today.AddDate(0, 0, 1)
		case "next week":
			d = today.AddDate(0, 0, 7)
		default:
			d = today.AddDate(0, 0, (int(time.Friday)-int(today.Weekday())+7)%7)
		}
		return &d
	}
	return nil
}

// dateWithOptionalYear builds a date. Without a year the next occurrence on
// or after today is used.
func dateWithOptionalYear(year string, month time.Month, day int, today time.Time, loc *time.Location) (time.Time, bool) {
	if year != "" {
		y := atoi(year)
		if y < 100 {
			y += 2000
		}
		return makeDate(y, int(month), day, loc)
	}
	d, ok := makeDate(today.Year(), int(month), day, loc)
	if ok && d.Before(today) {
		d, ok = makeDate(today.Year()+1, int(month), day, loc)
	}
	return d, ok
}

// makeDate rejects out-of-range parts instead of letting time.Date normalize them.
func makeDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
