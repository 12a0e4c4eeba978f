package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// closingFormats are the calendar forms the council has used for the notice
// heading, day-first throughout (Australian source).
var closingFormats = []string{
	"2 January 2006",
	"02 January 2006",
	"2 Jan 2006",
	"2/1/2006",
	"02/01/2006",
}

var (
	closingPrefixRe = regexp.MustCompile(`(?i)^closing\b[:\s]*`)

	// Fallbacks for headings with surrounding words, e.g.
	// "submissions by 14/3/2025" or "applications closing 14 March 2025".
	monthNameDateRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+(20\d{2})\b`)
	slashDateRe     = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(20\d{2})\b`)
)

// cleanClosingHeading trims the literal "closing" prefix and surrounding
// punctuation off the heading text before parsing.
func cleanClosingHeading(s string) string {
	s = normalizeSpace(s)
	s = closingPrefixRe.ReplaceAllString(s, "")
	return strings.Trim(s, " :.-")
}

// normalizeClosingDate converts a closing-date heading into a calendar date.
// It returns (nil, nil) when the heading is absent, and (nil, error) when a
// heading is present but unparsable; the caller reports the latter once per
// page and proceeds without a date. Dates are day-only, midnight UTC.
func normalizeClosingDate(heading string) (*time.Time, error) {
	cleaned := cleanClosingHeading(heading)
	if cleaned == "" {
		return nil, nil
	}

	for _, format := range closingFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return dateOnly(t), nil
		}
	}

	if m := monthNameDateRe.FindStringSubmatch(cleaned); m != nil {
		if t, err := time.Parse("2 January 2006", fmt.Sprintf("%s %s %s", m[1], m[2], m[3])); err == nil {
			return dateOnly(t), nil
		}
	}
	if m := slashDateRe.FindStringSubmatch(cleaned); m != nil {
		if t, err := time.Parse("2/1/2006", m[0]); err == nil {
			return dateOnly(t), nil
		}
	}

	return nil, fmt.Errorf("unable to parse closing date: %q", heading)
}

func dateOnly(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
