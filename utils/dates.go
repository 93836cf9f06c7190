package utils

import (
	"regexp"
	"strings"
	"time"
)

// dayFirstFormats are the layouts accepted for dates of birth and statement
// dates, tried in order.
var dayFirstFormats = []string{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
}

const isoFormat = "2006-01-02"

var statementDateRegex = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}[/.\-]\d{1,2}[/.\-]\d{4})\b`)

// ParseDayFirstDate parses DD/MM/YYYY, DD-MM-YYYY or DD.MM.YYYY.
func ParseDayFirstDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dayFirstFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseStatementDate accepts the day-first layouts plus ISO YYYY-MM-DD.
func parseStatementDate(s string) (time.Time, bool) {
	if t, err := time.Parse(isoFormat, s); err == nil {
		return t, true
	}
	return ParseDayFirstDate(s)
}
