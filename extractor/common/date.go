package common

import (
	"net/mail"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// ExtractDate finds the transaction date in notification text. Numeric
// dates are read day-first per Mexican convention, with year-first as the
// second attempt. It never fails: when the text has no usable date the
// email's own Date header is used, and failing that the current time.
func ExtractDate(text string, emailDate string) time.Time {
	normalized := Normalize(text)

	dayFirst := regexp.MustCompile(viper.GetString("pipeline.date.patterns.day_first"))
	for _, match := range dayFirst.FindAllStringSubmatch(normalized, -1) {
		if len(match) != 4 {
			continue
		}
		if parsed, ok := dateFromParts(match[3], match[2], match[1]); ok {
			return parsed
		}
	}

	yearFirst := regexp.MustCompile(viper.GetString("pipeline.date.patterns.year_first"))
	for _, match := range yearFirst.FindAllStringSubmatch(normalized, -1) {
		if len(match) != 4 {
			continue
		}
		if parsed, ok := dateFromParts(match[1], match[2], match[3]); ok {
			return parsed
		}
	}

	if emailDate != "" {
		if parsed, err := mail.ParseDate(emailDate); err == nil {
			return parsed.UTC()
		}
	}

	return time.Now().UTC()
}

// dateFromParts builds a UTC midnight date and rejects anything that does
// not survive the round trip, so 31/02 or month 13 fall through to the
// next candidate instead of silently normalizing into March.
func dateFromParts(year, month, day string) (time.Time, bool) {
	y, errYear := strconv.Atoi(year)
	m, errMonth := strconv.Atoi(month)
	d, errDay := strconv.Atoi(day)
	if errYear != nil || errMonth != nil || errDay != nil {
		return time.Time{}, false
	}

	parsed := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if parsed.Year() != y || parsed.Month() != time.Month(m) || parsed.Day() != d {
		return time.Time{}, false
	}
	return parsed, true
}
