package gmail

import (
	"fmt"
	"strings"
	"time"
)

// queryDateLayout is the date format of Gmail's after:/before: operators
const queryDateLayout = "2006/01/02"

// LowerBound returns the local calendar date lookbackDays before now
func LowerBound(now time.Time, lookbackDays int) time.Time {
	local := now.Local()
	return local.AddDate(0, 0, -lookbackDays)
}

// BuildQuery constructs a Gmail search query selecting messages with the
// given label and subject received on or after now minus lookbackDays.
// Clauses are space separated, which Gmail treats as AND.
func BuildQuery(label, subject string, lookbackDays int, now time.Time) string {
	var parts []string

	if label != "" {
		parts = append(parts, "label:"+queryValue(label))
	}
	if subject != "" {
		parts = append(parts, "subject:"+queryValue(subject))
	}

	parts = append(parts, fmt.Sprintf("after:%s", LowerBound(now, lookbackDays).Format(queryDateLayout)))

	return strings.Join(parts, " ")
}

// queryValue quotes values containing whitespace so they stay one clause
func queryValue(v string) string {
	if strings.ContainsAny(v, " \t") {
		return `"` + strings.ReplaceAll(v, `"`, "") + `"`
	}
	return v
}
