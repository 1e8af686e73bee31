package application

import (
	"regexp"
	"time"
)

// DateLayout is the calendar-date form used when a record's LastUpdated is shown.
const DateLayout = "2006-01-02"

// Record is the status entry stored for one submission.
type Record struct {
	SubmissionID string
	Status       string
	LastUpdated  time.Time
}

// LastUpdatedDate renders LastUpdated as YYYY-MM-DD.
func (r Record) LastUpdatedDate() string {
	return r.LastUpdated.Format(DateLayout)
}

// SeedRecords returns the records the static table is built from.
func SeedRecords() []Record {
	return []Record{
		{SubmissionID: "RCT-123-456-7890", Status: "Under Review", LastUpdated: date(2023, time.August, 25)},
		{SubmissionID: "RCT-234-567-8901", Status: "Approved", LastUpdated: date(2023, time.August, 24)},
		{SubmissionID: "RCT-345-678-9012", Status: "Additional Information Required", LastUpdated: date(2023, time.August, 23)},
	}
}

// FormatHint describes the expected submission id layout to users.
const FormatHint = "RCT-XXX-XXX-XXXX"

var submissionIDPattern = regexp.MustCompile(`^RCT-\d{3}-\d{3}-\d{4}$`)

// LooksLikeSubmissionID reports whether id has the RCT-XXX-XXX-XXXX shape.
// It is a hint for the UI only; lookups never reject on format.
func LooksLikeSubmissionID(id string) bool {
	return submissionIDPattern.MatchString(id)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
