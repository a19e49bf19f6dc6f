package domain

import (
	"fmt"
	"time"
)

// QuarterKey identifies a three-month reporting bucket.
type QuarterKey struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// QuarterOf derives the bucket from a calendar date:
// Q1=Jan-Mar, Q2=Apr-Jun, Q3=Jul-Sep, Q4=Oct-Dec.
func QuarterOf(date time.Time) QuarterKey {
	return QuarterKey{
		Year:    date.Year(),
		Quarter: (int(date.Month())-1)/3 + 1,
	}
}

// ParseQuarterKey parses the display form, e.g. "2025 Q1".
func ParseQuarterKey(text string) (QuarterKey, error) {
	var q QuarterKey
	if _, err := fmt.Sscanf(text, "%d Q%d", &q.Year, &q.Quarter); err != nil {
		return QuarterKey{}, fmt.Errorf("invalid quarter %q: %w", text, err)
	}
	if q.Quarter < 1 || q.Quarter > 4 {
		return QuarterKey{}, fmt.Errorf("invalid quarter %q: quarter out of range", text)
	}
	return q, nil
}

// String returns the canonical display form, e.g. "2025 Q1".
func (q QuarterKey) String() string {
	return fmt.Sprintf("%d Q%d", q.Year, q.Quarter)
}

// MonthRange returns the presentation suffix for exported documents,
// e.g. "Jan-Mar" for Q1.
func (q QuarterKey) MonthRange() string {
	switch q.Quarter {
	case 1:
		return "Jan-Mar"
	case 2:
		return "Apr-Jun"
	case 3:
		return "Jul-Sep"
	case 4:
		return "Oct-Dec"
	default:
		return ""
	}
}

// Before reports whether q is chronologically earlier than other.
func (q QuarterKey) Before(other QuarterKey) bool {
	if q.Year != other.Year {
		return q.Year < other.Year
	}
	return q.Quarter < other.Quarter
}
