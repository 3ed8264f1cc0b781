package timeutil

import "time"

// SearchDateLayout is the gateway's batch search date format (MM/DD/YYYY)
const SearchDateLayout = "01/02/2006"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// FormatSearchDate renders a time as a gateway search date, in UTC
func FormatSearchDate(t time.Time) string {
	return t.UTC().Format(SearchDateLayout)
}

// ParseSearchDate parses MM/DD/YYYY and returns midnight UTC of that day
func ParseSearchDate(value string) (time.Time, error) {
	t, err := time.Parse(SearchDateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// StartOfDay returns the start of the day (midnight) in UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBefore returns the start of the day n days before t, in UTC
func DaysBefore(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, -n)
}
