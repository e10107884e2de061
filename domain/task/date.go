package task

import "time"

// DateLayout renders dd/mm/yy.
const DateLayout = "02/01/06"

// FormatDate formats t as dd/mm/yy using the local calendar.
// The zero time yields an empty string.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DateLayout)
}
