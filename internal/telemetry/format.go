package telemetry

import "fmt"

// FormatMinutes renders a minute total the way the dashboard displays it:
// "45 мин" under an hour, "2 ч 5 мин" above.
func FormatMinutes(n int) string {
	if n < 0 {
		n = 0
	}
	if n < 60 {
		return fmt.Sprintf("%d мин", n)
	}
	return fmt.Sprintf("%d ч %d мин", n/60, n%60)
}
