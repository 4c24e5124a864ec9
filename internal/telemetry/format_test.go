package telemetry

import "testing"

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		name     string
		minutes  int
		expected string
	}{
		{"zero", 0, "0 мин"},
		{"under an hour", 45, "45 мин"},
		{"exactly one hour", 60, "1 ч 0 мин"},
		{"hours and minutes", 125, "2 ч 5 мин"},
		{"negative clamps to zero", -3, "0 мин"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := FormatMinutes(tc.minutes)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}
