package timing

import (
	"errors"
	"math"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"00:00:00", 0},
		{"01:00:00.00", 3600},
		{"01:05:30.50", 3930.5},
		{"23:59:59.99", 86399.99},
		{"1:2:3", 3723},
		{" 01:00:00 ", 3600},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseClock(tc.in)
			if err != nil {
				t.Fatalf("ParseClock(%q) error = %v", tc.in, err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("ParseClock(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseClock_Invalid(t *testing.T) {
	for _, in := range []string{"", "01:00", "01:00:00:00", "aa:00:00", "01:-5:00", "01:00:xx", "::",
		"0x1p4:00:00", "1e1:00:00", "+1:00:00", "01:00:1_0", "01:00:.5", "01:00:5.", "Inf:00:00", "NaN:00:00",
	} {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseClock(in); !errors.Is(err, ErrInvalidClock) {
				t.Errorf("ParseClock(%q) err = %v, want ErrInvalidClock", in, err)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00.00"},
		{330.5, "00:05:30.50"},
		{3930.5, "01:05:30.50"},
		{59.999, "00:01:00.00"},
		{-30.5, "-00:00:30.50"},
		{-0.001, "00:00:00.00"},
		{86399.99, "23:59:59.99"},
	}
	for _, tc := range tests {
		if got := FormatClock(tc.in); got != tc.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClockRoundTrip(t *testing.T) {
	for _, in := range []string{"00:00:00.00", "01:05:30.50", "12:34:56.78", "7:8:9.1"} {
		secs, err := ParseClock(in)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", in, err)
		}
		back, err := ParseClock(FormatClock(secs))
		if err != nil {
			t.Fatalf("ParseClock(FormatClock(%q)): %v", in, err)
		}
		if math.Abs(back-secs) > 0.005 {
			t.Errorf("round trip %q: %v -> %v", in, secs, back)
		}
	}
}
