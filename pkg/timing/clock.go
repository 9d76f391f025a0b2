package timing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// clockPart is one HH, MM or SS(.ss) field: plain decimal digits only.
var clockPart = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseClock converts "HH:MM:SS(.fraction)" to seconds since midnight.
// Every part must be unsigned decimal digits with an optional fraction;
// anything else returns ErrInvalidClock.
func ParseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	var vals [3]float64
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if !clockPart.MatchString(p) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		vals[i] = v
	}
	return vals[0]*3600 + vals[1]*60 + vals[2], nil
}

// FormatClock renders seconds as "HH:MM:SS.ss". Negative values keep a leading "-".
func FormatClock(seconds float64) string {
	cs := int64(math.Round(math.Abs(seconds) * 100))
	sign := ""
	if seconds < 0 && cs > 0 {
		sign = "-"
	}
	h := cs / 360000
	m := (cs / 6000) % 60
	s := float64(cs%6000) / 100
	return fmt.Sprintf("%s%02d:%02d:%05.2f", sign, h, m, s)
}

// roundCentis rounds v to two decimal places.
func roundCentis(v float64) float64 {
	return math.Round(v*100) / 100
}
