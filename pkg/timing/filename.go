package timing

import (
	"regexp"
	"strconv"
	"strings"
)

var tokenPattern = regexp.MustCompile(`(?i)^(PC|CO)(\d+)(START|GOAL)$`)

// Tokenize decodes a file name like "PC1GOAL_PC2START.csv" into section tokens.
//
// One trailing ".csv" is stripped, the rest is split on "_" and every component
// must match (PC|CO)<n>(START|GOAL), case-insensitively, with n > 0. If any
// component fails, the whole name is rejected and Tokenize returns nil.
func Tokenize(filename string) []SectionToken {
	base := strings.TrimSuffix(filename, ".csv")
	parts := strings.Split(base, "_")

	tokens := make([]SectionToken, 0, len(parts))
	for _, part := range parts {
		m := tokenPattern.FindStringSubmatch(part)
		if m == nil {
			return nil
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n <= 0 {
			return nil
		}
		tokens = append(tokens, SectionToken{
			Category:  strings.ToUpper(m[1]),
			Number:    n,
			Direction: Direction(strings.ToUpper(m[3])),
		})
	}
	return tokens
}

// ValidFileName reports whether filename yields at least one section token.
func ValidFileName(filename string) bool {
	return len(Tokenize(filename)) > 0
}

// SectionID returns the canonical section id, e.g. "PC1".
func (t SectionToken) SectionID() string {
	return t.Category + strconv.Itoa(t.Number)
}

func (t SectionToken) String() string {
	return t.SectionID() + string(t.Direction)
}
