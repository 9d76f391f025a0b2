package timing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		want []SectionToken
	}{
		{"PC1START.csv", []SectionToken{{"PC", 1, DirectionStart}}},
		{"co12goal.csv", []SectionToken{{"CO", 12, DirectionGoal}}},
		{"PC1GOAL_PC2START.csv", []SectionToken{{"PC", 1, DirectionGoal}, {"PC", 2, DirectionStart}}},
		{"PC3GOAL", []SectionToken{{"PC", 3, DirectionGoal}}},
		{"PC01START.csv", []SectionToken{{"PC", 1, DirectionStart}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Tokenize(tc.name)); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tc.name, diff)
			}
		})
	}
}

func TestTokenize_RejectsWholeName(t *testing.T) {
	for _, name := range []string{
		"",
		".csv",
		"results.csv",
		"PC1START_notes.csv",
		"PC1START__PC2GOAL.csv",
		"PC0START.csv",
		"XX1START.csv",
		"PC1MIDDLE.csv",
		"PC1START.csv.csv",
	} {
		t.Run(name, func(t *testing.T) {
			if got := Tokenize(name); len(got) != 0 {
				t.Errorf("Tokenize(%q) = %v, want empty", name, got)
			}
			if ValidFileName(name) {
				t.Errorf("ValidFileName(%q) = true", name)
			}
		})
	}
}

func TestSectionToken_SectionID(t *testing.T) {
	tok := SectionToken{Category: "CO", Number: 7, Direction: DirectionGoal}
	if got := tok.SectionID(); got != "CO7" {
		t.Errorf("SectionID() = %q, want CO7", got)
	}
	if got := tok.String(); got != "CO7GOAL" {
		t.Errorf("String() = %q, want CO7GOAL", got)
	}
}
