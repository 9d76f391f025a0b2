package timing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectOverlaps(t *testing.T) {
	names := []string{"PC1START.csv", "PC1START_PC2GOAL.csv", "PC2GOAL.csv", "PC3START.csv"}
	got := DetectOverlaps(names)
	want := []Overlap{
		{FileA: "PC1START.csv", FileB: "PC1START_PC2GOAL.csv", SectionID: "PC1", Direction: DirectionStart},
		{FileA: "PC1START_PC2GOAL.csv", FileB: "PC2GOAL.csv", SectionID: "PC2", Direction: DirectionGoal},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("overlaps mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectOverlaps_OnePerSharedRole(t *testing.T) {
	got := DetectOverlaps([]string{"PC1START_PC1START.csv", "pc1start.csv"})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(got), got)
	}
}

func TestDetectOverlaps_StartAndGoalDoNotConflict(t *testing.T) {
	if got := DetectOverlaps([]string{"PC1START.csv", "PC1GOAL.csv"}); len(got) != 0 {
		t.Errorf("got %+v, want none", got)
	}
}

func TestDetectOverlaps_InvalidNamesIgnored(t *testing.T) {
	if got := DetectOverlaps([]string{"PC1START_bad.csv", "PC1START.csv"}); len(got) != 0 {
		t.Errorf("got %+v, want none", got)
	}
}

func TestOverlapSet(t *testing.T) {
	set := NewOverlapSet([]Overlap{{FileA: "a", FileB: "b", SectionID: "CO1", Direction: DirectionGoal}})
	if !set.Contains("CO1", DirectionGoal) {
		t.Error("Contains(CO1, GOAL) = false, want true")
	}
	if set.Contains("CO1", DirectionStart) {
		t.Error("Contains(CO1, START) = true, want false")
	}
	var empty OverlapSet
	if empty.Contains("CO1", DirectionGoal) {
		t.Error("nil set reported a match")
	}
}
