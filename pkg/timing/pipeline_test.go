package timing

import (
	"sync"
	"testing"
)

func TestCompute_EndToEnd(t *testing.T) {
	r := Compute(Input{Files: map[string]string{
		"PC1START.csv": "measurer,type,time,number\nM1,START,01:00:00.00,7\n",
		"PC1GOAL.csv":  "measurer,type,time,number\nM1,GOAL,01:10:00.00,7\n",
	}})

	if !r.Success {
		t.Fatalf("Success = false, error %q", r.Error)
	}
	if len(r.Sections) != 1 || r.Sections[0].ID != "PC1" {
		t.Fatalf("Sections = %+v, want [PC1]", r.Sections)
	}
	if len(r.BibRecords) != 1 || r.BibRecords[0].BibNumber != "7" {
		t.Fatalf("BibRecords = %+v, want one bib 7", r.BibRecords)
	}
	if d := r.BibRecords[0].Sections["PC1"].Duration; !near(d, 600) {
		t.Errorf("duration = %v, want 600", d)
	}
	if len(r.Overlaps) != 0 || len(r.Duplicates) != 0 {
		t.Errorf("overlaps=%d duplicates=%d, want 0/0", len(r.Overlaps), len(r.Duplicates))
	}
	if r.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", r.FileCount)
	}
}

func TestCompute_TargetDifference(t *testing.T) {
	r := Compute(Input{
		Files: map[string]string{
			"PC1START.csv": "h\nM,START,01:00:00.00,3\n",
			"PC1GOAL.csv":  "h\nM,GOAL,01:05:30.50,3\n",
		},
		Targets: Targets{"PC1": 300},
	})
	st := r.BibRecords[0].Sections["PC1"]
	if !near(st.Duration, 330.5) || !near(st.Difference, 30.5) || !near(st.SettingTime, 300) {
		t.Errorf("timing = %+v, want duration 330.5 difference 30.5 setting 300", st)
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	r := Compute(Input{})
	if r.Success {
		t.Fatal("Success = true for empty input")
	}
	if r.Error == "" {
		t.Error("Error is empty")
	}
	if len(r.BibRecords) != 0 || len(r.Sections) != 0 {
		t.Errorf("expected empty result set, got %d bibs %d sections", len(r.BibRecords), len(r.Sections))
	}
}

func TestCompute_OverlapNeverSetsStart(t *testing.T) {
	r := Compute(Input{Files: map[string]string{
		"PC1START.csv":         "h\nM,START,01:00:00,1\nM,START,01:00:10,2\n",
		"PC1START_CO1GOAL.csv": "h\nM,START,01:00:20,1\n",
		"PC1GOAL.csv":          "h\nM,GOAL,01:10:00,1\n",
	}})
	if len(r.Overlaps) != 1 || r.Overlaps[0].SectionID != "PC1" || r.Overlaps[0].Direction != DirectionStart {
		t.Fatalf("Overlaps = %+v, want one PC1 START", r.Overlaps)
	}
	for _, b := range r.BibRecords {
		st := b.Sections["PC1"]
		if st.StartTime != nil {
			t.Errorf("bib %s has PC1 start %q despite overlap", b.BibNumber, *st.StartTime)
		}
		if st.Duration != nil {
			t.Errorf("bib %s has PC1 duration despite overlap", b.BibNumber)
		}
	}
}

func TestCompute_DescendingByDefault(t *testing.T) {
	r := Compute(Input{Files: map[string]string{
		"PC1START.csv": "h\nM,START,01:00:00,1\nM,START,01:00:00,10\nM,START,01:00:00,2\n",
	}})
	var got []string
	for _, b := range r.BibRecords {
		got = append(got, b.BibNumber)
	}
	if len(got) != 3 || got[0] != "10" || got[2] != "1" {
		t.Errorf("order = %v, want [10 2 1]", got)
	}
}

func TestCompute_Diagnostics(t *testing.T) {
	r := Compute(Input{Files: map[string]string{
		"PC1START.csv": "h\nM,START,01:00:00,1\nshort,line\n",
		"bad\xff.csv":  "h\n\xff",
		"extra.csv":    "h\nM,START,01:00:00,5\n",
	}})
	if !r.Success {
		t.Fatalf("Success = false: %s", r.Error)
	}
	if r.SkippedFiles() != 1 {
		t.Errorf("SkippedFiles() = %d, want 1", r.SkippedFiles())
	}
	if len(r.Diagnostics) != 3 {
		t.Errorf("Diagnostics = %+v, want 3 entries", r.Diagnostics)
	}
	if r.Bib("5") == nil {
		t.Error("bib 5 from a file with an invalid name should still be listed")
	}
}

func TestCompute_AllUnreadable(t *testing.T) {
	r := Compute(Input{Files: map[string]string{"PC1START.csv": "\xff"}})
	if r.Success {
		t.Fatal("Success = true with no readable files")
	}
	if len(r.Diagnostics) != 1 {
		t.Errorf("Diagnostics = %+v", r.Diagnostics)
	}
}

func TestCompute_Concurrent(t *testing.T) {
	files := map[string]string{
		"PC1START.csv": "h\nM,START,01:00:00,1\n",
		"PC1GOAL.csv":  "h\nM,GOAL,01:00:30,1\n",
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := Compute(Input{Files: files})
			if !near(r.BibRecords[0].Sections["PC1"].Duration, 30) {
				t.Errorf("duration = %v", r.BibRecords[0].Sections["PC1"].Duration)
			}
		}()
	}
	wg.Wait()
}
