package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rallypc/pccalc/pkg/timing"
)

func sampleReport(t *testing.T) *timing.Report {
	t.Helper()
	r := timing.Compute(timing.Input{
		Files: map[string]string{
			"PC1START.csv":         "h\nM,START,10:00:00.00,7\nM,START,10:01:00.00,12\n",
			"PC1GOAL_PC2START.csv": "h\nM,GOAL,10:05:00.00,7\nM,GOAL,10:06:30.50,12\n",
			"PC2GOAL.csv":          "h\nM,GOAL,10:09:00.00,7\n",
		},
		Targets: timing.Targets{"PC1": 300},
	})
	if !r.Success {
		t.Fatalf("Compute failed: %s", r.Error)
	}
	return r
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatJSON, "CSV": FormatCSV, " parquet ": FormatParquet, "table": FormatTable}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("ParseFormat(xlsx) error = nil")
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleReport(t))
	var got []string
	for _, r := range rows {
		got = append(got, r.Bib+"/"+r.Section)
	}
	want := []string{"12/PC1", "12/PC2", "7/PC1", "7/PC2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("row order mismatch (-want +got):\n%s", diff)
	}
	if rows[0].Duration == nil || *rows[0].Duration != 330.5 {
		t.Errorf("bib 12 PC1 duration = %v, want 330.5", rows[0].Duration)
	}
	if rows[1].Duration != nil {
		t.Errorf("bib 12 PC2 duration = %v, want unset", *rows[1].Duration)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Rows(sampleReport(t))); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("records = %d, want header + 4", len(recs))
	}
	if diff := cmp.Diff(csvHeader, recs[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	want := []string{"7", "PC1", "10:00:00.00", "10:05:00.00", "300", "0", "300"}
	if diff := cmp.Diff(want, recs[3]); diff != "" {
		t.Errorf("bib 7 PC1 mismatch (-want +got):\n%s", diff)
	}
	if recs[2][4] != "" || recs[2][6] != "" {
		t.Errorf("unset cells should be empty: %q", recs[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport(t)); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var back timing.Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Success || len(back.BibRecords) != 2 {
		t.Errorf("decoded report = %+v", back)
	}
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, Rows(sampleReport(t))); err != nil {
		t.Fatalf("WriteParquet() error = %v", err)
	}
	b := buf.Bytes()
	if len(b) < 8 || string(b[:4]) != "PAR1" || string(b[len(b)-4:]) != "PAR1" {
		t.Fatalf("output is not a parquet file (%d bytes)", len(b))
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleReport(t)); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"BIB", "PC1", "PC2", "00:05:00.00 (+0.00)", "00:05:30.50 (+30.50)", "00:04:00.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTable_Failed(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatTable, timing.FailedReport("no CSV files found")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no CSV files found") {
		t.Errorf("output = %q", buf.String())
	}
}
