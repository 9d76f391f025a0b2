package timing

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRecords(t *testing.T) {
	content := "measurer,type,time,number\r\n" +
		"M1,START,01:00:00.00,7\r\n" +
		"\r\n" +
		"M1,START,01:01:00.00,  \r\n" +
		"M2 , START , 01:02:00.00 , 12 ,extra\r\n" +
		"broken,line\r\n"

	pf := ParseRecords("PC1START.csv", content)
	if pf.Err != nil {
		t.Fatalf("ParseRecords error = %v", pf.Err)
	}
	want := []RawRow{
		{Measurer: "M1", Type: "START", Time: "01:00:00.00", BibNumber: "7"},
		{Measurer: "M2", Type: "START", Time: "01:02:00.00", BibNumber: "12"},
	}
	if diff := cmp.Diff(want, pf.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if pf.SkippedLines != 1 {
		t.Errorf("SkippedLines = %d, want 1", pf.SkippedLines)
	}
}

func TestParseRecords_HeaderOnly(t *testing.T) {
	for _, content := range []string{"", "measurer,type,time,number", "\n\nmeasurer,type,time,number\n\n"} {
		pf := ParseRecords("PC1START.csv", content)
		if pf.Err != nil || len(pf.Rows) != 0 {
			t.Errorf("ParseRecords(%q) = %+v, want no rows and no error", content, pf)
		}
	}
}

func TestParseRecords_InvalidUTF8(t *testing.T) {
	pf := ParseRecords("PC1START.csv", "h\n\xff\xfe,a,b,c")
	if !errors.Is(pf.Err, ErrFormat) {
		t.Fatalf("Err = %v, want ErrFormat", pf.Err)
	}
}
