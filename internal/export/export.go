// Package export renders a timing report as JSON, CSV, Parquet or an aligned
// text table. All tabular formats share the flat Row layout: one row per bib
// and section, in report order.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/rallypc/pccalc/pkg/timing"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatTable   Format = "table"
)

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatParquet, FormatTable:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q: want json|csv|parquet|table", s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	case FormatTable:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Row is one bib's result for one section. Nil pointers are unset values.
type Row struct {
	Bib         string   `parquet:"name=bib, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Section     string   `parquet:"name=section, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	StartTime   *string  `parquet:"name=start_time, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	GoalTime    *string  `parquet:"name=goal_time, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Duration    *float64 `parquet:"name=duration_s, type=DOUBLE, repetitiontype=OPTIONAL"`
	Difference  *float64 `parquet:"name=difference_s, type=DOUBLE, repetitiontype=OPTIONAL"`
	SettingTime *float64 `parquet:"name=setting_time_s, type=DOUBLE, repetitiontype=OPTIONAL"`
}

var csvHeader = []string{"bib", "section", "start_time", "goal_time", "duration_s", "difference_s", "setting_time_s"}

// Rows flattens r. Bibs keep report order; sections follow r.Sections.
func Rows(r *timing.Report) []Row {
	out := make([]Row, 0, len(r.BibRecords)*len(r.Sections))
	for _, b := range r.BibRecords {
		for _, sec := range r.Sections {
			st := b.Sections[sec.ID]
			if st == nil {
				st = &timing.SectionTiming{}
			}
			out = append(out, Row{
				Bib:         b.BibNumber,
				Section:     sec.ID,
				StartTime:   st.StartTime,
				GoalTime:    st.GoalTime,
				Duration:    st.Duration,
				Difference:  st.Difference,
				SettingTime: st.SettingTime,
			})
		}
	}
	return out
}

// Write encodes r to w in format f.
func Write(w io.Writer, f Format, r *timing.Report) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatCSV:
		return WriteCSV(w, Rows(r))
	case FormatParquet:
		return WriteParquet(w, Rows(r))
	case FormatTable:
		return WriteTable(w, r)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteJSON writes the whole report, indented.
func WriteJSON(w io.Writer, r *timing.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteCSV writes rows with a header. Unset values are empty cells.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		rec := []string{
			row.Bib,
			row.Section,
			strOrEmpty(row.StartTime),
			strOrEmpty(row.GoalTime),
			floatOrEmpty(row.Duration),
			floatOrEmpty(row.Difference),
			floatOrEmpty(row.SettingTime),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteParquet writes rows as a SNAPPY compressed Parquet file.
func WriteParquet(w io.Writer, rows []Row) error {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(Row), 4)
	if err != nil {
		return fmt.Errorf("parquet: new writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("parquet: write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet: finish: %w", err)
	}
	if err := fw.Close(); err != nil {
		return err
	}
	_, err = w.Write(fw.Bytes())
	return err
}

// WriteTable writes a human readable grid: one line per bib, one column per
// section showing the duration and, when a target exists, the signed
// difference. Overlaps and duplicates are listed underneath.
func WriteTable(w io.Writer, r *timing.Report) error {
	if !r.Success {
		_, err := fmt.Fprintf(w, "calculation failed: %s\n", r.Error)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"BIB"}
	for _, sec := range r.Sections {
		header = append(header, sec.ID)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, b := range r.BibRecords {
		cells := []string{b.BibNumber}
		for _, sec := range r.Sections {
			cells = append(cells, tableCell(b.Sections[sec.ID]))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, o := range r.Overlaps {
		fmt.Fprintf(w, "overlap: %s %s claimed by %s and %s\n", o.SectionID, o.Direction, o.FileA, o.FileB)
	}
	for _, d := range r.Duplicates {
		fmt.Fprintf(w, "duplicate: bib %s %s %s in %s\n", d.BibNumber, d.SectionID, d.Direction, strings.Join(d.Files, ", "))
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(w, "file %s: %s\n", d.File, d.Reason)
	}
	return nil
}

func tableCell(st *timing.SectionTiming) string {
	if st == nil || st.Duration == nil {
		return "-"
	}
	cell := timing.FormatClock(*st.Duration)
	if st.Difference != nil {
		sign := "+"
		if *st.Difference < 0 {
			sign = ""
		}
		cell += " (" + sign + strconv.FormatFloat(*st.Difference, 'f', 2, 64) + ")"
	}
	return cell
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
