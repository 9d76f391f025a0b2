package timing

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// minFields is the number of comma-separated fields a data line needs:
// measurer, type, time, bib number.
const minFields = 4

// ParsedFile is the per-file outcome of ParseRecords. Err is non-nil when the
// file could not be decoded; such a file is left out of the aggregate.
type ParsedFile struct {
	Name         string
	Rows         []RawRow
	SkippedLines int
	Err          error
}

// ParseRecords decodes CSV content into rows. The first line is a header and is
// ignored. Blank lines are skipped silently; lines with fewer than four fields are
// skipped and counted. Rows without a bib number are dropped.
func ParseRecords(filename, content string) ParsedFile {
	pf := ParsedFile{Name: filename}
	if !utf8.ValidString(content) {
		pf.Err = fmt.Errorf("%w: %s is not valid UTF-8", ErrFormat, filename)
		return pf
	}

	lines := strings.Split(strings.TrimSpace(content), "\n")
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < minFields {
			pf.SkippedLines++
			continue
		}
		row := RawRow{
			Measurer:  strings.TrimSpace(fields[0]),
			Type:      strings.TrimSpace(fields[1]),
			Time:      strings.TrimSpace(fields[2]),
			BibNumber: strings.TrimSpace(fields[3]),
		}
		if row.BibNumber == "" {
			continue
		}
		pf.Rows = append(pf.Rows, row)
	}
	return pf
}
