package timing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BibOrder selects how bib records are sorted in a report.
type BibOrder string

const (
	// OrderDescending lists the highest bib number first. This is the default.
	OrderDescending BibOrder = "descending"
	// OrderAscending lists the lowest bib number first.
	OrderAscending BibOrder = "ascending"
)

// ParseBibOrder maps a config value to a BibOrder. Empty means OrderDescending.
func ParseBibOrder(s string) (BibOrder, error) {
	switch BibOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderDescending:
		return OrderDescending, nil
	case OrderAscending:
		return OrderAscending, nil
	default:
		return "", fmt.Errorf("unknown bib order %q: want ascending|descending", s)
	}
}

type occurrenceKey struct {
	section string
	dir     Direction
	bib     string
}

type occurrence struct {
	file string
	time string
}

// Aggregate reconciles every row into one BibRecord per bib number.
//
// Only rows from a section's governing start/goal file count towards that
// section. Section/direction pairs in overlaps are skipped entirely. A bib with
// more than one occurrence for the same section and direction gets no time for
// that slot and is reported as a DuplicateOccurrence instead.
func Aggregate(files []ParsedFile, sections []Section, overlaps OverlapSet, order BibOrder) ([]*BibRecord, []DuplicateOccurrence) {
	bibs := make(map[string]*BibRecord)
	rowsByFile := make(map[string][]RawRow, len(files))
	for _, f := range files {
		rowsByFile[f.Name] = f.Rows
		for _, row := range f.Rows {
			if _, ok := bibs[row.BibNumber]; ok {
				continue
			}
			rec := &BibRecord{
				BibNumber: row.BibNumber,
				Sections:  make(map[string]*SectionTiming, len(sections)),
			}
			for _, sec := range sections {
				rec.Sections[sec.ID] = &SectionTiming{}
			}
			bibs[row.BibNumber] = rec
		}
	}

	occurrences := make(map[occurrenceKey][]occurrence)
	var keys []occurrenceKey
	for _, sec := range sections {
		for _, dir := range []Direction{DirectionStart, DirectionGoal} {
			file := sec.File(dir)
			if file == "" || overlaps.Contains(sec.ID, dir) {
				continue
			}
			for _, row := range rowsByFile[file] {
				k := occurrenceKey{section: sec.ID, dir: dir, bib: row.BibNumber}
				if _, seen := occurrences[k]; !seen {
					keys = append(keys, k)
				}
				occurrences[k] = append(occurrences[k], occurrence{file: file, time: row.Time})
			}
		}
	}

	var dups []DuplicateOccurrence
	for _, k := range keys {
		occ := occurrences[k]
		if len(occ) > 1 {
			d := DuplicateOccurrence{SectionID: k.section, Direction: k.dir, BibNumber: k.bib}
			for _, o := range occ {
				d.Files = append(d.Files, o.file)
				d.Times = append(d.Times, o.time)
			}
			dups = append(dups, d)
			continue
		}
		st := bibs[k.bib].Sections[k.section]
		t := occ[0].time
		if k.dir == DirectionStart {
			st.StartTime = &t
		} else {
			st.GoalTime = &t
		}
	}

	out := make([]*BibRecord, 0, len(bibs))
	for _, b := range bibs {
		out = append(out, b)
	}
	SortBibs(out, order)
	return out, dups
}

// SortBibs orders records numerically by bib number in the given direction.
// Bibs that are not integers sort after all numeric ones, lexicographically.
// Equal numbers ("7" and "007") fall back to the raw string.
func SortBibs(bibs []*BibRecord, order BibOrder) {
	sort.SliceStable(bibs, func(i, j int) bool {
		a, b := bibs[i].BibNumber, bibs[j].BibNumber
		an, aErr := strconv.Atoi(a)
		bn, bErr := strconv.Atoi(b)
		switch {
		case aErr == nil && bErr == nil:
			if an != bn {
				if order == OrderAscending {
					return an < bn
				}
				return an > bn
			}
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return a < b
		}
	})
}
