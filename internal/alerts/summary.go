package alerts

import (
	"fmt"
	"sort"
	"time"

	"github.com/rallypc/pccalc/pkg/timing"
)

// maxDetail caps the overlap and duplicate lines carried in a summary.
const maxDetail = 10

// ReportSummary is the slice of a timing report attached to an alert: the
// counts the rules compare plus the sections and bibs behind them.
type ReportSummary struct {
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	Files        int       `json:"files"`
	Bibs         int       `json:"bibs"`
	Sections     int       `json:"sections"`
	Overlaps     int       `json:"overlaps"`
	Duplicates   int       `json:"duplicates"`
	SkippedFiles int       `json:"skipped_files"`
	CalculatedAt time.Time `json:"calculated_at"`

	// AffectedSections lists section IDs with an overlap or duplicate.
	AffectedSections []string `json:"affected_sections,omitempty"`
	OverlapDetail    []string `json:"overlap_detail,omitempty"`
	DuplicateDetail  []string `json:"duplicate_detail,omitempty"`
}

func summarize(r *timing.Report) ReportSummary {
	s := ReportSummary{
		Success:      r.Success,
		Error:        r.Error,
		Files:        r.FileCount,
		Bibs:         len(r.BibRecords),
		Sections:     len(r.Sections),
		Overlaps:     len(r.Overlaps),
		Duplicates:   len(r.Duplicates),
		SkippedFiles: r.SkippedFiles(),
		CalculatedAt: r.CalculatedAt,
	}

	affected := map[string]bool{}
	for _, o := range r.Overlaps {
		affected[o.SectionID] = true
		if len(s.OverlapDetail) < maxDetail {
			s.OverlapDetail = append(s.OverlapDetail,
				fmt.Sprintf("%s %s: %s overlaps %s", o.SectionID, o.Direction, o.FileA, o.FileB))
		}
	}
	for _, d := range r.Duplicates {
		affected[d.SectionID] = true
		if len(s.DuplicateDetail) < maxDetail {
			s.DuplicateDetail = append(s.DuplicateDetail,
				fmt.Sprintf("%s %s: bib %s recorded %d times", d.SectionID, d.Direction, d.BibNumber, len(d.Times)))
		}
	}
	for id := range affected {
		s.AffectedSections = append(s.AffectedSections, id)
	}
	sort.Strings(s.AffectedSections)
	return s
}
