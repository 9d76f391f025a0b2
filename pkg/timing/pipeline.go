package timing

import (
	"log/slog"
	"sort"
)

// Input is everything Compute needs for one run.
type Input struct {
	// Files maps file name to raw CSV content.
	Files map[string]string

	// Targets holds the target time per section id. May be nil.
	Targets Targets

	// Order controls bib record sorting. Empty means OrderDescending.
	Order BibOrder
}

// Compute runs the full aggregation over a complete snapshot of input files.
//
// Files are processed in lexicographic name order, which fixes the winner of
// StartFile/GoalFile when several files claim a role. Files whose content cannot
// be decoded are left out and reported in Diagnostics. An empty file set yields
// a failed report.
func Compute(in Input) *Report {
	if len(in.Files) == 0 {
		return FailedReport(ErrNoInput.Error())
	}

	order := in.Order
	if order == "" {
		order = OrderDescending
	}

	names := make([]string, 0, len(in.Files))
	for name := range in.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	report := FailedReport("")
	report.FileCount = len(in.Files)

	parsed := make([]ParsedFile, 0, len(names))
	usable := make([]string, 0, len(names))
	for _, name := range names {
		pf := ParseRecords(name, in.Files[name])
		if pf.Err != nil {
			slog.Warn("timing: skipping file", "file", name, "err", pf.Err)
			report.Diagnostics = append(report.Diagnostics, FileDiagnostic{
				File:    name,
				Reason:  pf.Err.Error(),
				Skipped: true,
			})
			continue
		}
		parsed = append(parsed, pf)
		usable = append(usable, name)

		switch {
		case !ValidFileName(name):
			report.Diagnostics = append(report.Diagnostics, FileDiagnostic{
				File:         name,
				Reason:       "file name does not describe any section",
				SkippedLines: pf.SkippedLines,
			})
		case pf.SkippedLines > 0:
			report.Diagnostics = append(report.Diagnostics, FileDiagnostic{
				File:         name,
				Reason:       "lines with fewer than 4 fields were ignored",
				SkippedLines: pf.SkippedLines,
			})
		}
	}

	if len(parsed) == 0 {
		report.Error = "no readable CSV files"
		return report
	}

	overlaps := DetectOverlaps(usable)
	sections := BuildSections(usable)
	bibs, dups := Aggregate(parsed, sections, NewOverlapSet(overlaps), order)
	CalculateDurations(bibs, sections)
	CalculateDifferences(bibs, sections, in.Targets)

	report.Success = true
	report.Error = ""
	report.Sections = sections
	report.BibRecords = bibs
	if overlaps != nil {
		report.Overlaps = overlaps
	}
	if dups != nil {
		report.Duplicates = dups
	}

	slog.Debug("timing: computed report",
		"files", report.FileCount,
		"sections", len(sections),
		"bibs", len(bibs),
		"overlaps", len(report.Overlaps),
		"duplicates", len(report.Duplicates),
	)
	return report
}
