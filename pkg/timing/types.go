package timing

import (
	"errors"
	"time"
)

// Direction is the crossing role a file plays for a section.
type Direction string

const (
	DirectionStart Direction = "START"
	DirectionGoal  Direction = "GOAL"
)

// Section categories in canonical order.
const (
	CategoryPC = "PC"
	CategoryCO = "CO"
)

var (
	// ErrInvalidClock is returned by ParseClock for malformed clock strings.
	ErrInvalidClock = errors.New("timing: invalid clock format")

	// ErrFormat marks a source file whose content cannot be decoded at all.
	ErrFormat = errors.New("timing: unreadable file content")

	// ErrNoInput is reported when Compute is called without any files.
	ErrNoInput = errors.New("no CSV files found")
)

// SourceFile is one fully materialised input file.
type SourceFile struct {
	Name    string
	Content string
}

// RawRow is one crossing record decoded from a CSV line.
type RawRow struct {
	Measurer  string `json:"measurer"`
	Type      string `json:"type"`
	Time      string `json:"time"`
	BibNumber string `json:"bib_number"`
}

// SectionToken is one "_"-separated component of a file name, e.g. PC1START.
type SectionToken struct {
	Category  string
	Number    int
	Direction Direction
}

// Section is a canonical checkpoint with the files governing its two crossings.
// StartFile and GoalFile hold the last file seen claiming each role.
type Section struct {
	ID        string `json:"section"`
	Category  string `json:"category"`
	Number    int    `json:"number"`
	StartFile string `json:"start_file,omitempty"`
	GoalFile  string `json:"goal_file,omitempty"`
}

// Overlap records two files that both claim the same section and direction.
type Overlap struct {
	FileA     string    `json:"file_a"`
	FileB     string    `json:"file_b"`
	SectionID string    `json:"section"`
	Direction Direction `json:"direction"`
}

// SectionTiming holds one bib's crossing times for one section.
// Nil fields are unset.
type SectionTiming struct {
	StartTime   *string  `json:"start_time"`
	GoalTime    *string  `json:"goal_time"`
	Duration    *float64 `json:"duration"`
	Difference  *float64 `json:"difference"`
	SettingTime *float64 `json:"setting_time"`
}

// BibRecord is the reconciled result for one participant.
type BibRecord struct {
	BibNumber string                    `json:"bib_number"`
	Sections  map[string]*SectionTiming `json:"sections"`
}

// DuplicateOccurrence reports a bib that crossed the same section and direction
// more than once. Files and Times list every occurrence in file order.
type DuplicateOccurrence struct {
	SectionID string    `json:"section"`
	Direction Direction `json:"direction"`
	BibNumber string    `json:"bib_number"`
	Files     []string  `json:"files"`
	Times     []string  `json:"times"`
}

// Targets maps a section id to its target (setting) time in seconds.
type Targets map[string]float64

// FileDiagnostic explains what happened to one input file.
// Skipped files contributed nothing to the report.
type FileDiagnostic struct {
	File         string `json:"file"`
	Reason       string `json:"reason"`
	Skipped      bool   `json:"skipped"`
	SkippedLines int    `json:"skipped_lines,omitempty"`
}

// Report is the output of one Compute call.
type Report struct {
	Success      bool                  `json:"success"`
	Error        string                `json:"error,omitempty"`
	BibRecords   []*BibRecord          `json:"bib_records"`
	Sections     []Section             `json:"sections"`
	Overlaps     []Overlap             `json:"overlaps"`
	Duplicates   []DuplicateOccurrence `json:"duplicates"`
	Diagnostics  []FileDiagnostic      `json:"diagnostics"`
	FileCount    int                   `json:"file_count"`
	CalculatedAt time.Time             `json:"calculated_at"`
	FromCache    bool                  `json:"from_cache"`
}

// SkippedFiles returns the number of diagnostics that dropped a file.
func (r *Report) SkippedFiles() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Skipped {
			n++
		}
	}
	return n
}

// Bib returns the record for bib, or nil.
func (r *Report) Bib(bib string) *BibRecord {
	for _, b := range r.BibRecords {
		if b.BibNumber == bib {
			return b
		}
	}
	return nil
}

// FailedReport builds an unsuccessful report carrying msg.
func FailedReport(msg string) *Report {
	return &Report{
		Success:     false,
		Error:       msg,
		BibRecords:  []*BibRecord{},
		Sections:    []Section{},
		Overlaps:    []Overlap{},
		Duplicates:  []DuplicateOccurrence{},
		Diagnostics: []FileDiagnostic{},
	}
}
