// Package timing turns checkpoint-crossing CSV files into per-participant
// elapsed-time reports.
//
// clock.go converts "HH:MM:SS.ss" clock strings to seconds since midnight and back.
// filename.go decodes file names such as "PC1GOAL_PC2START.csv" into section tokens.
// records.go decodes CSV rows (measurer, type, time, bib) into RawRows.
// sections.go merges tokens into the ordered canonical section list (PC before CO,
// then by number). overlap.go finds section/direction pairs claimed by more than one
// file; those pairs are excluded from aggregation. aggregate.go reconciles rows into
// one BibRecord per bib number, dropping times that occur more than once.
// calc.go derives durations and differences against target times.
//
// Compute(Input) runs the whole chain. It does no I/O and keeps no state between
// calls, so it is safe to call concurrently for independent inputs.
package timing
