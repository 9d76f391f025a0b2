package alerts

import (
	"strconv"
	"strings"

	"github.com/rallypc/pccalc/pkg/timing"
)

// evalCondition evaluates a rule condition string against a report.
//
// Supported expressions (field operator value):
//
//	overlaps > 0
//	duplicates >= 5
//	skipped_files > 0
//	bibs < 10
//	files == 0
//	success == false
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, r *timing.Report) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "success" {
		want, err := strconv.ParseBool(rhs)
		if err != nil {
			return false, 0
		}
		v := 0.0
		if r.Success {
			v = 1
		}
		switch op {
		case "==":
			return r.Success == want, v
		case "!=":
			return r.Success != want, v
		}
		return false, 0
	}

	v, ok := numericField(field, r)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// conditionField returns the field name a condition tests, or "".
func conditionField(cond string) string {
	parts := strings.Fields(cond)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// numericField maps a field name to its value in the report.
func numericField(field string, r *timing.Report) (float64, bool) {
	switch field {
	case "overlaps":
		return float64(len(r.Overlaps)), true
	case "duplicates":
		return float64(len(r.Duplicates)), true
	case "skipped_files":
		return float64(r.SkippedFiles()), true
	case "bibs":
		return float64(len(r.BibRecords)), true
	case "sections":
		return float64(len(r.Sections)), true
	case "files":
		return float64(r.FileCount), true
	default:
		return 0, false
	}
}

func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
