package timing

import "sort"

// BuildSections merges the tokens of every file name into the canonical section
// list. Files are visited in the given order and a later file claiming the same
// role replaces the earlier one; conflicts are left to DetectOverlaps.
//
// The result is sorted PC before CO, then by ascending number.
func BuildSections(filenames []string) []Section {
	byID := make(map[string]*Section)
	for _, name := range filenames {
		for _, tok := range Tokenize(name) {
			id := tok.SectionID()
			sec, ok := byID[id]
			if !ok {
				sec = &Section{ID: id, Category: tok.Category, Number: tok.Number}
				byID[id] = sec
			}
			switch tok.Direction {
			case DirectionStart:
				sec.StartFile = name
			case DirectionGoal:
				sec.GoalFile = name
			}
		}
	}

	out := make([]Section, 0, len(byID))
	for _, sec := range byID {
		out = append(out, *sec)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Category != b.Category {
			return categoryRank(a.Category) < categoryRank(b.Category)
		}
		return a.Number < b.Number
	})
	return out
}

func categoryRank(c string) int {
	if c == CategoryPC {
		return 0
	}
	return 1
}

// File returns the file governing dir for this section.
func (s Section) File(dir Direction) string {
	if dir == DirectionStart {
		return s.StartFile
	}
	return s.GoalFile
}
