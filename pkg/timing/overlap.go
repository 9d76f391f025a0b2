package timing

// roleKey identifies a section/direction pair.
type roleKey struct {
	section string
	dir     Direction
}

// DetectOverlaps compares every unordered pair of distinct files and emits one
// Overlap for each section/direction both files claim. The cost is quadratic in
// the number of files, which is fine for event-sized inputs.
func DetectOverlaps(filenames []string) []Overlap {
	roles := make([][]roleKey, len(filenames))
	for i, name := range filenames {
		roles[i] = uniqueRoles(Tokenize(name))
	}

	var out []Overlap
	for i := 0; i < len(filenames); i++ {
		for j := i + 1; j < len(filenames); j++ {
			if filenames[i] == filenames[j] {
				continue
			}
			for _, a := range roles[i] {
				for _, b := range roles[j] {
					if a == b {
						out = append(out, Overlap{
							FileA:     filenames[i],
							FileB:     filenames[j],
							SectionID: a.section,
							Direction: a.dir,
						})
					}
				}
			}
		}
	}
	return out
}

func uniqueRoles(tokens []SectionToken) []roleKey {
	seen := make(map[roleKey]bool, len(tokens))
	out := make([]roleKey, 0, len(tokens))
	for _, t := range tokens {
		k := roleKey{section: t.SectionID(), dir: t.Direction}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// OverlapSet answers whether a section/direction pair is untrustworthy.
type OverlapSet map[roleKey]struct{}

// NewOverlapSet indexes overlaps by section and direction, regardless of which
// file pair produced them.
func NewOverlapSet(overlaps []Overlap) OverlapSet {
	set := make(OverlapSet, len(overlaps))
	for _, o := range overlaps {
		set[roleKey{section: o.SectionID, dir: o.Direction}] = struct{}{}
	}
	return set
}

// Contains reports whether sectionID/dir was claimed by more than one file.
func (s OverlapSet) Contains(sectionID string, dir Direction) bool {
	_, ok := s[roleKey{section: sectionID, dir: dir}]
	return ok
}
