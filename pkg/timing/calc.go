package timing

// CalculateDurations sets Duration = goal - start for every bib/section where both
// times are present and parse. Negative durations are kept as they are.
func CalculateDurations(bibs []*BibRecord, sections []Section) {
	for _, b := range bibs {
		for _, sec := range sections {
			st := b.Sections[sec.ID]
			if st == nil {
				continue
			}
			st.Duration = nil
			if st.StartTime == nil || st.GoalTime == nil {
				continue
			}
			start, err := ParseClock(*st.StartTime)
			if err != nil {
				continue
			}
			goal, err := ParseClock(*st.GoalTime)
			if err != nil {
				continue
			}
			d := roundCentis(goal - start)
			st.Duration = &d
		}
	}
}

// CalculateDifferences compares durations against targets. SettingTime is
// filled whenever a section has a target, even without a duration, so callers
// can still show the target. Difference needs both.
func CalculateDifferences(bibs []*BibRecord, sections []Section, targets Targets) {
	for _, b := range bibs {
		for _, sec := range sections {
			st := b.Sections[sec.ID]
			if st == nil {
				continue
			}
			st.Difference = nil
			st.SettingTime = nil

			target, ok := targets[sec.ID]
			if !ok {
				continue
			}
			setting := target
			st.SettingTime = &setting
			if st.Duration != nil {
				diff := roundCentis(*st.Duration - target)
				st.Difference = &diff
			}
		}
	}
}
