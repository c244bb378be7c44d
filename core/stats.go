package core

// Stats are the aggregate counters of a batch run.
type Stats struct {
	Processed       int              `json:"processed"`
	Failed          int              `json:"failed"`
	Skipped         int              `json:"skipped"`
	Simulated       int              `json:"simulated"`
	Degraded        int              `json:"degraded"`
	MetadataRemoved int              `json:"metadata_removed"`
	ByCategory      map[Category]int `json:"by_category"`
}

// ComputeStats folds outcomes into Stats. It reads nothing but its argument,
// so calling it twice on the same slice yields identical counters.
func ComputeStats(outcomes []Outcome) Stats {
	s := Stats{ByCategory: make(map[Category]int)}
	for _, o := range outcomes {
		s.ByCategory[o.File.Category]++

		if !o.OK() {
			s.Failed++
			continue
		}
		s.Processed++
		switch {
		case o.Simulated:
			s.Simulated++
		case o.Skipped:
			s.Skipped++
		default:
			s.MetadataRemoved += len(o.Items)
		}
		if o.Degraded {
			s.Degraded++
		}
	}
	return s
}
