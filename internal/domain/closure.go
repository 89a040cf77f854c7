package domain

// ClosureRecord is one way-level road restriction reported by the closures
// provider.
type ClosureRecord struct {
	ID                string            `json:"id"`
	Center            GeoPoint          `json:"center"`
	Reason            string            `json:"reason"`
	AffectedWayPoints []GeoPoint        `json:"affectedWayPoints,omitempty"`
	Tags              map[string]string `json:"tags,omitempty"`
}

// DedupeClosures collapses records sharing an ID within one aggregation pass.
// Last write wins; records are structurally equal for the same ID within a
// single query window, so the choice is immaterial. Input order of first
// appearance is preserved.
func DedupeClosures(records []ClosureRecord) []ClosureRecord {
	if len(records) == 0 {
		return records
	}

	index := make(map[string]int, len(records))
	out := make([]ClosureRecord, 0, len(records))
	for _, rec := range records {
		if i, ok := index[rec.ID]; ok {
			out[i] = rec
			continue
		}
		index[rec.ID] = len(out)
		out = append(out, rec)
	}

	return out
}
