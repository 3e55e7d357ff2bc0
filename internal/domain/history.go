package domain

import "time"

// HistoryEntry represents a single coverage measurement over time.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Commit    string    `json:"commit,omitempty"`
	Branch    string    `json:"branch,omitempty"`
	Percent   float64   `json:"percent"`
	Covered   int       `json:"covered"`
	Total     int       `json:"total"`
}

// History contains all historical coverage entries.
type History struct {
	Entries []HistoryEntry `json:"entries"`
}

// LatestEntry returns the most recent history entry, or nil if empty.
func (h *History) LatestEntry() *HistoryEntry {
	if len(h.Entries) == 0 {
		return nil
	}
	latestIndex := 0
	latestTime := h.Entries[0].Timestamp
	for i := 1; i < len(h.Entries); i++ {
		if h.Entries[i].Timestamp.After(latestTime) {
			latestIndex = i
			latestTime = h.Entries[i].Timestamp
		}
	}
	return &h.Entries[latestIndex]
}

// EntriesAfter returns all entries after the given time.
func (h *History) EntriesAfter(t time.Time) []HistoryEntry {
	var result []HistoryEntry
	for _, e := range h.Entries {
		if e.Timestamp.After(t) {
			result = append(result, e)
		}
	}
	return result
}

// ApplyDelta sets the result's delta from the latest recorded entry.
func (r *Result) ApplyDelta(history History) {
	latest := history.LatestEntry()
	if latest == nil {
		return
	}
	delta := Round1(r.Percent - latest.Percent)
	r.Delta = &delta
}
