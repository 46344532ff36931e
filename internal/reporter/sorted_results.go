package reporter

import (
	"sort"
	"sync"

	"github.com/aleister1102/userprobe/internal/models"
)

// SortedResults keeps matches ordered by site name as they arrive. Safe for concurrent use.
type SortedResults struct {
	mu      sync.RWMutex
	matches []models.Match
}

// NewSortedResults creates an empty result list
func NewSortedResults() *SortedResults {
	return &SortedResults{}
}

// Notify inserts m at its alphabetical position. Equal names keep arrival order.
func (r *SortedResults) Notify(m models.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := sort.Search(len(r.matches), func(i int) bool { return r.matches[i].Name > m.Name })
	r.matches = append(r.matches, models.Match{})
	copy(r.matches[i+1:], r.matches[i:])
	r.matches[i] = m
}

// Matches returns a snapshot in name order
func (r *SortedResults) Matches() []models.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Match, len(r.matches))
	copy(out, r.matches)
	return out
}

// Len returns the number of matches so far
func (r *SortedResults) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}
