package search

import (
	"sync"

	"github.com/aleister1102/userprobe/internal/models"
)

// ResultSink receives matches in discovery order. Implementations must be safe for
// concurrent use; the coordinator never sorts the stream, Match.Name is the sort key.
type ResultSink interface {
	Notify(models.Match)
}

// SinkFunc adapts a function to ResultSink
type SinkFunc func(models.Match)

func (f SinkFunc) Notify(m models.Match) {
	f(m)
}

// MultiSink forwards every match to each sink in order
type MultiSink []ResultSink

func (ms MultiSink) Notify(m models.Match) {
	for _, s := range ms {
		if s != nil {
			s.Notify(m)
		}
	}
}

// matchCollector keeps the matches of one search for its summary
type matchCollector struct {
	mu      sync.Mutex
	matches []models.Match
}

func (c *matchCollector) Notify(m models.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matches = append(c.matches, m)
}

func (c *matchCollector) snapshot() []models.Match {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Match, len(c.matches))
	copy(out, c.matches)
	return out
}
