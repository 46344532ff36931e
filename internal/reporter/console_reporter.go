package reporter

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aleister1102/userprobe/internal/models"
	"github.com/aleister1102/userprobe/internal/search"
	"github.com/olekukonko/tablewriter"
)

// ConsoleReporter prints each match the moment it arrives and a sorted table at the end
type ConsoleReporter struct {
	mu      sync.Mutex
	out     io.Writer
	results *SortedResults
}

// NewConsoleReporter writes to out
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out, results: NewSortedResults()}
}

// Notify prints one match line and files it in name order for the final table
func (c *ConsoleReporter) Notify(m models.Match) {
	c.results.Notify(m)

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[+] %s: %s\n", m.Name, m.ProfileURL)
}

// Results returns the matches seen so far in name order
func (c *ConsoleReporter) Results() []models.Match {
	return c.results.Matches()
}

// RenderSummary prints a table of the matches this reporter was notified of, followed by
// outcome counts. A reporter that never received a match renders summary.Matches instead.
func (c *ConsoleReporter) RenderSummary(summary search.Summary) {
	matches := c.results.Matches()
	if len(matches) == 0 {
		matches = summary.Matches
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\nResults for '%s': %d found on %d sites checked (%s)\n",
		summary.Identifier, len(matches), summary.State.Total, summary.Duration.Round(time.Millisecond))

	if len(matches) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.SetHeader([]string{"#", "Site", "Profile"})
		table.SetAutoWrapText(false)
		for i, m := range matches {
			table.Append([]string{strconv.Itoa(i + 1), m.Name, m.ProfileURL})
		}
		table.Render()
	}

	if len(summary.Counts) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.SetHeader([]string{"Outcome", "Count"})
		for _, status := range sortedStatuses(summary.Counts) {
			table.Append([]string{status.String(), strconv.Itoa(summary.Counts[status])})
		}
		table.Render()
	}
}

func sortedStatuses(counts map[models.OutcomeStatus]int) []models.OutcomeStatus {
	out := make([]models.OutcomeStatus, 0, len(counts))
	for s := range counts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
