package prober

import (
	"context"
	"sync"
)

// Handle identifies one registered in-flight request
type Handle uint64

// CancellationPool tracks the cancel functions of in-flight probes so they can all be
// aborted at once. The zero value is not usable; call NewCancellationPool.
type CancellationPool struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]context.CancelCauseFunc
}

// NewCancellationPool creates an empty pool
func NewCancellationPool() *CancellationPool {
	return &CancellationPool{entries: make(map[Handle]context.CancelCauseFunc)}
}

// Register adds cancel and returns the handle used to remove it
func (p *CancellationPool) Register(cancel context.CancelCauseFunc) Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.entries[p.next] = cancel
	return p.next
}

// Remove forgets h. Removing an unknown handle is a no-op.
func (p *CancellationPool) Remove(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, h)
}

// Contains reports whether h is still registered
func (p *CancellationPool) Contains(h Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[h]
	return ok
}

// Len returns the number of in-flight registrations
func (p *CancellationPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// CancelAll signals every request registered at the time of the call and returns how many
// were signalled. Requests registered afterwards are untouched. Entries stay in the pool
// until their probe removes them.
func (p *CancellationPool) CancelAll() int {
	p.mu.Lock()
	snapshot := make([]context.CancelCauseFunc, 0, len(p.entries))
	for _, cancel := range p.entries {
		snapshot = append(snapshot, cancel)
	}
	p.mu.Unlock()

	for _, cancel := range snapshot {
		cancel(errCancelledByUser)
	}
	return len(snapshot)
}
