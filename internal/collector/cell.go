package collector

import "sync"

// Cell holds the currently-attached Collector, if any. The supervisor
// swaps it in on a successful attach and clears it on detach; the
// collection loop clears it on process death and otherwise only ever sees
// it through Peek.
type Cell struct {
	mu  sync.Mutex
	cur Collector
}

// Fill attaches c, closing and replacing whatever was previously held.
func (cell *Cell) Fill(c Collector) {
	cell.mu.Lock()
	defer cell.mu.Unlock()
	if cell.cur != nil {
		cell.cur.Close()
	}
	cell.cur = c
}

// Clear detaches and closes the held collector, if any.
func (cell *Cell) Clear() {
	cell.mu.Lock()
	defer cell.mu.Unlock()
	if cell.cur != nil {
		cell.cur.Close()
		cell.cur = nil
	}
}

// Full reports whether a collector is currently attached.
func (cell *Cell) Full() bool {
	cell.mu.Lock()
	defer cell.mu.Unlock()
	return cell.cur != nil
}

// Peek runs fn with the held collector, or does nothing if empty. fn must
// not retain c past the call.
func (cell *Cell) Peek(fn func(c Collector)) {
	cell.mu.Lock()
	defer cell.mu.Unlock()
	if cell.cur != nil {
		fn(cell.cur)
	}
}
