package engine

// Cycle carries the state scoped to one reconciliation run: the
// already-processed link set that keeps a single listing from raising
// duplicate notifications through both the direct-update and sequel
// paths, and the run's counters. A fresh Cycle must be created at the
// start of every run.
type Cycle struct {
	processed map[string]struct{}
	Stats     Stats
}

// Stats are the per-cycle counters reported after each run.
type Stats struct {
	Checked      int
	UpdatesFound int
	SequelsFound int
	Errors       int
}

// NewCycle creates an empty cycle context.
func NewCycle() *Cycle {
	return &Cycle{processed: make(map[string]struct{})}
}

// Processed reports whether a listing link was already handled this
// cycle.
func (c *Cycle) Processed(link string) bool {
	_, ok := c.processed[link]
	return ok
}

// MarkProcessed records a listing link as handled for the remainder of
// the cycle.
func (c *Cycle) MarkProcessed(link string) {
	if link != "" {
		c.processed[link] = struct{}{}
	}
}
