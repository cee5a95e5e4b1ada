// Package alloc decides how the pool of connection slots grows.
package alloc

// Strategy is consulted every time a new connection arrives, and once on start with no
// slots at all. It is never called concurrently.
type Strategy interface {
	// NewSlots returns how many slots to add to the pool, which has current slots with
	// connected of them serving a connection. 0 leaves the pool as it is.
	NewSlots(current, connected int) int
}

// Growth allocates Start slots at first, then adds Delta slots whenever fewer than
// KeepFree slots are idle, never going beyond Max slots in total.
type Growth struct {
	Start, Delta, Max, KeepFree int
}

func (g Growth) NewSlots(current, connected int) int {
	switch {
	case current == 0:
		return min(g.Start, g.Max)
	case current >= g.Max:
		return 0
	case current-connected < g.KeepFree:
		return min(g.Delta, g.Max-current)
	default:
		return 0
	}
}

// Fixed never grows the pool beyond its initial size.
type Fixed int

func (f Fixed) NewSlots(current, _ int) int {
	if current == 0 {
		return int(f)
	}

	return 0
}
