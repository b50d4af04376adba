package saga

// Ledger is an append-only record of compensations for completed steps.
// It belongs to a single saga execution and is not safe for concurrent use.
type Ledger[E any] struct {
	entries []E
}

func NewLedger[E any]() *Ledger[E] {
	return &Ledger[E]{}
}

// Append records entry after the step it undoes has succeeded
func (l *Ledger[E]) Append(entry E) {
	l.entries = append(l.entries, entry)
}

func (l *Ledger[E]) Len() int {
	return len(l.entries)
}

// DrainReverse returns the entries most recent first and empties the ledger
func (l *Ledger[E]) DrainReverse() []E {
	out := make([]E, len(l.entries))
	for i, entry := range l.entries {
		out[len(l.entries)-1-i] = entry
	}
	l.entries = nil
	return out
}
