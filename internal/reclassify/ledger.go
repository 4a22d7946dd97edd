package reclassify

import "sync"

// LedgerEntry is one line of the result log.
type LedgerEntry struct {
	ID      int64  `json:"id"`
	OldPath string `json:"old_path,omitempty"`
	NewPath string `json:"new_path,omitempty"`
	Message string `json:"message,omitempty"`
}

// LogSnapshot is a copy of a Ledger's contents.
type LogSnapshot struct {
	Success []LedgerEntry `json:"success"`
	Error   []LedgerEntry `json:"error"`
	Skipped []LedgerEntry `json:"skipped"`
}

// Ledger accumulates outcomes across batch calls until cleared.
// It is owned by the caller and may be shared by several engines.
type Ledger struct {
	mu   sync.Mutex
	snap LogSnapshot
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record appends an outcome to the matching list.
func (l *Ledger) Record(o Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch o := o.(type) {
	case *Success:
		l.snap.Success = append(l.snap.Success, LedgerEntry{ID: o.ID, OldPath: o.OldPath, NewPath: o.NewPath, Message: o.Message()})
	case *Skipped:
		l.snap.Skipped = append(l.snap.Skipped, LedgerEntry{ID: o.ID, OldPath: o.Path, Message: o.Reason})
	case *Failure:
		l.snap.Error = append(l.snap.Error, LedgerEntry{ID: o.ID, OldPath: o.OldPath, NewPath: o.NewPath, Message: o.Reason})
	}
}

// Snapshot returns a copy of the accumulated entries.
func (l *Ledger) Snapshot() LogSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LogSnapshot{
		Success: append([]LedgerEntry{}, l.snap.Success...),
		Error:   append([]LedgerEntry{}, l.snap.Error...),
		Skipped: append([]LedgerEntry{}, l.snap.Skipped...),
	}
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = LogSnapshot{}
}
