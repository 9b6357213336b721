package model

// LockLevel describes how strongly an acquisition is protected from the
// automated repair process.
type LockLevel string

const (
	// LockNone is the implicit default: repair may alter or remove the
	// acquisition freely. Acquisitions without an explicit override are
	// treated as LockNone.
	LockNone LockLevel = "none"
	// LockHard forbids the automated repair process from altering or
	// removing the acquisition.
	LockHard LockLevel = "hard"
)

// Valid reports whether l is one of the known lock levels.
func (l LockLevel) Valid() bool {
	return l == LockNone || l == LockHard
}

// Toggled returns the opposite lock level.
func (l LockLevel) Toggled() LockLevel {
	if l == LockHard {
		return LockNone
	}
	return LockHard
}
