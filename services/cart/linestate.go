package cart

import "fmt"

type LineStatus int

const (
	LineConfirmed LineStatus = iota
	LineOptimisticPending
	LineRollingBack
)

func (s LineStatus) String() string {
	switch s {
	case LineConfirmed:
		return "confirmed"
	case LineOptimisticPending:
		return "pending"
	case LineRollingBack:
		return "rolling-back"
	}
	return fmt.Sprintf("LineStatus(%d)", int(s))
}

// lineState tracks the quantity of one remote line between the optimistic display and
// the last quantity the server confirmed. Every proposal bumps the version so that a
// late answer for an older proposal cannot settle a newer one.
type lineState struct {
	status    LineStatus
	confirmed int
	pending   int
	version   uint64
}

func newLineState(confirmed int) lineState {
	return lineState{
		status:    LineConfirmed,
		confirmed: confirmed,
	}
}

func (s lineState) Status() LineStatus {
	return s.status
}

func (s lineState) Displayed() int {
	if s.status == LineOptimisticPending {
		return s.pending
	}
	return s.confirmed
}

// Propose shows quantity right away; allowed from any state.
func (s *lineState) Propose(quantity int) uint64 {
	s.status = LineOptimisticPending
	s.pending = quantity
	s.version++
	return s.version
}

// Confirm records what the server accepted for version. It reports whether the line
// settled; a newer proposal keeps the line pending.
func (s *lineState) Confirm(version uint64, quantity int) (bool, error) {
	if s.status != LineOptimisticPending {
		return false, fmt.Errorf("cannot confirm line in state %s", s.status)
	}
	s.confirmed = quantity
	if version != s.version {
		return false, nil
	}
	s.status = LineConfirmed
	s.pending = 0
	return true, nil
}

// Fail starts the rollback for version. Failures of superseded proposals are ignored:
// the newer proposal is still on its way.
func (s *lineState) Fail(version uint64) (bool, error) {
	if s.status != LineOptimisticPending {
		return false, fmt.Errorf("cannot fail line in state %s", s.status)
	}
	if version != s.version {
		return false, nil
	}
	s.status = LineRollingBack
	return true, nil
}

// RolledBack completes the rollback: the confirmed quantity is displayed again.
func (s *lineState) RolledBack() error {
	if s.status != LineRollingBack {
		return fmt.Errorf("cannot finish rollback of line in state %s", s.status)
	}
	s.status = LineConfirmed
	s.pending = 0
	return nil
}

// Refetched takes the server quantity. A pending proposal stays visible.
func (s *lineState) Refetched(quantity int) {
	s.confirmed = quantity
	if s.status == LineRollingBack {
		s.status = LineConfirmed
		s.pending = 0
	}
}
