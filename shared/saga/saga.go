package saga

import "fmt"

// SagaStatus represents the current status of a saga execution
type SagaStatus string

const (
	SagaStatusRunning      SagaStatus = "running"
	SagaStatusCompensating SagaStatus = "compensating"
	SagaStatusSucceeded    SagaStatus = "succeeded"
	SagaStatusCompensated  SagaStatus = "compensated"
)

// IsTerminal reports whether no further transition can happen from s
func (s SagaStatus) IsTerminal() bool {
	return s == SagaStatusSucceeded || s == SagaStatusCompensated
}

func (s SagaStatus) String() string {
	return string(s)
}

// State is the coordinator position: the forward step being run while
// running, or the number of ledger entries left to unwind while compensating.
type State struct {
	Status SagaStatus
	Step   int
	Cursor int
}

// Running returns the state for forward step index step
func Running(step int) State {
	return State{Status: SagaStatusRunning, Step: step}
}

// Compensating returns the state with remaining ledger entries to unwind
func Compensating(remaining int) State {
	return State{Status: SagaStatusCompensating, Cursor: remaining}
}

func Succeeded() State {
	return State{Status: SagaStatusSucceeded}
}

func Compensated() State {
	return State{Status: SagaStatusCompensated}
}

// CanTransition reports whether the state machine allows moving from s to next.
// Running may advance to a later step, start compensating or succeed;
// Compensating may only count down or finish as Compensated.
func (s State) CanTransition(next State) bool {
	switch s.Status {
	case SagaStatusRunning:
		switch next.Status {
		case SagaStatusRunning:
			return next.Step > s.Step
		case SagaStatusCompensating, SagaStatusSucceeded:
			return true
		}
	case SagaStatusCompensating:
		switch next.Status {
		case SagaStatusCompensating:
			return next.Cursor < s.Cursor
		case SagaStatusCompensated:
			return true
		}
	}
	return false
}

func (s State) String() string {
	switch s.Status {
	case SagaStatusRunning:
		return fmt.Sprintf("Running(%d)", s.Step)
	case SagaStatusCompensating:
		return fmt.Sprintf("Compensating(%d)", s.Cursor)
	case SagaStatusSucceeded:
		return "Succeeded"
	case SagaStatusCompensated:
		return "Compensated"
	default:
		return "Unknown"
	}
}
