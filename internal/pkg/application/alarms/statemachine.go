package alarms

import (
	"github.com/WispAyr/overwatch-sub002/pkg/types"
)

// NextStates returns the lifecycle transitions allowed from the given state,
// not counting the suppression override.
func NextStates(from types.State) []types.State {
	switch from {
	case types.StateNew:
		return []types.State{types.StateTriage}
	case types.StateTriage:
		return []types.State{types.StateActive, types.StateResolved}
	case types.StateSnoozed:
		return []types.State{types.StateTriage}
	case types.StateActive:
		return []types.State{types.StateContained, types.StateResolved}
	case types.StateContained:
		return []types.State{types.StateResolved, types.StateActive}
	case types.StateResolved:
		return []types.State{types.StateClosed, types.StateActive}
	}
	return nil
}

// CanTransition reports whether from -> to is permitted. SUPPRESSED is
// reachable from any non-terminal state as an operator override.
func CanTransition(from, to types.State) bool {
	if to == types.StateSuppressed {
		return !from.IsTerminal()
	}

	for _, next := range NextStates(from) {
		if next == to {
			return true
		}
	}

	return false
}

// AdvanceTarget computes the single-step escalation target for a state.
// The result must still pass CanTransition, so states with no escalation
// path are rejected downstream rather than silently resolved.
func AdvanceTarget(from types.State) types.State {
	switch from {
	case types.StateTriage:
		return types.StateActive
	case types.StateActive:
		return types.StateContained
	case types.StateContained:
		return types.StateResolved
	}
	return types.StateResolved
}
