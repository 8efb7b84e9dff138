package alarms

import (
	"errors"
	"fmt"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
)

var (
	ErrAlarmNotFound          = errors.New("alarm not found")
	ErrInvalidValue           = errors.New("invalid value")
	ErrConcurrentModification = errors.New("alarm is being modified by another request")
)

// InvalidTransitionError is returned when a requested state change is not
// permitted by the lifecycle, together with the states that would have been.
type InvalidTransitionError struct {
	AlarmID string
	From    types.State
	To      types.State
	Allowed []types.State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s for alarm %s (allowed: %v)", e.From, e.To, e.AlarmID, e.Allowed)
}
