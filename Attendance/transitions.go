package Attendance

type State string

const (
	StateIdle             State = "IDLE"
	StateAwaitingLocation State = "AWAITING_LOCATION"
	StateReadyToConfirm   State = "READY_TO_CONFIRM"
	StateSubmitting       State = "SUBMITTING"
	StateSuccess          State = "SUCCESS"
	StateFailed           State = "FAILED"
)

// Submitting can also be entered straight from Idle or AwaitingLocation:
// confirming without a location fix is allowed.
var transitionMap = map[State][]State{
	StateIdle:             {StateAwaitingLocation, StateSubmitting},
	StateAwaitingLocation: {StateReadyToConfirm, StateSubmitting, StateIdle},
	StateReadyToConfirm:   {StateReadyToConfirm, StateSubmitting, StateIdle},
	StateSubmitting:       {StateSuccess, StateFailed, StateIdle},
	StateSuccess:          {StateIdle},
	StateFailed:           {StateReadyToConfirm},
}

func ValidTransition(from, to State) bool {
	for _, state := range transitionMap[from] {
		if state == to {
			return true
		}
	}
	return false
}
