package broadcast

// State is the lifecycle stage of a Queue.
type State int32

const (
	// StateLive accepts every operation.
	StateLive State = iota
	// StateDraining means Destroy has started and is waiting for parked
	// Put and Get callers to observe it and leave.
	StateDraining
	// StateDestroyed means every envelope and subscriber record is gone.
	StateDestroyed
	// StateReleased is the final stage, reached once Destroy returns.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateDraining:
		return "draining"
	case StateDestroyed:
		return "destroyed"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}
