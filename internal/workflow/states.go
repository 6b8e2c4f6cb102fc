package workflow

// State is a phase of the scan-to-artifact request flow.
type State string

const (
	StateIdle           State = "idle"
	StateResolving      State = "resolving"
	StateConfirming     State = "confirming"
	StateSelecting      State = "selecting"
	StateManualFallback State = "manual_fallback"
	StateGenerating     State = "generating"
)

// transitions enumerates the legal state machine edges. Every failure
// path returns to Idle.
var transitions = map[State][]State{
	StateIdle:           {StateResolving},
	StateResolving:      {StateConfirming, StateSelecting, StateManualFallback, StateIdle},
	StateSelecting:      {StateConfirming, StateIdle},
	StateManualFallback: {StateResolving, StateIdle},
	StateConfirming:     {StateGenerating, StateIdle},
	StateGenerating:     {StateIdle},
}

// CanTransition reports whether moving from one state to another is a
// legal edge of the flow.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// flow tracks the state of one request as it moves through the pipeline.
type flow struct {
	state State
}

func newFlow() *flow {
	return &flow{state: StateIdle}
}

// to advances the flow, panicking on an illegal edge. Transitions are
// driven entirely by controller code, so an illegal edge is a programming
// error rather than a runtime condition.
func (f *flow) to(next State) {
	if !CanTransition(f.state, next) {
		panic("workflow: illegal transition " + string(f.state) + " -> " + string(next))
	}
	f.state = next
}
