package compositor

// Phase identifies where a merge currently is in its lifecycle. Transitions
// are linear: Idle -> Loading -> Recording -> Finalizing -> Done, with any
// step able to move to Failed.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseRecording  Phase = "recording"
	PhaseFinalizing Phase = "finalizing"
	PhaseFailed     Phase = "failed"
	PhaseDone       Phase = "done"
)

// Terminal reports whether the phase ends the merge lifecycle.
func (p Phase) Terminal() bool {
	return p == PhaseFailed || p == PhaseDone
}

var phaseSuccessors = map[Phase][]Phase{
	PhaseIdle:       {PhaseLoading, PhaseFailed},
	PhaseLoading:    {PhaseRecording, PhaseFailed},
	PhaseRecording:  {PhaseFinalizing, PhaseFailed},
	PhaseFinalizing: {PhaseDone, PhaseFailed},
}

// CanTransition reports whether moving from p to next is a legal step.
func (p Phase) CanTransition(next Phase) bool {
	for _, candidate := range phaseSuccessors[p] {
		if candidate == next {
			return true
		}
	}
	return false
}
