// File: internal/orchestrator/phase.go
package orchestrator

// Phase is the workflow's position in its state machine.
type Phase int32

const (
	PhaseInit Phase = iota
	PhaseLaunching
	PhaseAuthenticating
	PhaseNavigating
	PhaseProcessing
	PhaseFinalizing
	PhaseDone
	PhaseAborted
)

var phaseNames = [...]string{
	PhaseInit:           "init",
	PhaseLaunching:      "launching",
	PhaseAuthenticating: "authenticating",
	PhaseNavigating:     "navigating",
	PhaseProcessing:     "processing",
	PhaseFinalizing:     "finalizing",
	PhaseDone:           "done",
	PhaseAborted:        "aborted",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}
