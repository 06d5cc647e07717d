package deploy

import "fmt"

// =============================================================================
// Service State
// =============================================================================

// ServiceState is the runtime state of the compose stack.
type ServiceState string

const (
	ServiceAbsent  ServiceState = "absent"
	ServiceRunning ServiceState = "running"
	ServiceStopped ServiceState = "stopped"
)

// NeedsTeardown reports whether containers exist that must be removed before
// a clean build/start cycle.
func (s ServiceState) NeedsTeardown() bool {
	return s == ServiceRunning || s == ServiceStopped
}

// =============================================================================
// Lifecycle Stages
// =============================================================================

// Stage is a step of the lifecycle state machine.
type Stage string

const (
	StageIdle     Stage = "idle"
	StageStopping Stage = "stopping"
	StageStopped  Stage = "stopped"
	StageBuilding Stage = "building"
	StageBuilt    Stage = "built"
	StageStarting Stage = "starting"
	StageStarted  Stage = "started"
	StageFailed   Stage = "failed"
)

// ValidStageTransitions defines the one-directional edges of the lifecycle.
// A run with nothing to tear down skips straight from idle to building.
var ValidStageTransitions = map[Stage][]Stage{
	StageIdle:     {StageStopping, StageBuilding},
	StageStopping: {StageStopped, StageFailed},
	StageStopped:  {StageBuilding},
	StageBuilding: {StageBuilt, StageFailed},
	StageBuilt:    {StageStarting},
	StageStarting: {StageStarted, StageFailed},
	StageStarted:  {},
	StageFailed:   {},
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s Stage) CanTransitionTo(target Stage) bool {
	for _, allowed := range ValidStageTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Stage) IsTerminal() bool {
	return len(ValidStageTransitions[s]) == 0
}

// Tracker follows a run through the lifecycle and rejects backward moves.
type Tracker struct {
	current Stage
	history []Stage
}

// NewTracker returns a tracker positioned at StageIdle.
func NewTracker() *Tracker {
	return &Tracker{current: StageIdle, history: []Stage{StageIdle}}
}

// Current returns the current stage.
func (t *Tracker) Current() Stage {
	return t.current
}

// History returns every stage visited, in order.
func (t *Tracker) History() []Stage {
	out := make([]Stage, len(t.history))
	copy(out, t.history)
	return out
}

// Advance moves to target, or returns an error for an invalid transition.
func (t *Tracker) Advance(target Stage) error {
	if !t.current.CanTransitionTo(target) {
		return fmt.Errorf("invalid lifecycle transition %s -> %s", t.current, target)
	}
	t.current = target
	t.history = append(t.history, target)
	return nil
}
