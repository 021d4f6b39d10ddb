package tenant

import (
	"fmt"
	"slices"
)

// Phase is a step of a guarded execution.
// Every unit runs Idle -> Normalizing -> Resolving -> Bound -> Running ->
// Unbinding -> Idle. A configuration error or a fail-closed rejection returns
// from Resolving straight to Idle; a bind failure skips Running. A unit that
// panics while normalizing its input goes from Normalizing to Idle.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseNormalizing
	PhaseResolving
	PhaseBound
	PhaseRunning
	PhaseUnbinding
)

var phaseNames = map[Phase]string{
	PhaseIdle:        "idle",
	PhaseNormalizing: "normalizing",
	PhaseResolving:   "resolving",
	PhaseBound:       "bound",
	PhaseRunning:     "running",
	PhaseUnbinding:   "unbinding",
}

var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:        {PhaseNormalizing},
	PhaseNormalizing: {PhaseResolving, PhaseIdle},
	PhaseResolving:   {PhaseBound, PhaseIdle},
	PhaseBound:       {PhaseRunning, PhaseUnbinding},
	PhaseRunning:     {PhaseUnbinding},
	PhaseUnbinding:   {PhaseIdle},
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// CanTransition reports whether a unit may move from p to next.
func (p Phase) CanTransition(next Phase) bool {
	return slices.Contains(phaseTransitions[p], next)
}

// unit tracks the phase of one guarded execution.
type unit struct {
	phase Phase
	// last is the furthest phase reached before returning to Idle.
	last Phase
}

func (u *unit) advance(next Phase) {
	if !u.phase.CanTransition(next) {
		panic(fmt.Sprintf("tenant: invalid phase transition %s -> %s", u.phase, next))
	}
	if next != PhaseIdle {
		u.last = next
	}
	u.phase = next
}
