// Package lifecycle models the two-phase collect/generate lifecycle of a
// sheet manager as a small guarded state machine.
package lifecycle

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a transition may proceed; a non-nil error
// refuses it and explains why.
type GuardFunc func(ctx context.Context) error

// Machine tracks one manager's state and validates transitions
type Machine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has a transition from the current state
	CanFire(trigger Trigger) bool

	// Fire runs the first transition whose guard passes
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the triggers configured for the current state, sorted
	PermittedTriggers() []Trigger
}

// Builder configures transitions and builds machines
type Builder struct {
	transitions map[State]map[Trigger][]transition
}

type transition struct {
	to    State
	guard GuardFunc
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[State]map[Trigger][]transition)}
}

// Permit allows trigger to move from one state to another
func (b *Builder) Permit(from State, trigger Trigger, to State) *Builder {
	return b.PermitIf(from, trigger, to, nil)
}

// PermitIf allows trigger to move from one state to another when guard passes.
// Panics on unknown states; builders are configured at construction time.
func (b *Builder) PermitIf(from State, trigger Trigger, to State, guard GuardFunc) *Builder {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", from))
	}
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	if b.transitions[from] == nil {
		b.transitions[from] = make(map[Trigger][]transition)
	}
	b.transitions[from][trigger] = append(b.transitions[from][trigger], transition{to: to, guard: guard})
	return b
}

// Build creates a machine in the initial state. Later builder changes do not
// affect it.
func (b *Builder) Build(initial State) Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}
	copied := make(map[State]map[Trigger][]transition, len(b.transitions))
	for from, byTrigger := range b.transitions {
		copied[from] = make(map[Trigger][]transition, len(byTrigger))
		for trigger, ts := range byTrigger {
			copied[from][trigger] = append([]transition(nil), ts...)
		}
	}
	return &machine{current: initial, transitions: copied}
}

// NewManagerMachine builds the standard manager lifecycle:
// registered -collect-> collected -generate-> generated. The optional
// collect guard enforces ordering dependencies between managers.
func NewManagerMachine(collectGuard GuardFunc) Machine {
	return NewBuilder().
		PermitIf(StateRegistered, TriggerCollect, StateCollected, collectGuard).
		Permit(StateCollected, TriggerGenerate, StateGenerated).
		Build(StateRegistered)
}

type machine struct {
	current     State
	transitions map[State]map[Trigger][]transition
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	return len(m.transitions[m.current][trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	ts := m.transitions[m.current][trigger]
	if len(ts) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	var refused error
	for _, t := range ts {
		if t.guard != nil {
			if err := t.guard(ctx); err != nil {
				refused = err
				continue
			}
		}
		m.current = t.to
		return nil
	}
	return fmt.Errorf("%w: %s from %s: %w", ErrGuardFailed, trigger, m.current, refused)
}

func (m *machine) PermittedTriggers() []Trigger {
	triggers := make([]Trigger, 0, len(m.transitions[m.current]))
	for trigger := range m.transitions[m.current] {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
