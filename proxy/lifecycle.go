package proxy

import (
	"context"

	"github.com/qmuntal/stateless"
)

// connState models a channel's attach lifecycle as an explicit state
// machine rather than a bare bool, so EnsureConnected/Disconnect/Step
// agree on legal transitions by construction (e.g. Step can never run
// against a channel mid-enumeration).
type connState string

const (
	connStateIdle        connState = "idle"        // nothing attached
	connStateEnumerating connState = "enumerating" // enum.Open in flight
	connStateAttached    connState = "attached"    // enumerated and polling reports
)

type connTrigger string

const (
	triggerAttachStart connTrigger = "attach-start"
	triggerAttachOK    connTrigger = "attach-ok"
	triggerAttachFail  connTrigger = "attach-fail"
	triggerDetach      connTrigger = "detach"
)

// newConnLifecycle builds the three-state machine shared by every
// Channel. Enumerating and Attached both accept Detach, so a disconnect
// observed mid-enumeration also collapses cleanly back to Idle; Idle
// accepts only AttachStart.
func newConnLifecycle() *stateless.StateMachine {
	sm := stateless.NewStateMachine(connStateIdle)
	sm.Configure(connStateIdle).
		Permit(triggerAttachStart, connStateEnumerating)
	sm.Configure(connStateEnumerating).
		Permit(triggerAttachOK, connStateAttached).
		Permit(triggerAttachFail, connStateIdle).
		Permit(triggerDetach, connStateIdle)
	sm.Configure(connStateAttached).
		Permit(triggerDetach, connStateIdle)
	return sm
}

func (c *Channel) attached() bool {
	state, err := c.lifecycle.State(context.Background())
	if err != nil {
		return false
	}
	return state == connStateAttached
}

func (c *Channel) fire(ctx context.Context, trigger connTrigger) {
	// FireCtx only returns an error for illegal transitions, which would
	// be a programming error in this package, not a runtime condition
	// callers need to handle; callers already gate calls on state.
	_ = c.lifecycle.FireCtx(ctx, trigger)
}
