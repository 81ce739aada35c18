// Package roster defines the boundary to the external participant
// directory. The engine never trusts a directory's enumeration order;
// it only uses the directory as an id lookup and invocation surface.
package roster

import "errors"

// ErrUnknownParticipant is returned when a directory cannot resolve
// the given participant id.
var ErrUnknownParticipant = errors.New("roster: unknown participant")

// Message is the payload handed to a participant on their turn.
type Message struct {
	// Text is the accumulated round transcript plus the call prompt.
	Text string
	// Scope identifies the room/channel the round runs in.
	Scope string
}

// Callbacks receives the outcome of a participant invocation. Exactly
// one of the two is called, exactly once — or neither, ever: the
// directory offers no timeout guarantee, so callers must bound the
// wait themselves.
type Callbacks struct {
	OnReply func(text string)
	OnError func(err error)
}

// Directory is the narrow contract any concrete participant registry
// must satisfy.
type Directory interface {
	// Participants enumerates known participant ids in whatever order
	// the registry happens to hold them. The order carries no meaning.
	Participants() []string
	// Resolve reports whether the id maps to a callable participant.
	Resolve(id string) bool
	// Invoke delivers a message to the participant and eventually
	// reports the outcome through the callbacks, or never returns one.
	Invoke(id string, msg Message, cb Callbacks)
}
