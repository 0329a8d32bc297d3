package domain

import (
	"time"
)

// EventKind defines the category of an inbound user event.
type EventKind string

const (
	EventCommand   EventKind = "command"
	EventSelection EventKind = "selection"
	EventText      EventKind = "text"
)

// Standard commands.
const (
	CommandStart   = "start"
	CommandReviews = "reviews"
	CommandFAQs    = "faqs"
	CommandHelp    = "help"
)

// Event is an already-parsed inbound event from a transport.
type Event struct {
	Identity Identity  `json:"identity"`
	Kind     EventKind `json:"kind"`

	// Command is set for EventCommand (without the leading slash).
	Command string `json:"command,omitempty"`
	// Action is set for EventSelection.
	Action Action `json:"action,omitempty"`
	// Text is set for EventText.
	Text string `json:"text,omitempty"`
}

// ActionRef is a labeled next action offered to the user.
type ActionRef struct {
	Label  string `json:"label"`
	Action Action `json:"action"`
	// Data is the encoded action, ready to be used as a callback payload.
	Data string `json:"data"`
}

// NewActionRef labels an action and precomputes its wire form.
func NewActionRef(label string, a Action) ActionRef {
	return ActionRef{Label: label, Action: a, Data: a.Encode()}
}

// View is the outbound view-model. It carries data only; markup and keyboard
// layout belong to the rendering layer.
type View struct {
	Text    string      `json:"text"`
	Actions []ActionRef `json:"actions,omitempty"`
	Media   string      `json:"media,omitempty"`
	// Ignored is set when the event had no effect (e.g. stray text).
	Ignored bool `json:"ignored,omitempty"`
}

// FeedEventType categorizes outbound notifications.
type FeedEventType string

const (
	FeedActivity    FeedEventType = "activity"
	FeedOrderPlaced FeedEventType = "order_placed"
)

// FeedEvent is published to external collaborators after an event is handled.
type FeedEvent struct {
	Type       FeedEventType     `json:"type"`
	SessionKey string            `json:"session_key"`
	Timestamp  time.Time         `json:"timestamp"`
	Action     string            `json:"action,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Order      *OrderRecord      `json:"order,omitempty"`
}
