package models

import "time"

// Routing outcomes recorded in the journal.
const (
	OutcomeForwarded          = "forwarded"
	OutcomeSuppressedNotReady = "suppressed_not_ready"
	OutcomeSuppressedRead     = "suppressed_stateread"
	OutcomeNoCommand          = "no_command"
	OutcomeInvalidCommand     = "invalid_command"
	OutcomeUnknownComponent   = "unknown_component"
	OutcomeMalformed          = "malformed"
)

// PanelEvent is a single journal entry: one inbound event and what the
// router did with it.
type PanelEvent struct {
	EventID    string        `json:"event_id"`
	OccurredAt time.Time     `json:"occurred_at"`
	Source     string        `json:"source"`
	Component  string        `json:"component"`
	Action     string        `json:"action"`
	Value      string        `json:"value,omitempty"`
	Outcome    string        `json:"outcome"`
	Command    *AudioCommand `json:"command,omitempty"`
}

// RoutedEvent is what the dispatcher hands to observers after routing one
// event. Command is nil when nothing was forwarded.
type RoutedEvent struct {
	Source   string
	Event    InboundEvent
	Command  *AudioCommand
	Outcome  string
	Snapshot PanelSnapshot
	At       time.Time
}
