package models

import "time"

// KeyStatus is the logical position of the panel's key switch.
type KeyStatus string

const (
	KeyOn      KeyStatus = "ON"
	KeyOff     KeyStatus = "OFF"
	KeyInvalid KeyStatus = "INVALID" // unknown at boot
)

// ComponentState is the last thing a component reported.
type ComponentState struct {
	Action    string    `json:"action"`
	Value     string    `json:"value,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PanelSnapshot is a point-in-time copy of the panel state.
type PanelSnapshot struct {
	ID              int                       `json:"id"`
	KeyStatus       KeyStatus                 `json:"key_status"`
	Controllers     map[string]bool           `json:"controllers"`
	Ready           bool                      `json:"ready"`
	Components      map[string]ComponentState `json:"components,omitempty"`
	EventsProcessed int64                     `json:"events_processed"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}
