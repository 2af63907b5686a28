package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Actions reported by panel microcontrollers.
const (
	ActionSwitch        = "switch"
	ActionStateRead     = "stateread"
	ActionSetupComplete = "setup_complete"
	ActionStateChange   = "statechange"
)

var (
	ErrEmptyLine  = errors.New("empty line")
	ErrNotAnEvent = errors.New("line is not a JSON object")
)

// InboundEvent is one state-change notification decoded from a serial line.
type InboundEvent struct {
	Component string          `json:"component"`
	Action    string          `json:"action"`
	Value     EventValue      `json:"value"`
	Element   json.RawMessage `json:"element,omitempty"` // opaque, never routed on
}

// EventValue keeps the JSON shape of "value". Firmware always sends strings;
// anything else is carried verbatim but never equals a string literal.
type EventValue struct {
	raw      string
	isString bool
	present  bool
}

// StringValue builds a string-typed value, as firmware would send it.
func StringValue(s string) EventValue {
	return EventValue{raw: s, isString: true, present: true}
}

// Equals reports whether the value is the JSON string s. The number 2 is
// never equal to "2".
func (v EventValue) Equals(s string) bool {
	return v.isString && v.raw == s
}

func (v EventValue) IsString() bool { return v.isString }

// String returns the string content, or the raw JSON text for non-strings.
func (v EventValue) String() string { return v.raw }

func (v *EventValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = EventValue{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	}
	*v = EventValue{raw: string(b), present: true}
	return nil
}

func (v EventValue) MarshalJSON() ([]byte, error) {
	switch {
	case !v.present:
		return []byte("null"), nil
	case v.isString:
		return json.Marshal(v.raw)
	default:
		return []byte(v.raw), nil
	}
}

// DecodeEvent parses one serial line. Trailing CR/LF and surrounding
// whitespace are ignored.
func DecodeEvent(line []byte) (InboundEvent, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return InboundEvent{}, ErrEmptyLine
	}
	if line[0] != '{' {
		return InboundEvent{}, ErrNotAnEvent
	}
	var ev InboundEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return InboundEvent{}, err
	}
	return ev, nil
}
