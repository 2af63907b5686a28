package mapper

import (
	"errors"
	"fmt"
	"strings"

	"panelsound/internal/models"
)

// Strategy names one of the closed set of translation strategies.
type Strategy string

const (
	// StrategyDirect maps one value of a component to one fixed sound.
	StrategyDirect Strategy = "direct"
	// StrategyMulti selects one of several sounds by the value code.
	StrategyMulti Strategy = "multi"
	// StrategySubState matches compound values such as "ACTIVE:3" by token.
	StrategySubState Strategy = "substate"
	// StrategyLoop starts or stops a looping sound.
	StrategyLoop Strategy = "loop"
	// StrategyKey is the key switch itself; never redirected while offline.
	StrategyKey Strategy = "key"
	// StrategyReadiness announces the first time every controller is ready.
	StrategyReadiness Strategy = "readiness"
)

var errNoComponent = errors.New("component is required")

// ValueSound maps a string value to a sound. When Key is set the entry only
// matches while the panel key is in that position.
type ValueSound struct {
	Value string           `mapstructure:"value" json:"value"`
	Sound string           `mapstructure:"sound" json:"sound"`
	Key   models.KeyStatus `mapstructure:"key" json:"key,omitempty"`
}

// TokenSound maps the token of a compound value ("ACTIVE" in "ACTIVE:3")
// to a sound family.
type TokenSound struct {
	Token string `mapstructure:"token" json:"token"`
	Sound string `mapstructure:"sound" json:"sound"`
}

// Rule is one entry of the routing table: a component, its strategy and the
// strategy's static parameters. Entries in Values and Tokens are tried in
// order and the first match wins.
type Rule struct {
	Component string       `mapstructure:"component" json:"component"`
	Strategy  Strategy     `mapstructure:"strategy" json:"strategy"`
	Values    []ValueSound `mapstructure:"values" json:"values,omitempty"`
	Tokens    []TokenSound `mapstructure:"tokens" json:"tokens,omitempty"`
	Sound     string       `mapstructure:"sound" json:"sound,omitempty"`
	PlayValue string       `mapstructure:"play_value" json:"play_value,omitempty"`
	StopValue string       `mapstructure:"stop_value" json:"stop_value,omitempty"`
}

// gated reports whether the rule is redirected to the offline sound while
// the key is not ON.
func (r Rule) gated() bool {
	return r.Strategy != StrategyKey && r.Strategy != StrategyReadiness
}

// Validate checks that the rule carries the parameters its strategy needs.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Component) == "" {
		return errNoComponent
	}
	switch r.Strategy {
	case StrategyDirect:
		if len(r.Values) != 1 {
			return fmt.Errorf("rule %q: direct strategy needs exactly one value", r.Component)
		}
		return validateValues(r)
	case StrategyMulti, StrategyKey:
		if len(r.Values) == 0 {
			return fmt.Errorf("rule %q: %s strategy needs values", r.Component, r.Strategy)
		}
		return validateValues(r)
	case StrategySubState:
		if len(r.Tokens) == 0 {
			return fmt.Errorf("rule %q: substate strategy needs tokens", r.Component)
		}
		for _, t := range r.Tokens {
			if t.Token == "" || t.Sound == "" || strings.Contains(t.Token, ":") {
				return fmt.Errorf("rule %q: invalid token entry %+v", r.Component, t)
			}
		}
	case StrategyLoop:
		if r.Sound == "" || r.PlayValue == "" || r.StopValue == "" {
			return fmt.Errorf("rule %q: loop strategy needs sound, play_value and stop_value", r.Component)
		}
		if r.PlayValue == r.StopValue {
			return fmt.Errorf("rule %q: play_value and stop_value must differ", r.Component)
		}
	case StrategyReadiness:
		if r.Sound == "" {
			return fmt.Errorf("rule %q: readiness strategy needs a sound", r.Component)
		}
	default:
		return fmt.Errorf("rule %q: unknown strategy %q", r.Component, r.Strategy)
	}
	return nil
}

func validateValues(r Rule) error {
	for _, v := range r.Values {
		if v.Value == "" || v.Sound == "" {
			return fmt.Errorf("rule %q: value entry needs value and sound: %+v", r.Component, v)
		}
		switch v.Key {
		case "", models.KeyOn, models.KeyOff, models.KeyInvalid:
		default:
			return fmt.Errorf("rule %q: unknown key status %q", r.Component, v.Key)
		}
	}
	return nil
}

// Table is the EventRoutingTable: component id to rule. Read-only once built.
type Table map[string]Rule

// NewTable validates rules and indexes them by component.
func NewTable(rules []Rule) (Table, error) {
	t := make(Table, len(rules))
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		if _, dup := t[r.Component]; dup {
			return nil, fmt.Errorf("route %d: duplicate component %q", i, r.Component)
		}
		t[r.Component] = r
	}
	return t, nil
}

// Sound names used by the stock panel.
const (
	DefaultOfflineSound = "systems_offline"
	DefaultReadySound   = "systems_ready"
)

// DefaultRules is the routing table for the stock panel.
func DefaultRules() []Rule {
	return []Rule{
		{
			Component: "key",
			Strategy:  StrategyKey,
			Values: []ValueSound{
				{Value: "0", Sound: "initialization_sequence", Key: models.KeyOn},
				{Value: "1", Sound: "shutdown_sequence", Key: models.KeyOff},
			},
		},
		{
			Component: "switch-32",
			Strategy:  StrategyDirect,
			Values:    []ValueSound{{Value: "0", Sound: "gauss_rifle"}},
		},
		{
			Component: "switch-31",
			Strategy:  StrategyMulti,
			Values: []ValueSound{
				{Value: "1", Sound: "satellite_established"},
				{Value: "0", Sound: "satellite_shutdown"},
			},
		},
		{
			Component: "switch-50-52",
			Strategy:  StrategyMulti,
			Values: []ValueSound{
				{Value: "1", Sound: "reactor_online"},
				{Value: "2", Sound: "reactor_offline"},
			},
		},
		{
			Component: "switch-51-53",
			Strategy:  StrategyMulti,
			Values: []ValueSound{
				{Value: "2", Sound: "linked_fire"},
				{Value: "1", Sound: "single_fire"},
				{Value: "0", Sound: "group_fire"},
			},
		},
		{
			Component: "switch-42-49",
			Strategy:  StrategySubState,
			Tokens: []TokenSound{
				{Token: "ACTIVE", Sound: "array_online"},
				{Token: "WAITING", Sound: "array_processing"},
				{Token: "IDLE", Sound: "array_offline"},
			},
		},
		{
			Component: "switch-07",
			Strategy:  StrategyLoop,
			Sound:     "reactor_hum",
			PlayValue: "1",
			StopValue: "0",
		},
		{Component: "controller01", Strategy: StrategyReadiness, Sound: DefaultReadySound},
		{Component: "controller02", Strategy: StrategyReadiness, Sound: DefaultReadySound},
	}
}
