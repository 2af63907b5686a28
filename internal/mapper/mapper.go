// Package mapper turns inbound panel events into audio commands. It owns the
// panel state and the routing table, and is driven by a single dispatcher
// goroutine.
package mapper

import (
	"strings"

	"panelsound/internal/logger"
	"panelsound/internal/models"
	"panelsound/internal/panel"
)

// Decision is the full result of routing one event.
type Decision struct {
	Command models.AudioCommand
	OK      bool   // a command was produced
	Outcome string // one of the models.Outcome* values
}

// Mapper is the MessageMapper: state update first, then gating, then
// per-component translation.
type Mapper struct {
	log          *logger.Logger
	state        *panel.State
	table        Table
	offlineSound string
	announced    bool
}

// New builds a mapper around state. An empty offlineSound selects
// DefaultOfflineSound.
func New(state *panel.State, rules []Rule, offlineSound string, log *logger.Logger) (*Mapper, error) {
	if log == nil {
		log = logger.NewNop()
	}
	table, err := NewTable(rules)
	if err != nil {
		return nil, err
	}
	if offlineSound == "" {
		offlineSound = DefaultOfflineSound
	}
	return &Mapper{
		log:          log,
		state:        state,
		table:        table,
		offlineSound: offlineSound,
	}, nil
}

// State exposes the owned panel state for snapshotting by the same
// goroutine that routes.
func (m *Mapper) State() *panel.State {
	return m.state
}

// Route converts one event into at most one audio command.
func (m *Mapper) Route(ev models.InboundEvent) (models.AudioCommand, bool) {
	d := m.Decide(ev)
	return d.Command, d.OK
}

// Decide is Route plus the reason a command was or was not produced.
func (m *Mapper) Decide(ev models.InboundEvent) Decision {
	if ev.Component == "" || ev.Action == "" {
		m.log.Errorw("route_malformed_event", "component", ev.Component, "action", ev.Action)
		return Decision{Outcome: models.OutcomeMalformed}
	}

	m.state.ProcessEvent(ev)

	if !m.state.ControllersReady() {
		m.log.Debugw("route_suppressed_not_ready", "component", ev.Component, "action", ev.Action)
		return Decision{Outcome: models.OutcomeSuppressedNotReady}
	}
	if ev.Action == models.ActionStateRead {
		return Decision{Outcome: models.OutcomeSuppressedRead}
	}

	rule, ok := m.table[ev.Component]
	if !ok {
		m.log.Warnw("route_unknown_component", "component", ev.Component, "action", ev.Action)
		return Decision{Outcome: models.OutcomeUnknownComponent}
	}

	cmd, ok := m.translate(rule, ev)
	if !ok {
		m.log.Debugw("route_no_command", "component", ev.Component, "value", ev.Value.String())
		return Decision{Outcome: models.OutcomeNoCommand}
	}
	if cmd.Name == "" {
		m.log.Warnw("route_sound_lookup_failed",
			"component", ev.Component, "action", ev.Action, "value", ev.Value.String())
	}
	m.log.Debugw("route_command", "component", ev.Component, "cmd_action", cmd.Action, "name", cmd.Name, "loop", cmd.Loop)
	return Decision{Command: cmd, OK: true, Outcome: models.OutcomeForwarded}
}

func (m *Mapper) translate(rule Rule, ev models.InboundEvent) (models.AudioCommand, bool) {
	if rule.gated() && m.state.KeyStatus() != models.KeyOn {
		return models.Play(m.offlineSound, false), true
	}

	switch rule.Strategy {
	case StrategyDirect, StrategyMulti, StrategyKey:
		return m.valueTable(rule, ev), true
	case StrategySubState:
		return subState(rule, ev)
	case StrategyLoop:
		return loop(rule, ev)
	case StrategyReadiness:
		return m.readiness(rule, ev)
	}
	return models.AudioCommand{}, false
}

// valueTable returns a play command for the first matching entry. With no
// match the command has no name, which Route reports and the dispatcher
// drops.
func (m *Mapper) valueTable(rule Rule, ev models.InboundEvent) models.AudioCommand {
	key := m.state.KeyStatus()
	for _, vs := range rule.Values {
		if vs.Key != "" && vs.Key != key {
			continue
		}
		if ev.Value.Equals(vs.Value) {
			return models.Play(vs.Sound, false)
		}
	}
	return models.AudioCommand{Action: models.CommandPlay}
}

// subState handles "TOKEN:n" values. Anything else yields no command.
func subState(rule Rule, ev models.InboundEvent) (models.AudioCommand, bool) {
	if !ev.Value.IsString() {
		return models.AudioCommand{}, false
	}
	token, index, found := strings.Cut(ev.Value.String(), ":")
	if !found || token == "" || !isDigits(index) {
		return models.AudioCommand{}, false
	}
	for _, ts := range rule.Tokens {
		if token == ts.Token {
			return models.Play(ts.Sound, false), true
		}
	}
	return models.AudioCommand{}, false
}

func loop(rule Rule, ev models.InboundEvent) (models.AudioCommand, bool) {
	switch {
	case ev.Value.Equals(rule.PlayValue):
		return models.Play(rule.Sound, true), true
	case ev.Value.Equals(rule.StopValue):
		return models.Stop(rule.Sound), true
	}
	return models.AudioCommand{}, false
}

// readiness fires once per process, on the setup_complete that completes
// readiness. Route only gets here once every controller is ready.
func (m *Mapper) readiness(rule Rule, ev models.InboundEvent) (models.AudioCommand, bool) {
	if ev.Action != models.ActionSetupComplete || m.announced {
		return models.AudioCommand{}, false
	}
	m.announced = true
	m.log.Infow("route_panel_ready", "controller", ev.Component)
	return models.Play(rule.Sound, false), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
