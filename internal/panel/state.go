package panel

import (
	"time"

	"panelsound/internal/logger"
	"panelsound/internal/models"
)

// KeyComponent is the component id of the keyed power switch.
const KeyComponent = "key"

// DefaultControllers are the microcontrollers on the stock panel.
var DefaultControllers = []string{"controller01", "controller02"}

// State is the panel state machine.
type State struct {
	log *logger.Logger

	keyStatus   models.KeyStatus
	controllers map[string]bool
	components  map[string]models.ComponentState
	processed   int64
	updatedAt   time.Time

	now func() time.Time
}

// NewState returns a state with the key INVALID and every controller not
// ready.
func NewState(controllerIDs []string, log *logger.Logger) *State {
	if log == nil {
		log = logger.NewNop()
	}
	controllers := make(map[string]bool, len(controllerIDs))
	for _, id := range controllerIDs {
		controllers[id] = false
	}
	return &State{
		log:         log,
		keyStatus:   models.KeyInvalid,
		controllers: controllers,
		components:  make(map[string]models.ComponentState),
		now:         time.Now,
	}
}

// ProcessEvent applies one inbound event. Events without a component are
// logged and ignored.
func (s *State) ProcessEvent(ev models.InboundEvent) {
	if ev.Component == "" {
		s.log.Errorw("panel_event_missing_component", "action", ev.Action, "value", ev.Value.String())
		return
	}

	now := s.now().UTC()
	s.processed++
	s.updatedAt = now
	s.components[ev.Component] = models.ComponentState{
		Action:    ev.Action,
		Value:     ev.Value.String(),
		UpdatedAt: now,
	}

	switch {
	case ev.Component == KeyComponent:
		s.applyKeyEvent(ev)
	case ev.Action == models.ActionSetupComplete:
		s.applySetupComplete(ev.Component)
	}
}

// applyKeyEvent implements the key transitions. A stateread of "0" is the
// ambiguous restart snapshot and is ignored.
func (s *State) applyKeyEvent(ev models.InboundEvent) {
	prev := s.keyStatus
	switch {
	case ev.Action == models.ActionStateRead && ev.Value.Equals("0"):
		return
	case ev.Action == models.ActionStateRead && ev.Value.Equals("1"):
		s.keyStatus = models.KeyOff
	case ev.Action == models.ActionSwitch && ev.Value.Equals("0"):
		s.keyStatus = models.KeyOn
	case ev.Action == models.ActionSwitch && ev.Value.Equals("1"):
		s.keyStatus = models.KeyOff
	default:
		return
	}
	if prev != s.keyStatus {
		s.log.Infow("panel_key_status", "from", prev, "to", s.keyStatus)
	}
}

// applySetupComplete marks a controller ready. Readiness never reverts.
func (s *State) applySetupComplete(id string) {
	if !s.IsController(id) {
		s.log.Debugw("panel_setup_complete_unknown_controller", "component", id)
		return
	}
	if s.controllers[id] {
		return
	}
	s.controllers[id] = true
	s.log.Infow("panel_controller_ready", "controller", id, "all_ready", s.ControllersReady())
}

// ControllersReady reports whether every tracked controller has sent
// setup_complete.
func (s *State) ControllersReady() bool {
	for _, ready := range s.controllers {
		if !ready {
			return false
		}
	}
	return true
}

// IsController reports whether id is a tracked controller.
func (s *State) IsController(id string) bool {
	_, ok := s.controllers[id]
	return ok
}

// KeyStatus returns the current key position.
func (s *State) KeyStatus() models.KeyStatus {
	return s.keyStatus
}

// Snapshot returns a deep copy safe to hand to other goroutines.
func (s *State) Snapshot() models.PanelSnapshot {
	controllers := make(map[string]bool, len(s.controllers))
	for id, ready := range s.controllers {
		controllers[id] = ready
	}
	components := make(map[string]models.ComponentState, len(s.components))
	for id, cs := range s.components {
		components[id] = cs
	}
	return models.PanelSnapshot{
		ID:              1,
		KeyStatus:       s.keyStatus,
		Controllers:     controllers,
		Ready:           s.ControllersReady(),
		Components:      components,
		EventsProcessed: s.processed,
		UpdatedAt:       s.updatedAt,
	}
}
