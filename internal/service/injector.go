package service

import (
	"errors"
	"fmt"

	"panelsound/internal/logger"
	"panelsound/internal/models"
)

var (
	ErrInvalidEvent     = errors.New("event needs component and action")
	ErrInjectionOffline = errors.New("event injection is not available")
)

// EventSink is the virtual source the dispatcher polls.
type EventSink interface {
	Push(ev models.InboundEvent) error
}

type InjectorService struct {
	sink EventSink
	log  *logger.Logger
}

func NewInjectorService(sink EventSink, log *logger.Logger) *InjectorService {
	if log == nil {
		log = logger.NewNop()
	}
	return &InjectorService{sink: sink, log: log}
}

// Inject queues ev as if it had arrived on a serial line. Routing happens
// later on the dispatcher goroutine.
func (s *InjectorService) Inject(ev models.InboundEvent) error {
	if ev.Component == "" || ev.Action == "" {
		return ErrInvalidEvent
	}
	if s.sink == nil {
		return ErrInjectionOffline
	}
	if err := s.sink.Push(ev); err != nil {
		return fmt.Errorf("%w: %v", ErrInjectionOffline, err)
	}
	s.log.Infow("event_injected", "component", ev.Component, "action", ev.Action, "value", ev.Value.String())
	return nil
}
