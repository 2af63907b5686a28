package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"panelsound/internal/logger"
	"panelsound/internal/models"
	"panelsound/internal/repository"
)

const (
	defaultRecorderBuffer = 256
	recordTimeout         = 2 * time.Second
)

// Publisher fans journal entries out to an external bus.
type Publisher interface {
	Publish(ctx context.Context, ev models.PanelEvent, snap models.PanelSnapshot) error
}

// RecorderService persists routed events off the routing path. When its
// buffer is full new records are dropped, never the routing.
type RecorderService struct {
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	publisher Publisher
	log       *logger.Logger

	records chan models.RoutedEvent
	dropped atomic.Int64
}

func NewRecorderService(stateRepo repository.StateRepo, eventRepo repository.EventRepo, publisher Publisher, buffer int, log *logger.Logger) *RecorderService {
	if log == nil {
		log = logger.NewNop()
	}
	if buffer <= 0 {
		buffer = defaultRecorderBuffer
	}
	return &RecorderService{
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		publisher: publisher,
		log:       log,
		records:   make(chan models.RoutedEvent, buffer),
	}
}

// Reset overwrites the persisted snapshot with snap. Call it once at
// startup, before the API serves state.
func (s *RecorderService) Reset(ctx context.Context, snap models.PanelSnapshot) error {
	if err := s.stateRepo.Save(ctx, snap); err != nil {
		return fmt.Errorf("reset panel state: %w", err)
	}
	s.log.Infow("recorder_state_reset", "key_status", snap.KeyStatus, "ready", snap.Ready)
	return nil
}

// Observe queues rec for recording without blocking.
func (s *RecorderService) Observe(rec models.RoutedEvent) {
	select {
	case s.records <- rec:
	default:
		n := s.dropped.Add(1)
		s.log.Warnw("recorder_buffer_full", "component", rec.Event.Component, "dropped_total", n)
	}
}

// Dropped returns how many records were discarded because the buffer was full.
func (s *RecorderService) Dropped() int64 {
	return s.dropped.Load()
}

// Run records until ctx is canceled, then drains what is already buffered.
func (s *RecorderService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.drain(ctx)
			return
		case rec := <-s.records:
			s.record(ctx, rec)
		}
	}
}

func (s *RecorderService) drain(ctx context.Context) {
	for {
		select {
		case rec := <-s.records:
			s.record(ctx, rec)
		default:
			return
		}
	}
}

func (s *RecorderService) record(ctx context.Context, rec models.RoutedEvent) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	entry := toPanelEvent(rec)
	if err := s.eventRepo.Append(wctx, entry); err != nil {
		s.log.Errorw("recorder_append_failed", "component", entry.Component, "error", err)
	}
	if err := s.stateRepo.Save(wctx, rec.Snapshot); err != nil {
		s.log.Errorw("recorder_save_state_failed", "error", err)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(wctx, entry, rec.Snapshot); err != nil {
			s.log.Debugw("recorder_publish_failed", "error", err)
		}
	}
}

func toPanelEvent(rec models.RoutedEvent) models.PanelEvent {
	at := rec.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return models.PanelEvent{
		EventID:    uuid.NewString(),
		OccurredAt: at,
		Source:     rec.Source,
		Component:  rec.Event.Component,
		Action:     rec.Event.Action,
		Value:      rec.Event.Value.String(),
		Outcome:    rec.Outcome,
		Command:    rec.Command,
	}
}
