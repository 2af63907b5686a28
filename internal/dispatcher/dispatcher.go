// Package dispatcher runs the single routing loop: it polls every event
// source in turn, routes events through the mapper and feeds the audio
// queue.
package dispatcher

import (
	"context"
	"time"

	"panelsound/internal/audio"
	"panelsound/internal/logger"
	"panelsound/internal/mapper"
	"panelsound/internal/models"
	"panelsound/internal/queue"
)

const DefaultPollInterval = 10 * time.Millisecond

// Source is a per-channel inbound queue. TryNext must not block.
type Source interface {
	Name() string
	TryNext() (models.InboundEvent, bool)
}

// Observer receives every routed event. Observe must not block.
type Observer interface {
	Observe(models.RoutedEvent)
}

// Dispatcher owns the mapper (and so the panel state) for its lifetime.
type Dispatcher struct {
	log      *logger.Logger
	sources  []Source
	mapper   *mapper.Mapper
	audio    *queue.Queue[models.AudioCommand]
	observer Observer
	interval time.Duration
	now      func() time.Time
}

// New returns a dispatcher routing events from sources through m into audioQueue.
func New(sources []Source, m *mapper.Mapper, audioQueue *queue.Queue[models.AudioCommand], interval time.Duration, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Dispatcher{
		log:      log,
		sources:  sources,
		mapper:   m,
		audio:    audioQueue,
		interval: interval,
		now:      time.Now,
	}
}

// SetObserver installs the post-routing hook. Call before Run.
func (d *Dispatcher) SetObserver(o Observer) {
	d.observer = o
}

// Run polls sources round-robin until ctx is canceled. After a pass that
// found nothing it waits one poll interval.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Infow("dispatcher_started", "sources", len(d.sources), "poll_interval", d.interval.String())
	timer := time.NewTimer(d.interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			d.log.Infow("dispatcher_stopped")
			return
		}
		if d.pollOnce() {
			continue
		}

		timer.Reset(d.interval)
		select {
		case <-ctx.Done():
			d.log.Infow("dispatcher_stopped")
			return
		case <-timer.C:
		}
	}
}

// pollOnce takes at most one event from each source and reports whether
// any source had one.
func (d *Dispatcher) pollOnce() bool {
	found := false
	for _, src := range d.sources {
		ev, ok := src.TryNext()
		if !ok {
			continue
		}
		found = true
		d.Handle(src.Name(), ev)
	}
	return found
}

// Handle routes one event from source and forwards any valid command.
func (d *Dispatcher) Handle(source string, ev models.InboundEvent) {
	decision := d.mapper.Decide(ev)

	var forwarded *models.AudioCommand
	outcome := decision.Outcome
	if decision.OK {
		cmd := decision.Command
		switch {
		case !audio.IsValidCommand(cmd):
			d.log.Warnw("dispatch_invalid_command",
				"source", source, "component", ev.Component, "action", cmd.Action, "name", cmd.Name)
			outcome = models.OutcomeInvalidCommand
		default:
			if err := d.audio.Push(cmd); err != nil {
				d.log.Errorw("dispatch_audio_queue_push", "source", source, "error", err)
			} else {
				forwarded = &cmd
			}
		}
	}

	if d.observer != nil {
		d.observer.Observe(models.RoutedEvent{
			Source:   source,
			Event:    ev,
			Command:  forwarded,
			Outcome:  outcome,
			Snapshot: d.mapper.State().Snapshot(),
			At:       d.now().UTC(),
		})
	}
}
