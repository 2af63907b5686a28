package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"panelsound/internal/models"
)

type publisherStub struct {
	mu     sync.Mutex
	events []models.PanelEvent
	err    error
}

func (p *publisherStub) Publish(ctx context.Context, ev models.PanelEvent, snap models.PanelSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *publisherStub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func routed(component, outcome string, cmd *models.AudioCommand) models.RoutedEvent {
	return models.RoutedEvent{
		Source:   "/dev/ttyUSB0",
		Event:    models.InboundEvent{Component: component, Action: "switch", Value: models.StringValue("1")},
		Command:  cmd,
		Outcome:  outcome,
		Snapshot: models.PanelSnapshot{ID: 1, KeyStatus: models.KeyOn},
		At:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecorderService_RecordsAndPublishes(t *testing.T) {
	states := &stateRepoStub{}
	events := &eventRepoStub{}
	pub := &publisherStub{}
	rec := NewRecorderService(states, events, pub, 8, nil)

	cmd := models.Play("satellite_established", false)
	rec.Observe(routed("switch-31", models.OutcomeForwarded, &cmd))
	rec.Observe(routed("switch-99", models.OutcomeUnknownComponent, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for pub.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("recorder processed %d records", pub.count())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	got := events.entries()
	if len(got) != 2 {
		t.Fatalf("appended %d entries", len(got))
	}
	first := got[0]
	if first.EventID == "" || first.Source != "/dev/ttyUSB0" || first.Value != "1" {
		t.Errorf("entry: %+v", first)
	}
	if first.Command == nil || first.Command.Name != "satellite_established" {
		t.Errorf("command: %+v", first.Command)
	}
	if got[1].Outcome != models.OutcomeUnknownComponent || got[1].Command != nil {
		t.Errorf("second entry: %+v", got[1])
	}
	if states.savedCount() != 2 {
		t.Errorf("snapshots saved: %d", states.savedCount())
	}
}

func TestRecorderService_DrainsOnShutdown(t *testing.T) {
	events := &eventRepoStub{}
	rec := NewRecorderService(&stateRepoStub{}, events, nil, 8, nil)
	for i := 0; i < 3; i++ {
		rec.Observe(routed("key", models.OutcomeSuppressedRead, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	if n := len(events.entries()); n != 3 {
		t.Fatalf("drained %d of 3 records", n)
	}
}

func TestRecorderService_DropsWhenFull(t *testing.T) {
	rec := NewRecorderService(&stateRepoStub{}, &eventRepoStub{}, nil, 2, nil)
	for i := 0; i < 5; i++ {
		rec.Observe(routed("key", models.OutcomeSuppressedRead, nil))
	}
	if rec.Dropped() != 3 {
		t.Fatalf("dropped: %d", rec.Dropped())
	}
}

func TestRecorderService_ContinuesAfterErrors(t *testing.T) {
	events := &eventRepoStub{appendErr: errors.New("disk full")}
	states := &stateRepoStub{saveErr: errors.New("disk full")}
	pub := &publisherStub{err: errors.New("offline")}
	rec := NewRecorderService(states, events, pub, 4, nil)

	rec.Observe(routed("a", models.OutcomeNoCommand, nil))
	rec.Observe(routed("b", models.OutcomeNoCommand, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	if len(events.entries()) != 2 || pub.count() != 2 {
		t.Fatalf("recorder stopped after an error: appended=%d published=%d", len(events.entries()), pub.count())
	}
}
