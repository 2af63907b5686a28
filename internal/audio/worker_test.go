package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"panelsound/internal/models"
	"panelsound/internal/queue"
)

type call struct {
	action string
	name   string
	loop   bool
}

type controllerStub struct {
	known    map[string]bool
	calls    []call
	attempts int
	err      error
}

func (c *controllerStub) Has(name string) bool { return c.known[name] }

func (c *controllerStub) Play(name string, loop bool) error {
	c.attempts++
	if !c.known[name] {
		return ErrUnknownSound
	}
	c.calls = append(c.calls, call{models.CommandPlay, name, loop})
	return c.err
}

func (c *controllerStub) Stop(name string) error {
	c.attempts++
	if !c.known[name] {
		return ErrUnknownSound
	}
	c.calls = append(c.calls, call{models.CommandStop, name, false})
	return c.err
}

func runWorker(t *testing.T, w *Worker) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
		return nil
	}
}

func TestWorkerExecutesInOrderAndStopsOnEndThread(t *testing.T) {
	q := queue.New[models.AudioCommand]()
	ctrl := &controllerStub{known: map[string]bool{"hum": true, "beep": true}}

	for _, cmd := range []models.AudioCommand{
		models.Play("hum", true),
		models.Play("beep", false),
		models.Stop("hum"),
		models.EndThread(),
		models.Play("beep", false),
	} {
		_ = q.Push(cmd)
	}

	if err := runWorker(t, NewWorker(q, ctrl, nil)); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []call{
		{models.CommandPlay, "hum", true},
		{models.CommandPlay, "beep", false},
		{models.CommandStop, "hum", false},
	}
	if len(ctrl.calls) != len(want) {
		t.Fatalf("calls: got %+v, want %+v", ctrl.calls, want)
	}
	for i := range want {
		if ctrl.calls[i] != want[i] {
			t.Errorf("call %d: got %+v, want %+v", i, ctrl.calls[i], want[i])
		}
	}
	if q.Len() != 1 {
		t.Fatalf("commands after end_thread must stay queued, len=%d", q.Len())
	}
}

func TestWorkerSurvivesBadCommands(t *testing.T) {
	q := queue.New[models.AudioCommand]()
	ctrl := &controllerStub{known: map[string]bool{"ok": true}}

	for _, cmd := range []models.AudioCommand{
		{Action: models.CommandPlay},
		{Action: "rewind", Name: "ok"},
		models.Play("missing", false),
		models.Stop("missing"),
		models.Play("ok", false),
		models.EndThread(),
	} {
		_ = q.Push(cmd)
	}

	if err := runWorker(t, NewWorker(q, ctrl, nil)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ctrl.calls) != 1 || ctrl.calls[0].name != "ok" {
		t.Fatalf("got %+v", ctrl.calls)
	}
}

func TestWorkerChecksRegistryBeforeDispatch(t *testing.T) {
	q := queue.New[models.AudioCommand]()
	ctrl := &controllerStub{known: map[string]bool{"hum": true}}
	_ = q.Push(models.Play("ghost", true))
	_ = q.Push(models.Stop("ghost"))
	_ = q.Push(models.Play("hum", true))
	_ = q.Push(models.EndThread())

	if err := runWorker(t, NewWorker(q, ctrl, nil)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ctrl.attempts != 1 {
		t.Fatalf("unregistered names must not reach the controller, attempts=%d", ctrl.attempts)
	}
	if len(ctrl.calls) != 1 || ctrl.calls[0] != (call{models.CommandPlay, "hum", true}) {
		t.Fatalf("got %+v", ctrl.calls)
	}
}

func TestWorkerLogsControllerErrors(t *testing.T) {
	q := queue.New[models.AudioCommand]()
	ctrl := &controllerStub{known: map[string]bool{"ok": true}, err: errors.New("device busy")}
	_ = q.Push(models.Play("ok", false))
	_ = q.Push(models.Play("ok", false))
	_ = q.Push(models.EndThread())

	if err := runWorker(t, NewWorker(q, ctrl, nil)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ctrl.calls) != 2 {
		t.Fatalf("worker must keep going after a controller error, calls=%d", len(ctrl.calls))
	}
}

func TestWorkerStopsOnClosedQueue(t *testing.T) {
	q := queue.New[models.AudioCommand]()
	q.Close()
	if err := runWorker(t, NewWorker(q, &controllerStub{}, nil)); err != nil {
		t.Fatalf("closed queue: %v", err)
	}
}

func TestWorkerStopsOnContext(t *testing.T) {
	q := queue.New[models.AudioCommand]()
	w := NewWorker(q, &controllerStub{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsValidCommand(t *testing.T) {
	cases := []struct {
		cmd  models.AudioCommand
		want bool
	}{
		{models.Play("a", false), true},
		{models.Play("a", true), true},
		{models.Stop("a"), true},
		{models.Play("", false), false},
		{models.Stop(""), false},
		{models.EndThread(), false},
		{models.AudioCommand{Action: "pause", Name: "a"}, false},
		{models.AudioCommand{}, false},
	}
	for _, tc := range cases {
		if got := IsValidCommand(tc.cmd); got != tc.want {
			t.Errorf("IsValidCommand(%+v) = %v, want %v", tc.cmd, got, tc.want)
		}
	}
}
