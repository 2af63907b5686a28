package audio

import (
	"context"
	"errors"

	"panelsound/internal/logger"
	"panelsound/internal/models"
	"panelsound/internal/queue"
)

// Worker is the single consumer of the audio command queue.
type Worker struct {
	log        *logger.Logger
	commands   *queue.Queue[models.AudioCommand]
	controller Controller
}

// NewWorker returns a worker that feeds commands to controller.
func NewWorker(commands *queue.Queue[models.AudioCommand], controller Controller, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Worker{log: log, commands: commands, controller: controller}
}

// Run executes commands in FIFO order until it pops end_thread, the queue is
// closed and drained, or ctx is done. Bad commands are logged and skipped.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Infow("audio_worker_started")
	for {
		cmd, err := w.commands.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) {
				w.log.Infow("audio_worker_stopped", "reason", "queue_closed")
				return nil
			}
			return err
		}
		if cmd.Action == models.CommandEndThread {
			w.log.Infow("audio_worker_stopped", "reason", "end_thread")
			return nil
		}
		w.execute(cmd)
	}
}

func (w *Worker) execute(cmd models.AudioCommand) {
	if !IsValidCommand(cmd) {
		w.log.Warnw("audio_invalid_command", "action", cmd.Action, "name", cmd.Name)
		return
	}

	if !w.controller.Has(cmd.Name) {
		w.log.Warnw("audio_unknown_sound", "action", cmd.Action, "name", cmd.Name)
		return
	}

	var err error
	switch cmd.Action {
	case models.CommandPlay:
		err = w.controller.Play(cmd.Name, cmd.Loop)
	case models.CommandStop:
		err = w.controller.Stop(cmd.Name)
	}
	switch {
	case errors.Is(err, ErrUnknownSound):
		w.log.Warnw("audio_unknown_sound", "action", cmd.Action, "name", cmd.Name)
	case err != nil:
		w.log.Errorw("audio_command_failed", "action", cmd.Action, "name", cmd.Name, "error", err)
	default:
		w.log.Debugw("audio_command_done", "action", cmd.Action, "name", cmd.Name, "loop", cmd.Loop)
	}
}
