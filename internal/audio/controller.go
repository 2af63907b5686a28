// Package audio plays named sound clips on behalf of the dispatcher. The
// Worker drains the audio command queue; a Controller does the playing.
package audio

import (
	"errors"

	"panelsound/internal/models"
)

var ErrUnknownSound = errors.New("sound not registered")

// Controller is the audio back end.
type Controller interface {
	Play(name string, loop bool) error
	Stop(name string) error
	Has(name string) bool
}

// IsValidCommand reports whether cmd is a well-formed play or stop request.
// The end_thread sentinel is not a valid command for producers.
func IsValidCommand(cmd models.AudioCommand) bool {
	switch cmd.Action {
	case models.CommandPlay, models.CommandStop:
		return cmd.Name != ""
	}
	return false
}
