package models

// Audio command actions. CommandEndThread is a control sentinel for the
// audio worker, not an audio instruction.
const (
	CommandPlay      = "play"
	CommandStop      = "stop"
	CommandEndThread = "end_thread"
)

// AudioCommand is one instruction for the audio subsystem.
type AudioCommand struct {
	Action string `json:"action"`
	Name   string `json:"name"`
	Loop   bool   `json:"loop"`
}

// Play returns a play command for name.
func Play(name string, loop bool) AudioCommand {
	return AudioCommand{Action: CommandPlay, Name: name, Loop: loop}
}

// Stop returns a stop command for name.
func Stop(name string) AudioCommand {
	return AudioCommand{Action: CommandStop, Name: name}
}

// EndThread returns the sentinel that makes the audio worker exit.
func EndThread() AudioCommand {
	return AudioCommand{Action: CommandEndThread}
}
