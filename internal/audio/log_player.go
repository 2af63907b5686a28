package audio

import (
	"sync"

	"panelsound/internal/logger"
)

// LogPlayer is the headless driver: it logs what would be played and keeps
// track of running loops.
type LogPlayer struct {
	log     *logger.Logger
	catalog Catalog

	mu      sync.Mutex
	playing map[string]bool
}

func NewLogPlayer(catalog Catalog, log *logger.Logger) *LogPlayer {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogPlayer{log: log, catalog: catalog, playing: make(map[string]bool)}
}

func (p *LogPlayer) Has(name string) bool {
	_, ok := p.catalog[name]
	return ok
}

func (p *LogPlayer) Play(name string, loop bool) error {
	clip, ok := p.catalog[name]
	if !ok {
		return ErrUnknownSound
	}
	if loop && !clip.Loopable {
		p.log.Warnw("audio_loop_not_allowed", "name", name)
		loop = false
	}
	p.mu.Lock()
	if loop {
		p.playing[name] = true
	}
	p.mu.Unlock()
	p.log.Infow("audio_play", "name", name, "sound", clip.Sound, "loop", loop)
	return nil
}

func (p *LogPlayer) Stop(name string) error {
	if !p.Has(name) {
		return ErrUnknownSound
	}
	p.mu.Lock()
	delete(p.playing, name)
	p.mu.Unlock()
	p.log.Infow("audio_stop", "name", name)
	return nil
}

// Looping reports whether name was started as a loop and not stopped.
func (p *LogPlayer) Looping(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing[name]
}
