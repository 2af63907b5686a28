package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"panelsound/internal/logger"
)

const resampleQuality = 4

type sample struct {
	clip   Clip
	buffer *beep.Buffer
}

// BeepPlayer decodes every clip into memory at startup and mixes them on
// the default speaker.
type BeepPlayer struct {
	log     *logger.Logger
	samples map[string]*sample

	mu     sync.Mutex
	voices map[string][]*beep.Ctrl
}

// NewBeepPlayer initialises the speaker at sampleRate and loads the catalog.
// Any clip that fails to decode aborts startup.
func NewBeepPlayer(catalog Catalog, sampleRate int, log *logger.Logger) (*BeepPlayer, error) {
	if log == nil {
		log = logger.NewNop()
	}
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("speaker init: %w", err)
	}

	p := &BeepPlayer{
		log:     log,
		samples: make(map[string]*sample, len(catalog)),
		voices:  make(map[string][]*beep.Ctrl),
	}
	for name, clip := range catalog {
		buf, err := loadClip(clip.Sound, sr)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		p.samples[name] = &sample{clip: clip, buffer: buf}
		log.Debugw("audio_clip_loaded", "name", name, "sound", clip.Sound, "samples", buf.Len())
	}
	return p, nil
}

func (p *BeepPlayer) Has(name string) bool {
	_, ok := p.samples[name]
	return ok
}

// Play starts a new voice for name. Overlapping plays of the same clip mix.
func (p *BeepPlayer) Play(name string, loop bool) error {
	s, ok := p.samples[name]
	if !ok {
		return ErrUnknownSound
	}
	if loop && !s.clip.Loopable {
		p.log.Warnw("audio_loop_not_allowed", "name", name)
		loop = false
	}

	var stream beep.Streamer = s.buffer.Streamer(0, s.buffer.Len())
	if loop {
		stream = beep.Loop(-1, s.buffer.Streamer(0, s.buffer.Len()))
	}
	ctrl := &beep.Ctrl{Streamer: stream}

	p.mu.Lock()
	p.voices[name] = append(p.voices[name], ctrl)
	p.mu.Unlock()

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() { p.release(name, ctrl) })))
	return nil
}

// Stop silences every voice of name.
func (p *BeepPlayer) Stop(name string) error {
	if !p.Has(name) {
		return ErrUnknownSound
	}
	p.mu.Lock()
	voices := p.voices[name]
	delete(p.voices, name)
	p.mu.Unlock()

	speaker.Lock()
	for _, ctrl := range voices {
		ctrl.Streamer = nil
	}
	speaker.Unlock()
	return nil
}

// Close stops all playback.
func (p *BeepPlayer) Close() {
	speaker.Clear()
}

func (p *BeepPlayer) release(name string, ctrl *beep.Ctrl) {
	p.mu.Lock()
	defer p.mu.Unlock()
	voices := p.voices[name]
	for i, c := range voices {
		if c == ctrl {
			p.voices[name] = append(voices[:i], voices[i+1:]...)
			break
		}
	}
	if len(p.voices[name]) == 0 {
		delete(p.voices, name)
	}
}

func loadClip(path string, target beep.SampleRate) (*beep.Buffer, error) {
	stream, format, err := decode(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var s beep.Streamer = stream
	if format.SampleRate != target {
		s = beep.Resample(resampleQuality, format.SampleRate, target, stream)
		format.SampleRate = target
	}
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return buf, nil
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		stream, format, err := mp3.Decode(file)
		if err != nil {
			file.Close()
			return nil, beep.Format{}, err
		}
		return stream, format, nil
	case ".wav":
		stream, format, err := wav.Decode(file)
		if err != nil {
			file.Close()
			return nil, beep.Format{}, err
		}
		return stream, format, nil
	default:
		file.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", ext)
	}
}
