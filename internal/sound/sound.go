//go:build !ci

package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog/log"
)

const sampleRate = beep.SampleRate(44100)

// Built-in tones used when no file provides the cue.
var fallbackTones = map[Cue]struct {
	freq float64
	dur  time.Duration
}{
	CueScore:    {880, 80 * time.Millisecond},
	CueStart:    {660, 150 * time.Millisecond},
	CueGameOver: {330, 400 * time.Millisecond},
}

// Player plays cues through the system speaker.
type Player struct {
	dir string

	mu      sync.RWMutex
	buffers map[Cue]*beep.Buffer
	enabled bool
}

// NewPlayer creates a disabled player reading cue files from dir.
func NewPlayer(dir string) *Player {
	return &Player{
		dir:     dir,
		buffers: make(map[Cue]*beep.Buffer),
	}
}

// Init opens the speaker and loads cues.
func (p *Player) Init() error {
	// Small buffer for low latency.
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	if err := p.loadDir(); err != nil {
		return err
	}
	p.loadFallbacks()

	p.mu.Lock()
	p.enabled = true
	p.mu.Unlock()
	return nil
}

func (p *Player) loadDir() error {
	if p.dir == "" {
		return nil
	}
	files, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read sound directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".mp3" && ext != ".wav" {
			continue
		}
		cue := Cue(strings.TrimSuffix(name, filepath.Ext(name)))
		if err := p.loadFile(filepath.Join(p.dir, name), ext, cue); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("skip sound file")
		}
	}
	return nil
}

func (p *Player) loadFile(path, ext string, cue Cue) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		return err
	}
	defer func() { _ = streamer.Close() }()

	var resampled beep.Streamer = streamer
	if format.SampleRate != sampleRate {
		resampled = beep.Resample(4, format.SampleRate, sampleRate, streamer)
	}
	p.store(cue, resampled)
	return nil
}

func (p *Player) loadFallbacks() {
	for cue, tone := range fallbackTones {
		p.mu.RLock()
		_, ok := p.buffers[cue]
		p.mu.RUnlock()
		if ok {
			continue
		}
		sine, err := generators.SineTone(sampleRate, tone.freq)
		if err != nil {
			continue
		}
		p.store(cue, beep.Take(sampleRate.N(tone.dur), sine))
	}
}

func (p *Player) store(cue Cue, s beep.Streamer) {
	buffer := beep.NewBuffer(beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2})
	buffer.Append(s)

	p.mu.Lock()
	p.buffers[cue] = buffer
	p.mu.Unlock()
}

// Play plays cue. Unknown cues and a disabled player are silent.
func (p *Player) Play(cue Cue) {
	p.mu.RLock()
	buffer, ok := p.buffers[cue]
	enabled := p.enabled
	p.mu.RUnlock()
	if !enabled || !ok {
		return
	}
	speaker.Play(buffer.Streamer(0, buffer.Len()))
}

// Close disables playback.
func (p *Player) Close() {
	p.mu.Lock()
	p.enabled = false
	p.mu.Unlock()
}
