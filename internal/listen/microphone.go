package listen

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"path"
	"time"

	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"
)

// Recorder captures one phrase. When nobody speaks before timeout it returns
// an error with a Timeout() method reporting true.
type Recorder interface {
	Record(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error)
}

type Cue interface {
	Play() error
}

type MicrophoneConfig struct {
	Recorder    Recorder
	Transcriber Transcriber
	Echo        Echo

	// Cue is played before every capture when set.
	Cue Cue

	// DumpFs and DumpDir keep a wav copy of every captured phrase.
	DumpFs  afero.Fs
	DumpDir string
}

type Microphone struct {
	cfg MicrophoneConfig
}

func NewMicrophone(cfg MicrophoneConfig) (*Microphone, error) {
	if cfg.Recorder == nil {
		return nil, errors.New("missing parameter: cfg.Recorder")
	}
	if cfg.Transcriber == nil {
		return nil, errors.New("missing parameter: cfg.Transcriber")
	}
	if cfg.DumpFs != nil {
		if err := cfg.DumpFs.MkdirAll(cfg.DumpDir, 0o755); err != nil {
			return nil, fmt.Errorf("create dump dir: %w", err)
		}
	}
	return &Microphone{cfg: cfg}, nil
}

func (m *Microphone) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, bool) {
	if m.cfg.Cue != nil {
		if err := m.cfg.Cue.Play(); err != nil {
			log.Warn("Failed to play cue", "err", err)
		}
	}

	log.Debug("Listening", "timeout", timeout, "phrase_limit", phraseLimit)

	pcm, err := m.cfg.Recorder.Record(ctx, timeout, phraseLimit)
	if isTimeout(err) {
		log.Debug("Listening timed out")
		return "", false
	}
	if err != nil {
		log.Warn("Capture failed", "err", err)
		return "", false
	}

	if m.cfg.DumpFs != nil {
		if name, err := m.dump(pcm); err != nil {
			log.Warn("Failed to dump phrase", "err", err)
		} else {
			log.Debug("Dumped phrase", "file", name)
		}
	}

	return recognize(ctx, m.cfg.Transcriber, pcm, m.cfg.Echo)
}

func (m *Microphone) dump(pcm []float32) (string, error) {
	name := path.Join(m.cfg.DumpDir, fmt.Sprintf("phrase_%d.wav", time.Now().UnixNano()))

	f, err := m.cfg.DumpFs.Create(name)
	if err != nil {
		return "", err
	}

	w, err := wave.NewWriter(wave.WriterParam{
		Out:           f,
		Channel:       1,
		SampleRate:    SampleRate,
		BitsPerSample: 16,
	})
	if err != nil {
		f.Close()
		return "", err
	}

	if _, err := w.WriteSample16(toInt16(pcm)); err != nil {
		w.Close()
		return "", err
	}
	return name, w.Close()
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func toInt16(pcm []float32) []int16 {
	out := make([]int16, len(pcm))
	for i, v := range pcm {
		out[i] = int16(math.Round(float64(min(max(v, -1), 1)) * math.MaxInt16))
	}
	return out
}
