package listen

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"
)

type ReplayConfig struct {
	Fs  afero.Fs
	Dir string

	// Decode turns a file into 16 kHz mono samples, keeping at most
	// maxSamples of them.
	Decode      func(path string, maxSamples int) ([]float32, error)
	Transcriber Transcriber
	Echo        Echo
}

// Replay serves recorded utterances from a directory, one file per Listen in
// name order. Once every file was played it behaves like a silent room.
type Replay struct {
	cfg ReplayConfig

	mu    sync.Mutex
	files []string
}

func NewReplay(cfg ReplayConfig) (*Replay, error) {
	switch {
	case cfg.Fs == nil:
		return nil, errors.New("missing parameter: cfg.Fs")
	case cfg.Decode == nil:
		return nil, errors.New("missing parameter: cfg.Decode")
	case cfg.Transcriber == nil:
		return nil, errors.New("missing parameter: cfg.Transcriber")
	}

	entries, err := afero.ReadDir(cfg.Fs, cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("read replay dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, path.Join(cfg.Dir, e.Name()))
	}
	sort.Strings(files)

	log.Info("Loaded replay", "dir", cfg.Dir, "files", len(files))
	return &Replay{cfg: cfg, files: files}, nil
}

func (r *Replay) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, bool) {
	file, ok := r.next()
	if !ok {
		log.Debug("Replay exhausted")
		select {
		case <-ctx.Done():
		case <-time.After(timeout):
		}
		return "", false
	}

	pcm, err := r.cfg.Decode(file, int(phraseLimit.Seconds()*SampleRate))
	if err != nil {
		log.Warn("Failed to decode replay file", "file", file, "err", err)
		return "", false
	}
	log.Debug("Replaying", "file", file, "samples", len(pcm))

	return recognize(ctx, r.cfg.Transcriber, pcm, r.cfg.Echo)
}

func (r *Replay) next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.files) == 0 {
		return "", false
	}
	file := r.files[0]
	r.files = r.files[1:]
	return file, true
}
