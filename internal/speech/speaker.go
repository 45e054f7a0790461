// Package speech is the assistant's voice: it echoes each line to the
// transcript and then speaks it.
package speech

import (
	"context"
	"errors"
	log "log/slog"
	"sync"
	"time"
)

// Engine renders text to audio and returns when playback ends.
type Engine interface {
	Say(text string) error
}

// Ducker lowers other applications' volume while the assistant speaks.
type Ducker interface {
	DuckOthers(ctx context.Context, factor float64, fade time.Duration) error
	UnduckOthers(ctx context.Context, fade time.Duration) error
}

const (
	duckFactor = 0.3
	duckFade   = 150 * time.Millisecond
)

type Config struct {
	Engine     Engine
	Transcript *Transcript
	// Ducker is optional.
	Ducker Ducker
}

// Speaker serializes calls into the engine, which is not reentrant; the
// transcript line is written before waiting for the engine.
type Speaker struct {
	engine     Engine
	transcript *Transcript
	ducker     Ducker

	mu sync.Mutex
}

func NewSpeaker(cfg Config) (*Speaker, error) {
	if cfg.Engine == nil {
		return nil, errors.New("missing parameter: cfg.Engine")
	}
	if cfg.Transcript == nil {
		return nil, errors.New("missing parameter: cfg.Transcript")
	}

	return &Speaker{
		engine:     cfg.Engine,
		transcript: cfg.Transcript,
		ducker:     cfg.Ducker,
	}, nil
}

func (s *Speaker) Speak(text string) error {
	s.transcript.Assistant(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ducker != nil {
		ctx := context.Background()
		if err := s.ducker.DuckOthers(ctx, duckFactor, duckFade); err != nil {
			log.Warn("Failed to duck other streams", "err", err)
		}
		defer func() {
			if err := s.ducker.UnduckOthers(ctx, duckFade); err != nil {
				log.Warn("Failed to restore other streams", "err", err)
			}
		}()
	}

	return s.engine.Say(text)
}
