// Package vox runs the assistant session: listen, match the utterance to an
// intent, act on it and answer, until the user says goodbye.
package vox

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"voxassist/internal/nlu"
)

const (
	DefaultWakeWord = "assistant"
	DefaultGreeting = "Hello! I am your assistant. Say 'assistant' followed by a command, or say a command directly."

	listenTimeout     = 6 * time.Second
	listenPhraseLimit = 7 * time.Second
)

type Config struct {
	Listener Listener
	Speaker  Speaker
	Lookup   Lookup
	Browser  Browser
	Notes    NoteStore

	// Timers defaults to NewTimers(Speaker, nil).
	Timers Scheduler

	// WakeWord is stripped from utterances before matching. Commands
	// without it are accepted too.
	WakeWord string
	Greeting string

	// Now defaults to time.Now.
	Now func() time.Time
}

type Vox struct {
	listener Listener
	matcher  *nlu.Matcher
	exec     *Executor
	greeting string
}

func New(cfg Config) (*Vox, error) {
	switch {
	case cfg.Listener == nil:
		return nil, errors.New("missing parameter: cfg.Listener")
	case cfg.Speaker == nil:
		return nil, errors.New("missing parameter: cfg.Speaker")
	case cfg.Lookup == nil:
		return nil, errors.New("missing parameter: cfg.Lookup")
	case cfg.Browser == nil:
		return nil, errors.New("missing parameter: cfg.Browser")
	case cfg.Notes == nil:
		return nil, errors.New("missing parameter: cfg.Notes")
	}

	if cfg.Timers == nil {
		cfg.Timers = NewTimers(cfg.Speaker, nil)
	}
	if cfg.Greeting == "" {
		cfg.Greeting = DefaultGreeting
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Vox{
		listener: cfg.Listener,
		matcher:  nlu.NewMatcher(cfg.WakeWord),
		greeting: cfg.Greeting,
		exec: &Executor{
			listener: cfg.Listener,
			speaker:  cfg.Speaker,
			lookup:   cfg.Lookup,
			browser:  cfg.Browser,
			notes:    cfg.Notes,
			timers:   cfg.Timers,
			now:      cfg.Now,
		},
	}, nil
}

// Run greets the user and serves commands until a terminate intent or ctx
// cancellation. A failed capture is not an error: the loop just listens
// again. Run returns nil when the user ended the session.
func (v *Vox) Run(ctx context.Context) error {
	log.Info("Vox ready")
	v.exec.say(v.greeting)

	running := true
	for running && ctx.Err() == nil {
		text, ok := v.listener.Listen(ctx, listenTimeout, listenPhraseLimit)
		if !ok {
			continue
		}

		in := v.matcher.Match(text)
		log.Info("Matched", "text", text, "intent", in.String())

		running = v.exec.Execute(ctx, in)
	}

	v.exec.say("Shutting down.")

	if running {
		return ctx.Err()
	}
	return nil
}
