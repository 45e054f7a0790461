package vox

import (
	"context"
	"time"
)

// Listener captures one utterance. It waits at most timeout for speech to
// start and at most phraseLimit for it to end. Every failure (silence,
// unintelligible audio, a broken recognizer) reports ok == false.
type Listener interface {
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) (text string, ok bool)
}

// Speaker renders text as speech and returns once it has been spoken.
type Speaker interface {
	Speak(text string) error
}

type Lookup interface {
	Summarize(ctx context.Context, term string) (string, error)
}

type Browser interface {
	Open(url string) error
}

// NoteStore persists notes under names that sort by creation time.
type NoteStore interface {
	Write(at time.Time, text string) (name string, err error)
	List() ([]string, error)
	Read(name string, maxChars int) (string, error)
}

// Scheduler starts a countdown that announces itself when it runs out.
type Scheduler interface {
	Schedule(seconds int)
}
