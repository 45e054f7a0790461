package vox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

type capture struct {
	text string
	ok   bool
}

func heard(text string) capture { return capture{text: text, ok: true} }

var silence = capture{}

type listenCall struct {
	timeout     time.Duration
	phraseLimit time.Duration
}

// scriptedListener replays captures in order. Once the script runs out it
// says "exit" so a broken test cannot loop forever.
type scriptedListener struct {
	script []capture
	calls  []listenCall
	hook   func(n int)
}

func (l *scriptedListener) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, bool) {
	l.calls = append(l.calls, listenCall{timeout, phraseLimit})
	if l.hook != nil {
		l.hook(len(l.calls))
	}
	if len(l.script) == 0 {
		return "exit", true
	}
	c := l.script[0]
	l.script = l.script[1:]
	return c.text, c.ok
}

type recordingSpeaker struct {
	mu     sync.Mutex
	lines  []string
	spoken chan string
	err    error
}

func (s *recordingSpeaker) Speak(text string) error {
	s.mu.Lock()
	s.lines = append(s.lines, text)
	s.mu.Unlock()
	if s.spoken != nil {
		s.spoken <- text
	}
	return s.err
}

func (s *recordingSpeaker) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *recordingSpeaker) Count(prefix string) int {
	n := 0
	for _, l := range s.Lines() {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

type fakeLookup struct {
	summary string
	err     error
	terms   []string
}

func (f *fakeLookup) Summarize(_ context.Context, term string) (string, error) {
	f.terms = append(f.terms, term)
	return f.summary, f.err
}

type fakeBrowser struct {
	urls []string
}

func (f *fakeBrowser) Open(url string) error {
	f.urls = append(f.urls, url)
	return nil
}

type fakeNotes struct {
	names    []string
	contents map[string]string
	reads    []string
	writeErr error
}

func (f *fakeNotes) Write(at time.Time, text string) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	name := "note_" + at.Format("20060102_150405") + ".txt"
	if f.contents == nil {
		f.contents = map[string]string{}
	}
	f.names = append(f.names, name)
	f.contents[name] = text
	return name, nil
}

func (f *fakeNotes) List() ([]string, error) {
	return append([]string(nil), f.names...), nil
}

func (f *fakeNotes) Read(name string, maxChars int) (string, error) {
	f.reads = append(f.reads, name)
	c, ok := f.contents[name]
	if !ok {
		return "", errors.New("no such note")
	}
	if len(c) > maxChars {
		c = c[:maxChars]
	}
	return c, nil
}

type fakeTimers struct {
	scheduled []int
}

func (f *fakeTimers) Schedule(seconds int) {
	f.scheduled = append(f.scheduled, seconds)
}

type harness struct {
	listener *scriptedListener
	speaker  *recordingSpeaker
	lookup   *fakeLookup
	browser  *fakeBrowser
	notes    *fakeNotes
	timers   *fakeTimers
	vox      *Vox
}

var fixedNow = time.Date(2024, time.January, 1, 15, 4, 5, 0, time.UTC)

func newHarness(script ...capture) *harness {
	h := &harness{
		listener: &scriptedListener{script: script},
		speaker:  &recordingSpeaker{},
		lookup:   &fakeLookup{},
		browser:  &fakeBrowser{},
		notes:    &fakeNotes{},
		timers:   &fakeTimers{},
	}

	v, err := New(Config{
		Listener: h.listener,
		Speaker:  h.speaker,
		Lookup:   h.lookup,
		Browser:  h.browser,
		Notes:    h.notes,
		Timers:   h.timers,
		WakeWord: DefaultWakeWord,
		Now:      func() time.Time { return fixedNow },
	})
	if err != nil {
		panic(err)
	}
	h.vox = v
	return h
}
