package vox

import (
	"context"
	"fmt"
	log "log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"voxassist/internal/nlu"
)

const (
	googleSearchURL  = "https://www.google.com/search?q="
	youtubeSearchURL = "https://www.youtube.com/results?search_query="

	noteMaxChars = 800
)

// Follow-up listens performed inside a single intent.
const (
	noteTimeout      = 6 * time.Second
	notePhraseLimit  = 20 * time.Second
	timerTimeout     = 6 * time.Second
	timerPhraseLimit = 6 * time.Second
	askTimeout       = 5 * time.Second
	askPhraseLimit   = 5 * time.Second
)

var siteAliases = map[string]string{
	"youtube": "https://youtube.com",
	"google":  "https://google.com",
	"github":  "https://github.com",
}

var affirmatives = []string{"yes", "y", "ok", "sure"}

// Executor runs the action behind an intent. Some actions ask a question
// and listen once more for the answer before returning.
type Executor struct {
	listener Listener
	speaker  Speaker
	lookup   Lookup
	browser  Browser
	notes    NoteStore
	timers   Scheduler
	now      func() time.Time
}

// Execute performs in and reports whether the session should keep running.
func (e *Executor) Execute(ctx context.Context, in nlu.Intent) bool {
	log.Debug("Executing", "intent", in.Kind, "arg", in.Arg)

	switch in.Kind {
	case nlu.TellTime:
		e.say("Time is " + e.now().Format("03:04 PM"))
	case nlu.TellDate:
		e.say("Today is " + e.now().Format("Monday, January 02, 2006"))
	case nlu.OpenSite:
		e.openSite(in.Arg)
	case nlu.SearchKnowledge:
		e.searchKnowledge(ctx, in.Arg)
	case nlu.SearchWeb:
		e.say("Searching web for " + in.Arg)
		e.open(googleSearchURL + url.QueryEscape(in.Arg))
	case nlu.PlayMedia:
		e.say("Searching YouTube for " + in.Arg)
		e.open(youtubeSearchURL + url.QueryEscape(in.Arg))
	case nlu.TakeNote:
		e.takeNote(ctx)
	case nlu.ReadNotes:
		e.readNotes()
	case nlu.SetTimer:
		e.setTimer(ctx, in)
	case nlu.Terminate:
		e.say("Goodbye. Have a nice day!")
		return false
	default:
		e.unrecognized(ctx, in.Arg)
	}

	return true
}

func (e *Executor) openSite(target string) {
	if u, ok := siteAliases[target]; ok {
		e.say("Opening " + target)
		e.open(u)
		return
	}

	if strings.Contains(target, ".") {
		u := target
		if !strings.HasPrefix(u, "http") {
			u = "https://" + u
		}
		e.say("Opening " + u)
		e.open(u)
		return
	}

	e.say("Opening search for " + target)
	e.open(googleSearchURL + url.QueryEscape(target))
}

func (e *Executor) searchKnowledge(ctx context.Context, term string) {
	e.say("Searching Wikipedia...")

	summary, err := e.lookup.Summarize(ctx, term)
	if err != nil {
		log.Warn("Lookup failed", "term", term, "err", err)
		e.say("Sorry, I could not find that on Wikipedia.")
		return
	}

	e.say(summary)
}

func (e *Executor) takeNote(ctx context.Context) {
	e.say("What would you like me to write?")

	note, ok := e.listener.Listen(ctx, noteTimeout, notePhraseLimit)
	if !ok {
		e.say("No content heard. Note cancelled.")
		return
	}

	name, err := e.notes.Write(e.now(), note)
	if err != nil {
		log.Error("Failed to save note", "err", err)
		e.say("Sorry, I could not save that note.")
		return
	}

	e.say("Saved note as " + name)
}

func (e *Executor) readNotes() {
	names, err := e.notes.List()
	if err != nil {
		log.Error("Failed to list notes", "err", err)
		e.say("Sorry, I could not read your notes.")
		return
	}

	if len(names) == 0 {
		e.say("No notes found.")
		return
	}

	e.say(fmt.Sprintf("I found %d notes. Reading the latest one.", len(names)))

	latest := slices.Max(names)
	content, err := e.notes.Read(latest, noteMaxChars)
	if err != nil {
		log.Error("Failed to read note", "name", latest, "err", err)
		e.say("Sorry, I could not read your notes.")
		return
	}

	e.say(fmt.Sprintf("Note %s: %s", latest, content))
}

func (e *Executor) setTimer(ctx context.Context, in nlu.Intent) {
	secs, ok := in.Seconds()
	if !ok {
		e.say("For how many seconds or minutes?")

		ans, heard := e.listener.Listen(ctx, timerTimeout, timerPhraseLimit)
		if !heard {
			log.Debug("No timer duration heard")
			return
		}

		secs, ok = parseTimerReply(ans)
		if !ok {
			e.say("I couldn't parse the time.")
			return
		}
	}

	e.say(fmt.Sprintf("Timer set for %d seconds. I will tell you when time is up.", secs))
	e.timers.Schedule(secs)
}

func (e *Executor) unrecognized(ctx context.Context, text string) {
	if text == "" {
		log.Debug("Wake word without a command")
		return
	}

	e.say("I didn't fully get that. Should I search the web for that?")

	ans, ok := e.listener.Listen(ctx, askTimeout, askPhraseLimit)
	if ok && isAffirmative(ans) {
		e.open(googleSearchURL + url.QueryEscape(text))
		return
	}

	e.say("Okay.")
}

func (e *Executor) say(text string) {
	if err := e.speaker.Speak(text); err != nil {
		log.Error("Failed to voice out", "err", err)
	}
}

func (e *Executor) open(u string) {
	log.Info("Opening browser", "url", u)
	if err := e.browser.Open(u); err != nil {
		log.Error("Failed to open browser", "url", u, "err", err)
	}
}

// parseTimerReply accepts "2 minutes" style answers and falls back to the
// digits of the reply read as seconds.
func parseTimerReply(ans string) (int, bool) {
	if secs, ok := nlu.ParseDuration(ans); ok {
		return secs, true
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, ans)

	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func isAffirmative(ans string) bool {
	for _, w := range strings.Fields(ans) {
		w = strings.TrimFunc(w, unicode.IsPunct)
		if slices.Contains(affirmatives, w) {
			return true
		}
	}
	return false
}
