package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Rule fires when Match reports ok; the returned string becomes the intent
// argument.
type Rule struct {
	Kind  Kind
	Match func(text string) (arg string, ok bool)
}

// DefaultRules returns the rule list in priority order. Overlapping
// triggers resolve by position, so the order must not change.
func DefaultRules() []Rule {
	return []Rule{
		{TellTime, anyOf(
			phrases("what's the time", "what is the time", "tell time", "current time"),
			words("time"),
		)},
		{TellDate, anyOf(
			phrases("what's the date", "what is the date", "today date", "tell date"),
			words("date"),
		)},
		{OpenSite, prefixes("open ")},
		{SearchKnowledge, prefixes("search wikipedia for ", "wikipedia ")},
		{SearchWeb, prefixes("search ", "google ")},
		{PlayMedia, media},
		{TakeNote, phrases("make a note", "take a note", "note this")},
		{ReadNotes, phrases("read note", "read notes")},
		{SetTimer, timer},
		{Terminate, phrases("exit", "quit", "goodbye", "stop")},
	}
}

func phrases(list ...string) func(string) (string, bool) {
	return func(text string) (string, bool) {
		for _, p := range list {
			if strings.Contains(text, p) {
				return "", true
			}
		}
		return "", false
	}
}

// words fires on whole words only, so "time" does not fire on "timer".
func words(list ...string) func(string) (string, bool) {
	return func(text string) (string, bool) {
		for _, w := range strings.Fields(text) {
			w = strings.TrimFunc(w, unicode.IsPunct)
			for _, want := range list {
				if w == want {
					return "", true
				}
			}
		}
		return "", false
	}
}

func prefixes(list ...string) func(string) (string, bool) {
	return func(text string) (string, bool) {
		for _, p := range list {
			if rest, ok := strings.CutPrefix(text, p); ok {
				return strings.TrimSpace(rest), true
			}
		}
		return "", false
	}
}

func anyOf(ms ...func(string) (string, bool)) func(string) (string, bool) {
	return func(text string) (string, bool) {
		for _, m := range ms {
			if arg, ok := m(text); ok {
				return arg, true
			}
		}
		return "", false
	}
}

// media handles "play despacito", "despacito on youtube" and any mention
// of youtube. The query is what remains after removing the trigger words.
func media(text string) (string, bool) {
	if !strings.HasPrefix(text, "play ") && !strings.Contains(text, "youtube") {
		return "", false
	}
	q := strings.TrimPrefix(text, "play ")
	q = strings.Replace(q, "on youtube", "", 1)
	return strings.Join(strings.Fields(q), " "), true
}

func timer(text string) (string, bool) {
	if !strings.Contains(text, "set timer") && !strings.Contains(text, "timer for") {
		return "", false
	}
	if secs, ok := ParseDuration(text); ok {
		return strconv.Itoa(secs), true
	}
	return "", true
}

var durationRe = regexp.MustCompile(`(\d+)\s*(seconds|second|sec|minutes|minute|min)`)

// ParseDuration finds the first "<n> <unit>" pair in text and returns it in
// seconds. Minute units are multiplied by 60.
func ParseDuration(text string) (int, bool) {
	m := durationRe.FindStringSubmatch(text)
	if len(m) < 3 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	if strings.HasPrefix(m[2], "min") {
		n *= 60
	}
	return n, true
}
