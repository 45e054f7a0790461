// Package nlu classifies a transcribed utterance into one of the assistant's
// intents. Matching is keyword based: an ordered rule list is evaluated top
// to bottom and the first rule that fires wins.
package nlu

import (
	"strconv"
	"strings"
	"unicode"
)

type Kind int

const (
	Unrecognized Kind = iota
	TellTime
	TellDate
	OpenSite
	SearchWeb
	SearchKnowledge
	PlayMedia
	TakeNote
	ReadNotes
	SetTimer
	Terminate
)

var kindNames = [...]string{
	Unrecognized:    "unrecognized",
	TellTime:        "tell_time",
	TellDate:        "tell_date",
	OpenSite:        "open_site",
	SearchWeb:       "search_web",
	SearchKnowledge: "search_knowledge",
	PlayMedia:       "play_media",
	TakeNote:        "take_note",
	ReadNotes:       "read_notes",
	SetTimer:        "set_timer",
	Terminate:       "terminate",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Intent is a classified utterance. Arg is empty when the intent carries no
// argument. For SetTimer it holds the duration in whole seconds.
type Intent struct {
	Kind Kind
	Arg  string
}

// Seconds returns the timer duration carried by a SetTimer intent.
func (in Intent) Seconds() (int, bool) {
	if in.Kind != SetTimer || in.Arg == "" {
		return 0, false
	}
	n, err := strconv.Atoi(in.Arg)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (in Intent) String() string {
	if in.Arg == "" {
		return in.Kind.String()
	}
	return in.Kind.String() + "(" + in.Arg + ")"
}

type Matcher struct {
	wake  string
	rules []Rule
}

// NewMatcher builds a matcher with the default rule order. An empty wake
// word disables wake word stripping.
func NewMatcher(wake string) *Matcher {
	return &Matcher{
		wake:  Normalize(wake),
		rules: DefaultRules(),
	}
}

// Match classifies text. Text without any matching rule yields Unrecognized
// carrying the whole normalized text.
func (m *Matcher) Match(text string) Intent {
	cmd := Normalize(text)

	if m.wake != "" && strings.Contains(cmd, m.wake) {
		cmd = Normalize(strings.Replace(cmd, m.wake, "", 1))
	}

	for _, r := range m.rules {
		if arg, ok := r.Match(cmd); ok {
			return Intent{Kind: r.Kind, Arg: arg}
		}
	}

	return Intent{Kind: Unrecognized, Arg: cmd}
}

func Match(text, wake string) Intent {
	return NewMatcher(wake).Match(text)
}

var punctReplacer = strings.NewReplacer("’", "'", "‘", "'")

// Normalize lower-cases text, unifies apostrophes, strips punctuation
// around the utterance and collapses runs of whitespace.
func Normalize(text string) string {
	text = punctReplacer.Replace(strings.ToLower(text))
	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}
