package speech

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// Transcript prints the conversation and forwards every line to optional
// sinks (the websocket bus). Lines from timers may interleave with the
// main loop's lines.
type Transcript struct {
	w     io.Writer
	sinks []func(role, text string)

	assistant lipgloss.Style
	user      lipgloss.Style
}

func NewTranscript(w io.Writer) *Transcript {
	r := lipgloss.NewRenderer(w)
	return &Transcript{
		w:         w,
		assistant: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		user:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
	}
}

// Tee adds a sink. Call it before the session starts.
func (t *Transcript) Tee(sink func(role, text string)) {
	t.sinks = append(t.sinks, sink)
}

func (t *Transcript) Assistant(text string) {
	fmt.Fprintln(t.w, t.assistant.Render("Assistant:"), text)
	t.forward(RoleAssistant, text)
}

func (t *Transcript) User(text string) {
	fmt.Fprintln(t.w, t.user.Render("You:"), text)
	t.forward(RoleUser, text)
}

func (t *Transcript) forward(role, text string) {
	for _, sink := range t.sinks {
		sink(role, text)
	}
}
