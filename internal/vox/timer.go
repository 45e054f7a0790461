package vox

import (
	"fmt"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// Timers runs each countdown on its own goroutine. A timer is never joined
// or cancelled: once scheduled it speaks when it expires, even if the
// dispatch loop is in the middle of another exchange.
type Timers struct {
	speaker Speaker
	notify  func(title, body string)
	after   func(time.Duration) <-chan time.Time
}

// NewTimers returns a scheduler speaking through speaker. notify, if not
// nil, is also called on expiry (desktop notification).
func NewTimers(speaker Speaker, notify func(title, body string)) *Timers {
	return &Timers{
		speaker: speaker,
		notify:  notify,
		after:   time.After,
	}
}

func (t *Timers) Schedule(seconds int) {
	id := uuid.NewString()
	log.Info("Timer scheduled", "id", id, "seconds", seconds)

	go func() {
		<-t.after(time.Duration(seconds) * time.Second)

		msg := fmt.Sprintf("Timer finished after %d seconds!", seconds)
		log.Info("Timer finished", "id", id)

		if t.notify != nil {
			t.notify("Timer", msg)
		}
		if err := t.speaker.Speak(msg); err != nil {
			log.Warn("Failed to announce timer", "id", id, "err", err)
		}
	}()
}
