package listen

import (
	"context"
	log "log/slog"
	"time"

	"voxassist/internal/ipc"
	"voxassist/internal/nlu"
)

const inboxSize = 16

// Inbox turns typed utterances sent over IPC into heard speech. Messages
// arriving while nobody listens are queued; a full queue drops them.
type Inbox struct {
	echo Echo
	msgs chan string
}

func NewInbox(echo Echo) *Inbox {
	return &Inbox{echo: echo, msgs: make(chan string, inboxSize)}
}

// Deliver is the ipc.StartServer handler.
func (in *Inbox) Deliver(msg ipc.ControlMessage) {
	if msg.Cmd != ipc.CmdSay {
		log.Warn("Unknown command", "cmd", msg.Cmd)
		return
	}

	select {
	case in.msgs <- msg.Text:
	default:
		log.Warn("Inbox full, dropping utterance", "text", msg.Text)
	}
}

func (in *Inbox) Listen(ctx context.Context, timeout, _ time.Duration) (string, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", false
	case <-timer.C:
		log.Debug("Listening timed out")
		return "", false
	case raw := <-in.msgs:
		text := nlu.Normalize(raw)
		if text == "" {
			return "", false
		}
		if in.echo != nil {
			in.echo.User(text)
		}
		return text, true
	}
}
