// Package listen implements the assistant's ears: a live microphone, typed
// utterances delivered over IPC, and a replay of recorded audio files.
// Every source returns normalized text and echoes it to the transcript.
package listen

import (
	"context"
	log "log/slog"

	"voxassist/internal/nlu"
)

// SampleRate is the rate of every PCM buffer handed to a Transcriber.
const SampleRate = 16000

type Transcriber interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
}

// Echo shows what the user said.
type Echo interface {
	User(text string)
}

// recognize runs the transcriber and reduces its result to matcher input.
func recognize(ctx context.Context, tr Transcriber, pcm []float32, echo Echo) (string, bool) {
	raw, err := tr.Transcribe(ctx, pcm)
	if err != nil {
		log.Warn("Recognition failed", "err", err)
		return "", false
	}

	text := nlu.Normalize(raw)
	if text == "" {
		log.Debug("Could not understand audio", "samples", len(pcm))
		return "", false
	}

	if echo != nil {
		echo.User(text)
	}
	return text, true
}
