// Package audio captures microphone phrases and ducks other playback while
// the assistant talks.
package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000

	frameSize       = 320 // 20ms
	frameDuration   = 20 * time.Millisecond
	silenceRMS      = 0.015
	trailingSilence = 600 * time.Millisecond
)

// ErrNoSpeech reports that nobody spoke before the timeout. It satisfies
// interface{ Timeout() bool } so callers need not import this package.
var ErrNoSpeech error = noSpeechError{}

type noSpeechError struct{}

func (noSpeechError) Error() string { return "audio: no speech before timeout" }
func (noSpeechError) Timeout() bool { return true }

type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record waits up to timeout for speech to start and then captures a single
// phrase of at most phraseLimit, ending early after trailing silence.
// Samples are mono float32 at SampleRate.
func (r *Recorder) Record(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	seg := newSegmenter(timeout, phraseLimit)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}
		if seg.feed(buf) {
			break
		}
	}

	if !seg.started {
		return nil, ErrNoSpeech
	}

	log.Debug("Recorded phrase", "samples", len(seg.out))
	return seg.out, nil
}

// segmenter splits a frame stream into one phrase: silence before onset is
// dropped, the phrase ends on trailing silence or the frame limit.
type segmenter struct {
	maxWait   int
	maxFrames int
	maxQuiet  int

	started bool
	waited  int
	frames  int
	quiet   int
	out     []float32
}

func newSegmenter(timeout, phraseLimit time.Duration) *segmenter {
	return &segmenter{
		maxWait:   int(timeout / frameDuration),
		maxFrames: int(phraseLimit / frameDuration),
		maxQuiet:  int(trailingSilence / frameDuration),
		out:       make([]float32, 0, SampleRate*3),
	}
}

// feed consumes one frame and reports whether recording is finished.
func (s *segmenter) feed(frame []float32) bool {
	loud := frameRMS(frame) > silenceRMS

	if !s.started {
		s.waited++
		if !loud {
			return s.maxWait > 0 && s.waited >= s.maxWait
		}
		s.started = true
	}

	s.out = append(s.out, frame...)
	s.frames++
	if loud {
		s.quiet = 0
	} else {
		s.quiet++
	}

	if s.quiet >= s.maxQuiet {
		return true
	}
	return s.maxFrames > 0 && s.frames >= s.maxFrames
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
