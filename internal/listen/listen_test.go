package listen

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"voxassist/internal/ipc"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "no speech" }
func (timeoutErr) Timeout() bool { return true }

type fakeRecorder struct {
	pcm   []float32
	err   error
	calls int
}

func (r *fakeRecorder) Record(context.Context, time.Duration, time.Duration) ([]float32, error) {
	r.calls++
	return r.pcm, r.err
}

type fakeTranscriber struct {
	texts []string
	err   error
	calls int
}

func (tr *fakeTranscriber) Transcribe(context.Context, []float32) (string, error) {
	tr.calls++
	if tr.err != nil {
		return "", tr.err
	}
	if len(tr.texts) == 0 {
		return "", nil
	}
	text := tr.texts[0]
	tr.texts = tr.texts[1:]
	return text, nil
}

type fakeEcho struct {
	lines []string
}

func (e *fakeEcho) User(text string) { e.lines = append(e.lines, text) }

type fakeCue struct {
	plays int
}

func (c *fakeCue) Play() error {
	c.plays++
	return errors.New("no sound card")
}

func TestMicrophoneListen(t *testing.T) {
	ctx := context.Background()

	t.Run("recognized phrase", func(t *testing.T) {
		rec := &fakeRecorder{pcm: make([]float32, 1600)}
		tr := &fakeTranscriber{texts: []string{"  What time is it? "}}
		echo := &fakeEcho{}
		cue := &fakeCue{}

		m, err := NewMicrophone(MicrophoneConfig{Recorder: rec, Transcriber: tr, Echo: echo, Cue: cue})
		if err != nil {
			t.Fatalf("NewMicrophone: %v", err)
		}

		text, ok := m.Listen(ctx, time.Second, time.Second)
		if !ok || text != "what time is it" {
			t.Errorf("Listen = %q, %v", text, ok)
		}
		if !slices.Equal(echo.lines, []string{"what time is it"}) {
			t.Errorf("echo = %q", echo.lines)
		}
		if cue.plays != 1 {
			t.Errorf("cue played %d times", cue.plays)
		}
	})

	t.Run("nobody spoke", func(t *testing.T) {
		rec := &fakeRecorder{err: timeoutErr{}}
		tr := &fakeTranscriber{}
		m, _ := NewMicrophone(MicrophoneConfig{Recorder: rec, Transcriber: tr})

		if _, ok := m.Listen(ctx, time.Second, time.Second); ok {
			t.Error("expected no utterance")
		}
		if tr.calls != 0 {
			t.Error("transcriber must not run without audio")
		}
	})

	t.Run("capture fault", func(t *testing.T) {
		rec := &fakeRecorder{err: errors.New("device busy")}
		m, _ := NewMicrophone(MicrophoneConfig{Recorder: rec, Transcriber: &fakeTranscriber{}})

		if _, ok := m.Listen(ctx, time.Second, time.Second); ok {
			t.Error("expected no utterance")
		}
	})

	t.Run("unintelligible", func(t *testing.T) {
		echo := &fakeEcho{}
		m, _ := NewMicrophone(MicrophoneConfig{
			Recorder:    &fakeRecorder{pcm: make([]float32, 10)},
			Transcriber: &fakeTranscriber{texts: []string{" ... "}},
			Echo:        echo,
		})

		if _, ok := m.Listen(ctx, time.Second, time.Second); ok {
			t.Error("expected no utterance")
		}
		if len(echo.lines) != 0 {
			t.Errorf("echoed %q", echo.lines)
		}
	})

	t.Run("recognizer fault", func(t *testing.T) {
		m, _ := NewMicrophone(MicrophoneConfig{
			Recorder:    &fakeRecorder{pcm: make([]float32, 10)},
			Transcriber: &fakeTranscriber{err: errors.New("model crashed")},
		})

		if _, ok := m.Listen(ctx, time.Second, time.Second); ok {
			t.Error("expected no utterance")
		}
	})
}

func TestMicrophoneDumpsPhrases(t *testing.T) {
	fs := afero.NewMemMapFs()
	m, err := NewMicrophone(MicrophoneConfig{
		Recorder:    &fakeRecorder{pcm: []float32{0, 0.5, -0.5, 1}},
		Transcriber: &fakeTranscriber{texts: []string{"open github"}},
		DumpFs:      fs,
		DumpDir:     "dumps",
	})
	if err != nil {
		t.Fatalf("NewMicrophone: %v", err)
	}

	if _, ok := m.Listen(context.Background(), time.Second, time.Second); !ok {
		t.Fatal("expected utterance")
	}

	entries, err := afero.ReadDir(fs, "dumps")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".wav") {
		t.Errorf("dump dir holds %v", entries)
	}
}

func TestNewMicrophoneValidates(t *testing.T) {
	if _, err := NewMicrophone(MicrophoneConfig{Transcriber: &fakeTranscriber{}}); err == nil {
		t.Error("expected error without recorder")
	}
	if _, err := NewMicrophone(MicrophoneConfig{Recorder: &fakeRecorder{}}); err == nil {
		t.Error("expected error without transcriber")
	}
}

func TestToInt16(t *testing.T) {
	got := toInt16([]float32{0, 1, -1, 2})
	want := []int16{0, 32767, -32767, 32767}
	if !slices.Equal(got, want) {
		t.Errorf("toInt16 = %v, want %v", got, want)
	}
}

func TestReplay(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"replay/b.wav", "replay/a.wav", "replay/sub/c.wav"} {
		if err := afero.WriteFile(fs, name, []byte("RIFF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var decoded []string
	var limits []int
	decode := func(path string, maxSamples int) ([]float32, error) {
		decoded = append(decoded, path)
		limits = append(limits, maxSamples)
		return make([]float32, 100), nil
	}

	echo := &fakeEcho{}
	r, err := NewReplay(ReplayConfig{
		Fs:          fs,
		Dir:         "replay",
		Decode:      decode,
		Transcriber: &fakeTranscriber{texts: []string{"What time is it?", "Exit."}},
		Echo:        echo,
	})
	if err != nil {
		t.Fatalf("NewReplay: %v", err)
	}

	ctx := context.Background()
	var heard []string
	for i := 0; i < 2; i++ {
		text, ok := r.Listen(ctx, 10*time.Millisecond, 7*time.Second)
		if !ok {
			t.Fatalf("listen %d failed", i)
		}
		heard = append(heard, text)
	}

	if !slices.Equal(decoded, []string{"replay/a.wav", "replay/b.wav"}) {
		t.Errorf("decoded %q", decoded)
	}
	if limits[0] != 7*SampleRate {
		t.Errorf("max samples %d, want %d", limits[0], 7*SampleRate)
	}
	if !slices.Equal(heard, []string{"what time is it", "exit"}) {
		t.Errorf("heard %q", heard)
	}
	if !slices.Equal(echo.lines, heard) {
		t.Errorf("echo %q", echo.lines)
	}

	start := time.Now()
	if _, ok := r.Listen(ctx, 20*time.Millisecond, time.Second); ok {
		t.Error("exhausted replay must report silence")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("exhausted replay must wait for the timeout")
	}
}

func TestReplayDecodeFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "replay/broken.ogg", []byte("junk"), 0o644)

	r, err := NewReplay(ReplayConfig{
		Fs:          fs,
		Dir:         "replay",
		Decode:      func(string, int) ([]float32, error) { return nil, errors.New("bad ogg") },
		Transcriber: &fakeTranscriber{texts: []string{"never"}},
	})
	if err != nil {
		t.Fatalf("NewReplay: %v", err)
	}
	if _, ok := r.Listen(context.Background(), time.Millisecond, time.Second); ok {
		t.Error("undecodable file must report no utterance")
	}
}

func TestNewReplayMissingDir(t *testing.T) {
	_, err := NewReplay(ReplayConfig{
		Fs:          afero.NewMemMapFs(),
		Dir:         "nowhere",
		Decode:      func(string, int) ([]float32, error) { return nil, nil },
		Transcriber: &fakeTranscriber{},
	})
	if err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestInbox(t *testing.T) {
	ctx := context.Background()

	t.Run("typed utterance", func(t *testing.T) {
		echo := &fakeEcho{}
		in := NewInbox(echo)
		in.Deliver(ipc.ControlMessage{Cmd: ipc.CmdSay, Text: "Open GitHub!"})

		text, ok := in.Listen(ctx, time.Second, time.Second)
		if !ok || text != "open github" {
			t.Errorf("Listen = %q, %v", text, ok)
		}
		if !slices.Equal(echo.lines, []string{"open github"}) {
			t.Errorf("echo %q", echo.lines)
		}
	})

	t.Run("unknown command is ignored", func(t *testing.T) {
		in := NewInbox(nil)
		in.Deliver(ipc.ControlMessage{Cmd: "trigger"})

		if _, ok := in.Listen(ctx, 10*time.Millisecond, time.Second); ok {
			t.Error("expected timeout")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		in := NewInbox(nil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, ok := in.Listen(cctx, time.Minute, time.Minute); ok {
			t.Error("expected no utterance after cancel")
		}
	})

	t.Run("full inbox drops", func(t *testing.T) {
		in := NewInbox(nil)
		for i := 0; i < inboxSize+3; i++ {
			in.Deliver(ipc.ControlMessage{Cmd: ipc.CmdSay, Text: "exit"})
		}
		if got := len(in.msgs); got != inboxSize {
			t.Errorf("queued %d, want %d", got, inboxSize)
		}
	})
}
