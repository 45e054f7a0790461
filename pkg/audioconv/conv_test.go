package audioconv

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestDecodeWAV(t *testing.T) {
	dir := t.TempDir()

	t.Run("mono upsampled", func(t *testing.T) {
		path := filepath.Join(dir, "mono.wav")
		data := make([]int, 800)
		for i := range data {
			data[i] = 16384
		}
		writeWAV(t, path, 8000, 1, data)

		x, err := Decode(path, 0)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if len(x) != 1600 {
			t.Fatalf("got %d samples, want 1600", len(x))
		}
		if math.Abs(float64(x[0])-0.5) > 1e-3 {
			t.Errorf("sample 0 = %f, want 0.5", x[0])
		}
	})

	t.Run("stereo downmixed and capped", func(t *testing.T) {
		path := filepath.Join(dir, "stereo.wav")
		data := make([]int, 2*TargetRate)
		for i := 0; i < len(data); i += 2 {
			data[i] = 16384
			data[i+1] = -16384
		}
		writeWAV(t, path, TargetRate, 2, data)

		x, err := Decode(path, 100)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if len(x) != 100 {
			t.Fatalf("got %d samples, want 100", len(x))
		}
		if x[10] != 0 {
			t.Errorf("downmixed sample = %f, want 0", x[10])
		}
	})
}

func TestDecodeUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("hello there"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(path, 0); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestDownmix(t *testing.T) {
	got := Downmix([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	want := []float32{0.5, 0.5, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestResample(t *testing.T) {
	in := []float32{0, 1, 0, 1}

	if got := Resample(in, 16000, 16000); len(got) != 4 {
		t.Errorf("same rate changed length to %d", len(got))
	}

	up := Resample(in, 8000, 16000)
	if len(up) != 8 {
		t.Fatalf("upsampled length %d, want 8", len(up))
	}
	if up[1] != 0.5 {
		t.Errorf("interpolated sample = %f, want 0.5", up[1])
	}

	down := Resample([]float32{0, 1, 2, 3, 4, 5}, 48000, 16000)
	if len(down) != 2 || down[1] != 3 {
		t.Errorf("downsampled = %v, want [0 3]", down)
	}
}
