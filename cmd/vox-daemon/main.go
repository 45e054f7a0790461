package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spf13/afero"

	"voxassist/internal/audio"
	"voxassist/internal/browser"
	"voxassist/internal/ipc"
	"voxassist/internal/listen"
	"voxassist/internal/lookup"
	"voxassist/internal/notes"
	"voxassist/internal/notify"
	"voxassist/internal/proxy"
	"voxassist/internal/speech"
	"voxassist/internal/tts"
	"voxassist/internal/vox"
	"voxassist/pkg/audioconv"
	"voxassist/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Biases whisper towards the command vocabulary.
const whisperPrompt = "Assistant, what time is it, what's the date, open YouTube, search for, tell me about, play, take a note, read my notes, set timer for 5 minutes, exit."

var (
	envFile      = cli.StringP("env", "e", ".env", "Env file path")
	logLevel     = cli.StringP("log", "l", "info", "Log level")
	proxyAddr    = cli.StringP("proxy", "p", "", "Socks proxy address for lookups (empty = direct)")
	input        = cli.StringP("input", "i", "mic", "Utterance source: mic, ipc or replay")
	modelPath    = cli.StringP("model", "m", "third_party/whisper.cpp/models/ggml-base.en.bin", "Whisper model path")
	replayDir    = cli.String("replay-dir", "replay", "Directory of recorded utterances for --input replay")
	socketPath   = cli.String("socket", ipc.SocketPath, "Control socket for --input ipc")
	wakeWord     = cli.StringP("wake", "w", vox.DefaultWakeWord, "Wake word stripped from commands")
	notesDir     = cli.StringP("notes", "n", notes.DefaultDir, "Notes directory")
	notesBackend = cli.String("notes-backend", "file", "Note storage: file or sqlite")
	lookupKind   = cli.String("lookup", "wikipedia", "Knowledge lookup: wikipedia or openai")
	busURL       = cli.StringP("bus", "b", "", "Websocket url to publish the transcript to")
	cuePath      = cli.String("cue", "", "Sound played before listening (wav or mp3)")
	duck         = cli.Bool("duck", false, "Lower other applications while speaking")
	dumpDir      = cli.String("dump-dir", "", "Keep a wav of every captured phrase here")
	lang         = cli.String("lang", "en", "Recognition language")
	dryRun       = cli.Bool("dry-run", false, "Log URLs instead of opening a browser")
)

func main() {
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevelMap[*logLevel],
		TimeFormat: time.Kitchen,
	})))

	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file", "path", *envFile)
	}
	overrideFromEnv("wake", wakeWord, "VOX_WAKE_WORD")
	overrideFromEnv("notes", notesDir, "VOX_NOTES_DIR")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error("Vox failed", "err", err)
		os.Exit(1)
	}

	log.Info("Bye")
}

// overrideFromEnv lets an env variable replace a flag default. An explicit
// flag still wins.
func overrideFromEnv(flag string, dst *string, env string) {
	if cli.CommandLine.Changed(flag) {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func run(ctx context.Context) error {
	transcript := speech.NewTranscript(os.Stdout)

	if *busURL != "" {
		bus, err := vox.NewBus(*busURL)
		if err != nil {
			return fmt.Errorf("connect bus: %w", err)
		}
		defer bus.Close()
		transcript.Tee(bus.Transcript)
		log.Debug("Connected bus", "url", *busURL)
	}

	speakerCfg := speech.Config{
		Engine:     tts.NewEspeak(tts.DefaultVoice, tts.DefaultRate),
		Transcript: transcript,
	}
	if *duck {
		speakerCfg.Ducker = audio.NewDucker([]string{"espeak", "espeak-ng", "eSpeak"}, 10)
	}
	speaker, err := speech.NewSpeaker(speakerCfg)
	if err != nil {
		return err
	}

	httpClient, err := proxy.NewHTTPClient(*proxyAddr, 15*time.Second)
	if err != nil {
		return fmt.Errorf("dial socks proxy %s: %w", *proxyAddr, err)
	}

	lk, err := newLookup(httpClient)
	if err != nil {
		return err
	}

	store, closeStore, err := newNoteStore()
	if err != nil {
		return err
	}
	defer closeStore()

	var br vox.Browser = browser.System{}
	if *dryRun {
		br = browser.DryRun{}
	}

	timers := vox.NewTimers(speaker, func(title, body string) {
		if err := notify.Desktop(title, body); err != nil {
			log.Warn("Failed to notify", "err", err)
		}
	})

	listener, closeListener, err := newListener(transcript)
	if err != nil {
		return err
	}
	defer closeListener()

	log.Info("Boot up - successful", "input", *input, "lookup", *lookupKind, "notes", *notesBackend)

	v, err := vox.New(vox.Config{
		Listener: listener,
		Speaker:  speaker,
		Lookup:   lk,
		Browser:  br,
		Notes:    store,
		Timers:   timers,
		WakeWord: *wakeWord,
	})
	if err != nil {
		return err
	}

	err = v.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newLookup(httpClient *http.Client) (vox.Lookup, error) {
	switch *lookupKind {
	case "wikipedia":
		return lookup.NewWikipedia(lookup.WikipediaConfig{Client: httpClient}), nil
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		log.Debug("Loaded API Key")

		client := openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithHTTPClient(httpClient),
		)
		return lookup.NewOpenAI(client, lookup.DefaultSentences), nil
	}
	return nil, fmt.Errorf("unknown lookup %q", *lookupKind)
}

func newNoteStore() (vox.NoteStore, func(), error) {
	switch *notesBackend {
	case "file":
		s, err := notes.NewFileStore(afero.NewOsFs(), *notesDir)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("Loaded note store", "dir", *notesDir)
		return s, func() {}, nil
	case "sqlite":
		if err := os.MkdirAll(*notesDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create notes dir: %w", err)
		}
		s, err := notes.OpenSQLite(filepath.Join(*notesDir, "notes.db"))
		if err != nil {
			return nil, nil, err
		}
		log.Debug("Loaded note database", "dir", *notesDir)
		return s, func() { s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown notes backend %q", *notesBackend)
}

func newListener(transcript *speech.Transcript) (vox.Listener, func(), error) {
	switch *input {
	case "ipc":
		inbox := listen.NewInbox(transcript)
		ln, err := ipc.StartServer(*socketPath, inbox.Deliver)
		if err != nil {
			return nil, nil, fmt.Errorf("start ipc server: %w", err)
		}
		log.Info("Waiting for typed commands", "socket", *socketPath)
		return inbox, func() { ln.Close() }, nil

	case "mic", "replay":
	default:
		return nil, nil, fmt.Errorf("unknown input %q", *input)
	}

	whisper, err := stt.NewTranscriber(*modelPath, stt.Options{
		Language:      *lang,
		InitialPrompt: whisperPrompt,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init whisper: %w", err)
	}
	log.Debug("Loaded whisper", "model", *modelPath)

	if *input == "replay" {
		r, err := listen.NewReplay(listen.ReplayConfig{
			Fs:          afero.NewOsFs(),
			Dir:         *replayDir,
			Decode:      audioconv.Decode,
			Transcriber: whisper,
			Echo:        transcript,
		})
		if err != nil {
			whisper.Close()
			return nil, nil, err
		}
		return r, func() { whisper.Close() }, nil
	}

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		whisper.Close()
		return nil, nil, fmt.Errorf("init audio: %w", err)
	}
	cleanup := func() {
		rec.Close()
		whisper.Close()
	}

	cfg := listen.MicrophoneConfig{
		Recorder:    rec,
		Transcriber: whisper,
		Echo:        transcript,
	}
	if *cuePath != "" {
		cfg.Cue = notify.NewCue(*cuePath)
	}
	if *dumpDir != "" {
		cfg.DumpFs = afero.NewOsFs()
		cfg.DumpDir = *dumpDir
	}

	mic, err := listen.NewMicrophone(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	log.Debug("Loaded recorder")
	return mic, cleanup, nil
}
