// Package browser opens search results and sites for the assistant.
package browser

import (
	"io"
	log "log/slog"

	"github.com/pkg/browser"
)

func init() {
	// xdg-open chatter would end up in the transcript.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// System opens URLs in the desktop's default browser.
type System struct{}

func (System) Open(url string) error {
	return browser.OpenURL(url)
}

// DryRun only logs the URL. Used on headless machines.
type DryRun struct{}

func (DryRun) Open(url string) error {
	log.Info("Would open browser", "url", url)
	return nil
}
