package notify

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Desktop shows a notification through notify-send (libnotify, mako, dunst).
func Desktop(title, body string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "notify-send", "--app-name=vox", title, body)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send: %w (%s)", err, out)
	}
	return nil
}
