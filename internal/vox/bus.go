package vox

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Bus mirrors the session transcript to a websocket hub so other shards
// can follow the conversation.
type Bus struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

type BusMessage struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Kind    string    `json:"kind"`
	Role    string    `json:"role,omitempty"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

func NewBus(wsURL string) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse bus url: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus: %w", err)
	}

	log.Info("Connected to bus", "url", wsURL)
	return &Bus{url: u.String(), conn: conn}, nil
}

// Write is safe for concurrent use; timers publish from their own
// goroutines. A broken connection is redialed once per message.
func (b *Bus) Write(m *BusMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.conn.WriteMessage(websocket.TextMessage, data)
	if err == nil {
		return nil
	}

	log.Warn("Bus write failed, redialing", "err", err)
	if rerr := b.redial(); rerr != nil {
		return fmt.Errorf("write bus: %w (redial: %v)", err, rerr)
	}
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bus) redial() error {
	const attempts = 3

	var err error
	for i := range attempts {
		var conn *websocket.Conn
		conn, _, err = websocket.DefaultDialer.Dial(b.url, nil)
		if err == nil {
			b.conn.Close()
			b.conn = conn
			return nil
		}
		time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
	}
	return err
}

// Transcript publishes one transcript line. Failures are logged only.
func (b *Bus) Transcript(role, text string) {
	err := b.Write(&BusMessage{
		From:    "vox",
		To:      "ALL",
		Kind:    "transcript",
		Role:    role,
		Content: text,
		At:      time.Now(),
	})
	if err != nil {
		log.Warn("Failed to publish transcript", "err", err)
	}
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.Close()
}
