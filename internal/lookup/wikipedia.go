// Package lookup answers "tell me about X" questions with a short summary.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrNotFound  = errors.New("lookup: not found")
	ErrAmbiguous = errors.New("lookup: ambiguous term")
)

const (
	DefaultWikipediaURL = "https://en.wikipedia.org"
	DefaultSentences    = 2

	userAgent   = "vox/0.1 (voice assistant)"
	maxBodySize = 1 << 20
)

type WikipediaConfig struct {
	// BaseURL defaults to DefaultWikipediaURL.
	BaseURL string
	// Client defaults to a client with a 15s timeout.
	Client *http.Client
	// Sentences defaults to DefaultSentences.
	Sentences int
}

// Wikipedia resolves a spoken term to the best matching article and returns
// the first sentences of its summary.
type Wikipedia struct {
	base      string
	client    *http.Client
	sentences int
}

func NewWikipedia(cfg WikipediaConfig) *Wikipedia {
	w := &Wikipedia{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		client:    cfg.Client,
		sentences: cfg.Sentences,
	}
	if w.base == "" {
		w.base = DefaultWikipediaURL
	}
	if w.client == nil {
		w.client = &http.Client{Timeout: 15 * time.Second}
	}
	if w.sentences <= 0 {
		w.sentences = DefaultSentences
	}
	return w
}

func (w *Wikipedia) Summarize(ctx context.Context, term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", ErrNotFound
	}

	title, err := w.resolve(ctx, term)
	if err != nil {
		return "", err
	}
	log.Debug("Resolved article", "term", term, "title", title)

	body, err := w.get(ctx, "/api/rest_v1/page/summary/"+url.PathEscape(title), url.Values{"redirect": {"true"}})
	if err != nil {
		return "", err
	}

	if gjson.GetBytes(body, "type").String() == "disambiguation" {
		return "", fmt.Errorf("%w: %q", ErrAmbiguous, title)
	}

	extract := gjson.GetBytes(body, "extract").String()
	if extract == "" {
		return "", fmt.Errorf("%w: %q has no summary", ErrNotFound, title)
	}

	return FirstSentences(extract, w.sentences), nil
}

// resolve maps a loosely spoken term to an article title via opensearch.
func (w *Wikipedia) resolve(ctx context.Context, term string) (string, error) {
	body, err := w.get(ctx, "/w/api.php", url.Values{
		"action": {"opensearch"},
		"search": {term},
		"limit":  {"1"},
		"format": {"json"},
	})
	if err != nil {
		return "", err
	}

	title := gjson.GetBytes(body, "1.0").String()
	if title == "" {
		return "", fmt.Errorf("%w: %q", ErrNotFound, term)
	}
	return title, nil
}

func (w *Wikipedia) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := w.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("wikipedia http status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("wikipedia returned invalid json")
	}
	return body, nil
}

// FirstSentences returns the first n sentences of text. A sentence ends at
// '.', '!' or '?' followed by whitespace or the end of text.
func FirstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 {
		return text
	}

	count := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' {
				count++
				if count == n {
					return text[:i+1]
				}
			}
		}
	}
	return text
}
