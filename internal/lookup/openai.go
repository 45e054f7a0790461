package lookup

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
)

const unknownMarker = "UNKNOWN"

const systemPrompt = `
You are the encyclopedia of a voice assistant.
Your ONLY job is to summarize the topic the user names.

RULES:
1. Answer in at most %d sentences of plain English.
2. No markdown, no lists, no follow-up questions.
3. The text will be spoken aloud: avoid symbols and URLs.
4. If the topic is unknown or too ambiguous to pick one meaning, reply
   exactly ` + unknownMarker + `.
`

// OpenAI summarizes topics with a chat model instead of an encyclopedia
// API. Useful behind proxies where Wikipedia is unreachable.
type OpenAI struct {
	client    openai.Client
	model     openai.ChatModel
	sentences int
}

func NewOpenAI(client openai.Client, sentences int) *OpenAI {
	if sentences <= 0 {
		sentences = DefaultSentences
	}
	return &OpenAI{
		client:    client,
		model:     openai.ChatModelGPT5Nano,
		sentences: sentences,
	}
}

func (o *OpenAI) Summarize(ctx context.Context, term string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(systemPrompt, o.sentences)),
			openai.UserMessage(term),
		},
		Model: o.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Debug("Summarized", "term", term, "data", content)

	if content == "" || strings.EqualFold(content, unknownMarker) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, term)
	}

	return FirstSentences(content, o.sentences), nil
}
