// Package title derives chat titles from the first user message.
package title

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"chatstate/pkg/logger"

	"github.com/sashabaranov/go-openai"
)

const (
	MaxLength    = 80
	DefaultTitle = "New Chat"

	systemPrompt = "You will generate a short title based on the first message a user begins a conversation with. " +
		"Ensure it is not more than 80 characters long. The title should be a summary of the user's message. " +
		"Do not use quotes or colons. Just respond with the title text only."
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

type Generator struct {
	client *openai.Client
	model  string
}

func NewGenerator(cfg Config) *Generator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &Generator{client: openai.NewClientWithConfig(clientConfig), model: model}
}

// Generate asks the upstream service for a title. It never fails: on any
// upstream problem the title is the leading characters of the message text.
func (g *Generator) Generate(ctx context.Context, parts json.RawMessage) string {
	text := TextFromParts(parts)
	if text == "" {
		return DefaultTitle
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.7,
	})
	if err == nil && len(resp.Choices) == 0 {
		err = errors.New("upstream returned no choices")
	}
	if err != nil {
		logger.Sugar.Warnf("Title generation failed, falling back to message text: %v", err)
		return Truncate(text)
	}

	title := strings.Trim(resp.Choices[0].Message.Content, "\"'\n\r\t ")
	if title == "" {
		return Truncate(text)
	}
	return Truncate(title)
}

// TextFromParts joins the text of every "text" part, one per line.
func TextFromParts(parts json.RawMessage) string {
	var decoded []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(parts, &decoded); err != nil {
		return ""
	}

	var texts []string
	for _, p := range decoded {
		if p.Type == "text" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// Truncate cuts s to MaxLength runes, or returns DefaultTitle when s is blank.
func Truncate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(s) <= MaxLength {
		return s
	}
	return string([]rune(s)[:MaxLength])
}
