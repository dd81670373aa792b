package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/cellarwise/cellarwise-backend/pkg/config"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("openai is not configured")
	ErrEmptyResponse = errors.New("openai returned no content")
)

type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Image is an inline image sent as a data URI.
type Image struct {
	ContentType string
	Data        []byte
}

func (i Image) dataURI() string {
	ct := i.ContentType
	if ct == "" {
		ct = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", ct, base64.StdEncoding.EncodeToString(i.Data))
}

// Request is a single JSON-mode completion.
type Request struct {
	System      string
	Prompt      string
	Image       *Image
	MaxTokens   int
	Temperature float32
}

// Client issues JSON-mode chat completions. Text requests use the text model,
// requests with an image use the vision model.
type Client struct {
	api         chatAPI
	textModel   string
	visionModel string
}

func New(cfg config.OpenAIConfig) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrNotConfigured
	}
	clientCfg := goopenai.DefaultConfig(key)
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return newWithAPI(goopenai.NewClientWithConfig(clientCfg), cfg.TextModel, cfg.VisionModel), nil
}

func newWithAPI(api chatAPI, textModel, visionModel string) *Client {
	if textModel == "" {
		textModel = goopenai.GPT4oMini
	}
	if visionModel == "" {
		visionModel = goopenai.GPT4o
	}
	return &Client{api: api, textModel: textModel, visionModel: visionModel}
}

// CompleteJSON runs one completion and returns the raw JSON content of the
// first choice. There is no retry.
func (c *Client) CompleteJSON(ctx context.Context, req Request) (string, error) {
	if c == nil || c.api == nil {
		return "", ErrNotConfigured
	}

	user := goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser}
	model := c.textModel
	if req.Image != nil {
		model = c.visionModel
		user.MultiContent = []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: req.Prompt},
			{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{
				URL:    req.Image.dataURI(),
				Detail: goopenai.ImageURLDetailHigh,
			}},
		}
	} else {
		user.Content = req.Prompt
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, user)

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:          model,
		Messages:       messages,
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
