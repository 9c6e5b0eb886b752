// Package gemini wraps the Gemini API behind a small conversation surface:
// start a chat from reconstructed history, send a turn, get text back.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/BhavyaNayak04/chatbot/internal/config"
	"github.com/BhavyaNayak04/chatbot/internal/log"
)

var (
	// ErrMissingAPIKey indicates GEMINI_API_KEY is not set.
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable not set")

	// ErrEmptyReply indicates the model returned no usable text.
	ErrEmptyReply = errors.New("model returned empty reply")
)

// imageMIMEType matches the format image payloads are stored in.
const imageMIMEType = "image/png"

// Client holds a configured Gemini API client. Safe for concurrent use.
type Client struct {
	client  *genai.Client
	model   string
	genCfg  *genai.GenerateContentConfig
	limiter *rate.Limiter
	logger  log.Logger
}

// New creates a Gemini client from configuration. The API key is read from
// the GEMINI_API_KEY environment variable, never from the config file.
func New(ctx context.Context, cfg *config.Config, logger log.Logger) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = log.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  cfg.ModelName,
		genCfg: &genai.GenerateContentConfig{
			Temperature: genai.Ptr(cfg.Temperature),
			TopK:        genai.Ptr(cfg.TopK),
			TopP:        genai.Ptr(cfg.TopP),
		},
		// Free-tier request budget; smooths bursts rather than queueing
		// deeply.
		limiter: rate.NewLimiter(1, 3),
		logger:  logger,
	}, nil
}

// Conversation is one model chat. Turn history accumulates server-side in
// the underlying chat object; not safe for concurrent use.
type Conversation struct {
	chat    *genai.Chat
	limiter *rate.Limiter
	logger  log.Logger
}

// StartConversation opens a model chat primed with reconstructed history.
// Pass nil history for a fresh conversation.
func (c *Client) StartConversation(ctx context.Context, history []*genai.Content) (*Conversation, error) {
	chat, err := c.client.Chats.Create(ctx, c.model, c.genCfg, history)
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}
	c.logger.Debug("started model conversation", "model", c.model, "history_turns", len(history))
	return &Conversation{chat: chat, limiter: c.limiter, logger: c.logger}, nil
}

// Send submits one user turn and returns the model's text reply. image may
// be nil for a text-only turn.
func (conv *Conversation) Send(ctx context.Context, text string, image []byte) (string, error) {
	if err := conv.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	var parts []genai.Part
	if text != "" {
		parts = append(parts, genai.Part{Text: text})
	}
	if len(image) > 0 {
		parts = append(parts, genai.Part{InlineData: &genai.Blob{Data: image, MIMEType: imageMIMEType}})
	}
	if len(parts) == 0 {
		return "", errors.New("nothing to send")
	}

	resp, err := conv.chat.SendMessage(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("sending message: %w", err)
	}

	reply := resp.Text()
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
