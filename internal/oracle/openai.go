package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"retail-insights/internal/domain"
)

// OpenAIConfig configures the production completer. BaseURL may point at
// any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OpenAIClient is a Completer backed by an OpenAI-compatible chat API.
type OpenAIClient struct {
	chatModel model.ChatModel
}

// NewOpenAIClient builds the production completer. It fails with an
// UnavailableError when no API key is configured, so callers can surface
// a clear "oracle not configured" message instead of a transport error.
func NewOpenAIClient(ctx context.Context, cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrUnavailable("oracle not configured: missing API key")
	}
	temp := cfg.Temperature
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: &temp,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return &OpenAIClient{chatModel: chatModel}, nil
}

// Complete sends the conversation and returns the model's text response.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	input := make([]*schema.Message, len(messages))
	for i, m := range messages {
		input[i] = &schema.Message{
			Role:    schemaRole(m.Role),
			Content: m.Content,
		}
	}

	resp, err := c.chatModel.Generate(ctx, input, model.WithMaxTokens(maxTokens))
	if err != nil {
		return "", domain.ErrUnavailable("oracle request failed: %v", err)
	}
	return resp.Content, nil
}

func schemaRole(role string) schema.RoleType {
	switch role {
	case RoleSystem:
		return schema.System
	case RoleAssistant:
		return schema.Assistant
	default:
		return schema.User
	}
}
