package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/edgard/helpdeskbot/internal/config"
)

type openAIClient struct {
	client       *openai.Client
	model        string
	temperature  float32
	maxTokens    int
	instructions string
}

// newOpenAIClient talks to OpenAI, any OpenAI-compatible endpoint, or Azure
// OpenAI when an API version is configured.
func newOpenAIClient(cfg config.GeneratorConfig) (*openAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("generator API key is required")
	}

	var clientCfg openai.ClientConfig
	if cfg.APIVersion != "" {
		if cfg.Endpoint == "" {
			return nil, errors.New("generator endpoint is required for Azure OpenAI")
		}
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
		clientCfg.APIVersion = cfg.APIVersion
		// Deployment names match the configured model exactly.
		clientCfg.AzureModelMapperFunc = func(model string) string { return model }
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.Endpoint != "" {
			clientCfg.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
		}
	}

	return &openAIClient{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		instructions: cfg.SystemInstruction,
	}, nil
}

func (c *openAIClient) Name() string { return "openai" }

func (c *openAIClient) Generate(ctx context.Context, p Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(p.History)+2)
	if c.instructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.instructions,
		})
	}
	for _, t := range p.History {
		role := openai.ChatMessageRoleUser
		if t.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: p.Message,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
