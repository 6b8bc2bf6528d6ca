package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/edgard/helpdeskbot/internal/config"
)

type geminiClient struct {
	client        *genai.Client
	model         string
	contentConfig *genai.GenerateContentConfig
}

func newGeminiClient(ctx context.Context, cfg config.GeneratorConfig) (*geminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("generator API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.Endpoint
	}

	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	contentCfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if cfg.MaxTokens > 0 {
		contentCfg.MaxOutputTokens = int32(cfg.MaxTokens)
	}
	if cfg.SystemInstruction != "" {
		contentCfg.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}

	return &geminiClient{client: gi, model: cfg.Model, contentConfig: contentCfg}, nil
}

func (c *geminiClient) Name() string { return "gemini" }

func (c *geminiClient) Generate(ctx context.Context, p Prompt) (string, error) {
	contents := make([]*genai.Content, 0, len(p.History)+1)
	for _, t := range p.History {
		var role genai.Role = genai.RoleUser
		if t.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(p.Message, genai.RoleUser))

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, c.contentConfig)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
