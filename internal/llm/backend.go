package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"

	"hotelbot/internal/config"
)

// Generator is the generation contract the rest of the core depends on.
// Every eino chat model component satisfies it; callers never see which
// provider is behind it.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// NewGenerator builds the configured backend. The provider is chosen by
// configuration at startup; swapping between the local Ollama server and a
// hosted API changes no caller code.
func NewGenerator(ctx context.Context, cfg config.ModelConfig, secrets config.Secrets) (Generator, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Name,
			Options: &api.Options{
				Temperature: float32(cfg.Temperature),
			},
		})

	case "openai":
		temperature := float32(cfg.Temperature)
		modelConfig := &openai.ChatModelConfig{
			APIKey:      secrets.OpenAIAPIKey,
			Model:       cfg.Name,
			Temperature: &temperature,
		}
		if cfg.BaseURL != "" {
			modelConfig.BaseURL = cfg.BaseURL
		}
		if cfg.MaxTokens > 0 {
			maxTokens := cfg.MaxTokens
			modelConfig.MaxTokens = &maxTokens
		}
		return openai.NewChatModel(ctx, modelConfig)

	case "ark":
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey: secrets.ArkAPIKey,
			Model:  cfg.Name,
		})

	case "deepseek":
		modelConfig := &deepseek.ChatModelConfig{
			APIKey: secrets.DeepseekAPIKey,
			Model:  cfg.Name,
		}
		if cfg.BaseURL != "" {
			modelConfig.BaseURL = cfg.BaseURL
		}
		return deepseek.NewChatModel(ctx, modelConfig)

	default:
		return nil, fmt.Errorf("unknown model provider '%s'", cfg.Provider)
	}
}
