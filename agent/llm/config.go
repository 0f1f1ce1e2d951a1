// Package llm implements the language model gateway: one Generate capability
// normalized across interchangeable remote providers.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/sornchai/shoptalk/agent/contract"
)

const (
	// ProviderOpenAI calls the OpenAI API through the official SDK.
	ProviderOpenAI = "openai"
	// ProviderOpenRouter calls any OpenAI-compatible endpoint (OpenRouter,
	// LiteLLM, a local proxy) through the eino chat model component.
	ProviderOpenRouter = "openrouter"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"openai"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrConfiguration)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: llm model is required", contractx.ErrConfiguration)
	}
	return nil
}

// New selects the provider once, at construction. There is no runtime
// re-selection; swapping providers is a deployment decision.
func New(ctx context.Context, cfg Config) (contractx.Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		return newOpenAIGateway(cfg)
	case ProviderOpenRouter:
		return newCompatGateway(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", contractx.ErrConfiguration, cfg.Provider)
	}
}

func MustNew(ctx context.Context, cfg Config) contractx.Gateway {
	gw, err := New(ctx, cfg)
	if err != nil {
		panic(err)
	}
	return gw
}

// resolve applies the configured defaults to per-call options. A negative
// temperature or non-positive max tokens in opts means "use the default".
func (c Config) resolve(opts contractx.GenerateOptions) (float32, int) {
	temperature := opts.Temperature
	if temperature < 0 {
		temperature = c.Temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.MaxCompletionToken
	}
	return temperature, maxTokens
}
