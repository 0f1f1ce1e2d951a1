package llm

import (
	"context"
	"fmt"
	"strings"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/sornchai/shoptalk/agent/contract"
)

// compatGateway speaks to any OpenAI-compatible endpoint through the eino
// chat model component. OpenRouter is the default target.
type compatGateway struct {
	model   einomodel.ToolCallingChatModel
	backend string
	cfg     Config
}

func newCompatGateway(ctx context.Context, cfg Config) (*compatGateway, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}

	maxTokens := cfg.MaxCompletionToken
	temperature := cfg.Temperature
	conf := &openaimodel.ChatModelConfig{
		BaseURL:     baseURL,
		APIKey:      strings.TrimSpace(cfg.APIKey),
		Model:       strings.TrimSpace(cfg.Model),
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Timeout:     cfg.Timeout,
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: create chat model for %s: %v", contractx.ErrConfiguration, baseURL, err)
	}

	return &compatGateway{model: m, backend: baseURL, cfg: cfg}, nil
}

func (g *compatGateway) Generate(ctx context.Context, messages []contractx.ChatMessage, opts contractx.GenerateOptions) (contractx.Generation, error) {
	temperature, maxTokens := g.cfg.resolve(opts)

	out, err := g.model.Generate(ctx, toSchemaMessages(messages),
		einomodel.WithTemperature(temperature),
		einomodel.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return contractx.Generation{}, fmt.Errorf("%w: %s: %v", contractx.ErrUpstream, g.backend, err)
	}
	if out == nil {
		return contractx.Generation{}, fmt.Errorf("%w: %s returned empty message", contractx.ErrUpstream, g.backend)
	}

	gen := contractx.Generation{Content: out.Content}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		gen.Usage = contractx.Usage{
			PromptTokens:     out.ResponseMeta.Usage.PromptTokens,
			CompletionTokens: out.ResponseMeta.Usage.CompletionTokens,
			TotalTokens:      out.ResponseMeta.Usage.TotalTokens,
		}
	}
	return gen, nil
}

// toSchemaMessages maps gateway roles onto the eino schema. Roles outside
// {system, user, assistant} are carried as user turns.
func toSchemaMessages(messages []contractx.ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case contractx.RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		case contractx.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}
