package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/sornchai/shoptalk/agent/contract"
)

// openaiGateway speaks to the OpenAI API through the official SDK.
type openaiGateway struct {
	client *openaisdk.Client
	cfg    Config
}

func newOpenAIGateway(cfg Config) (*openaiGateway, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	client := openaisdk.NewClient(opts...)
	return &openaiGateway{client: &client, cfg: cfg}, nil
}

func (g *openaiGateway) Generate(ctx context.Context, messages []contractx.ChatMessage, opts contractx.GenerateOptions) (contractx.Generation, error) {
	temperature, maxTokens := g.cfg.resolve(opts)

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(g.cfg.Model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openaisdk.Float(float64(temperature)),
		MaxTokens:   openaisdk.Int(int64(maxTokens)),
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apierr *openaisdk.Error
		if errors.As(err, &apierr) {
			return contractx.Generation{}, fmt.Errorf("%w: openai status=%d: %v", contractx.ErrUpstream, apierr.StatusCode, err)
		}
		return contractx.Generation{}, fmt.Errorf("%w: openai: %v", contractx.ErrUpstream, err)
	}
	if len(completion.Choices) == 0 {
		return contractx.Generation{}, fmt.Errorf("%w: openai returned no choices", contractx.ErrUpstream)
	}

	return contractx.Generation{
		Content: completion.Choices[0].Message.Content,
		Usage: contractx.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

// toOpenAIMessages maps gateway roles onto the SDK unions. Roles outside
// {system, user, assistant} are carried as user turns so their content is
// never dropped.
func toOpenAIMessages(messages []contractx.ChatMessage) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case contractx.RoleSystem:
			out = append(out, openaisdk.SystemMessage(m.Content))
		case contractx.RoleAssistant:
			out = append(out, openaisdk.AssistantMessage(m.Content))
		default:
			out = append(out, openaisdk.UserMessage(m.Content))
		}
	}
	return out
}
