// Package classify decides whether a turn needs capability calls, which
// ones, and with what parameters. Classification quality depends on the
// model; availability does not: every failure path degrades to a
// deterministic heuristic instead of failing the turn.
package classify

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	promptx "github.com/sornchai/shoptalk/agent/prompt"
	toolx "github.com/sornchai/shoptalk/agent/tool"
)

const (
	classifyTemperature = 0.1
	classifyMaxTokens   = 400
	historyContext      = 4
)

type Classifier struct {
	gateway     contractx.Gateway
	instruction string
}

func New(gateway contractx.Gateway) *Classifier {
	return &Classifier{
		gateway:     gateway,
		instruction: promptx.LoadPromptSet().Classifier,
	}
}

// Classify issues one gateway call and parses the strict JSON object the
// instruction demands. Any failure, whether the call itself or extracting
// and parsing the JSON, falls through to the heuristic.
func (c *Classifier) Classify(ctx context.Context, message string, history []contractx.ChatMessage) contractx.Intent {
	msgs := make([]contractx.ChatMessage, 0, historyContext+2)
	msgs = append(msgs, contractx.ChatMessage{Role: contractx.RoleSystem, Content: c.instruction})
	if len(history) > historyContext {
		history = history[len(history)-historyContext:]
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, contractx.ChatMessage{Role: contractx.RoleUser, Content: message})

	gen, err := c.gateway.Generate(ctx, msgs, contractx.GenerateOptions{
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
	})
	if err != nil {
		log.Debug().Err(err).Msg("classification degraded to heuristic")
		return heuristicIntent(message)
	}

	intent, ok := parseIntent(gen.Content)
	if !ok {
		log.Debug().Str("response", gen.Content).Msg("classifier response unparsable, using heuristic")
		return heuristicIntent(message)
	}
	return intent
}

// parseIntent extracts the first well-formed JSON object from the generated
// text (the backend may wrap valid JSON in prose) and parses it strictly. No
// partial or fuzzy repair is attempted.
func parseIntent(text string) (contractx.Intent, bool) {
	raw, ok := extractJSONObject(text)
	if !ok {
		return contractx.Intent{}, false
	}

	var wire struct {
		Intent       string         `json:"intent"`
		Capabilities []string       `json:"capabilities"`
		Parameters   map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return contractx.Intent{}, false
	}

	intentType := contractx.IntentType(strings.TrimSpace(wire.Intent))
	if !contractx.KnownIntent(intentType) {
		return contractx.Intent{}, false
	}

	intent := contractx.Intent{
		Type:       intentType,
		Parameters: wire.Parameters,
	}
	for _, name := range wire.Capabilities {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			intent.Capabilities = append(intent.Capabilities, trimmed)
		}
	}
	return intent, true
}

// extractJSONObject returns the first balanced brace region of s, skipping
// braces inside JSON strings.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

var searchCues = []string{"search", "find", "show", "looking for"}

// heuristicIntent is the deterministic fallback: lower-cased substring match
// against the raw message.
func heuristicIntent(message string) contractx.Intent {
	lowered := strings.ToLower(message)

	for _, cue := range searchCues {
		if strings.Contains(lowered, cue) {
			return contractx.Intent{
				Type:         contractx.IntentProductSearch,
				Capabilities: []string{toolx.CapSearchProducts},
				Parameters:   map[string]any{"query": message},
			}
		}
	}
	if strings.Contains(lowered, "cart") {
		return contractx.Intent{
			Type:         contractx.IntentViewCart,
			Capabilities: []string{toolx.CapGetCart},
		}
	}
	return contractx.Intent{Type: contractx.IntentGeneralQuestion}
}
