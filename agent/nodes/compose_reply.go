package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/sornchai/shoptalk/agent/contract"
)

const (
	toolHistoryWindow   = 6
	directHistoryWindow = 10
)

// ComposeReply makes the one composition call of the turn. There is no
// fallback here: a gateway failure at composition is fatal to the turn.
func ComposeReply(ctx context.Context, in *GraphState, gateway contractx.Gateway, persona string) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, ErrNilState
	}

	msgs := []contractx.ChatMessage{{Role: contractx.RoleSystem, Content: persona}}
	if len(in.Results) > 0 {
		msgs = append(msgs, chatHistory(in.Session, toolHistoryWindow)...)
		msgs = append(msgs, contractx.ChatMessage{
			Role:    contractx.RoleUser,
			Content: toolTurn(in.Message, in.Results),
		})
	} else {
		msgs = append(msgs, chatHistory(in.Session, directHistoryWindow)...)
		msgs = append(msgs, contractx.ChatMessage{Role: contractx.RoleUser, Content: in.Message})
	}

	gen, err := gateway.Generate(ctx, msgs, contractx.GenerateOptions{Temperature: -1})
	if err != nil {
		return nil, fmt.Errorf("compose reply: %w", err)
	}

	in.Reply = strings.TrimSpace(gen.Content)
	in.Usage = gen.Usage
	return in, nil
}

// toolTurn serializes the user's message and every capability outcome into
// one constructed turn: successes show their data, failures their error text.
func toolTurn(message string, results []contractx.CapabilityResult) string {
	var b strings.Builder
	b.WriteString("The shopper said: ")
	b.WriteString(message)
	b.WriteString("\n\nStore operation results:\n")

	for _, res := range results {
		if !res.Success {
			fmt.Fprintf(&b, "- %s failed: %s\n", res.Name, res.Error)
			continue
		}
		data, err := json.Marshal(res.Data)
		if err != nil {
			data = []byte("{}")
		}
		fmt.Fprintf(&b, "- %s succeeded: %s\n", res.Name, data)
	}

	b.WriteString("\nAnswer the shopper using these results.")
	return b.String()
}
