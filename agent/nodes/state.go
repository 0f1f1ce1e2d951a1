// Package nodes holds the per-turn graph steps. Each node takes the shared
// GraphState, does one thing, and hands the state to the next edge. No node
// is revisited within a turn; all cross-turn state lives in the session store.
package nodes

import (
	"fmt"
	"time"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	sessionx "github.com/sornchai/shoptalk/agent/session"
)

var (
	ErrInvalidMessage = fmt.Errorf("%w: message is required", contractx.ErrValidation)
	ErrNilState       = fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
)

type GraphInput struct {
	SessionID     string
	Message       string
	CustomerToken string
	CartID        string
}

type GraphState struct {
	Message string
	Now     time.Time
	Params  sessionx.GetOrCreateParams

	Session   *sessionx.Session
	Intent    contractx.Intent
	Results   []contractx.CapabilityResult
	ToolsUsed []string

	Reply string
	Usage contractx.Usage
}

// chatHistory converts the most recent limit session messages into gateway
// messages.
func chatHistory(st *sessionx.Session, limit int) []contractx.ChatMessage {
	recent := st.Recent(limit)
	out := make([]contractx.ChatMessage, 0, len(recent))
	for _, msg := range recent {
		out = append(out, contractx.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}
