package nodes

import (
	"context"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	sessionx "github.com/sornchai/shoptalk/agent/session"
)

// RecordHistory appends the user turn and the composed assistant turn, in
// that order, after composition so the composer saw only prior history.
func RecordHistory(ctx context.Context, in *GraphState, store *sessionx.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, ErrNilState
	}

	if _, err := store.Append(ctx, in.Session.ID, contractx.RoleUser, in.Message, sessionx.Metadata{
		Intent: in.Intent.Type,
	}); err != nil {
		return nil, err
	}

	if _, err := store.Append(ctx, in.Session.ID, contractx.RoleAssistant, in.Reply, sessionx.Metadata{
		ToolsUsed: in.ToolsUsed,
		Intent:    in.Intent.Type,
	}); err != nil {
		return nil, err
	}

	return in, nil
}
