package nodes

import (
	"fmt"

	contractx "github.com/sornchai/shoptalk/agent/contract"
)

func FinalizeTurn(in *GraphState) (contractx.TurnResult, error) {
	if in == nil || in.Session == nil {
		return contractx.TurnResult{}, ErrNilState
	}
	if in.Reply == "" {
		// The model, not the caller, produced nothing to say.
		return contractx.TurnResult{}, fmt.Errorf("%w: composer returned empty reply", contractx.ErrUpstream)
	}

	toolsUsed := in.ToolsUsed
	if toolsUsed == nil {
		toolsUsed = []string{}
	}

	return contractx.TurnResult{
		Reply:     in.Reply,
		SessionID: in.Session.ID,
		UserType:  in.Session.UserType,
		ToolsUsed: toolsUsed,
		Intent:    in.Intent.Type,
		CartID:    in.Session.CartID,
		Usage:     in.Usage,
	}, nil
}
