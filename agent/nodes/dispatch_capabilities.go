package nodes

import (
	"context"

	"github.com/rs/zerolog/log"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	sessionx "github.com/sornchai/shoptalk/agent/session"
	toolx "github.com/sornchai/shoptalk/agent/tool"
)

// DispatchCapabilities runs the suggested capabilities strictly in order,
// sequentially: a later call may need the cart reference an earlier one
// produced. A failed capability never aborts the remaining ones; every
// result is collected for the composer.
func DispatchCapabilities(ctx context.Context, in *GraphState, registry contractx.Registry, store *sessionx.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, ErrNilState
	}
	if !in.Intent.RequiresTools() {
		return in, nil
	}

	cc := contractx.CallContext{
		CustomerToken: in.Session.CustomerToken,
		CartID:        in.Session.CartID,
	}

	for _, name := range in.Intent.Capabilities {
		res := registry.Invoke(ctx, name, in.Intent.Parameters, cc)
		in.Results = append(in.Results, res)
		in.ToolsUsed = append(in.ToolsUsed, name)

		if cartID := toolx.CartIDFromResult(res); cartID != "" && cartID != cc.CartID {
			cc.CartID = cartID
			in.Session.CartID = cartID
			if err := store.SetCartID(ctx, in.Session.ID, cartID); err != nil {
				log.Warn().Err(err).Str("session_id", in.Session.ID).Msg("persist cart reference failed")
			}
		}
	}
	return in, nil
}
