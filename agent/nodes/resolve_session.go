package nodes

import (
	"context"

	sessionx "github.com/sornchai/shoptalk/agent/session"
)

// ResolveSession loads or creates the conversation state. This is the only
// point where the guest to authenticated upgrade can fire.
func ResolveSession(ctx context.Context, in *GraphState, store *sessionx.Store) (*GraphState, error) {
	if in == nil {
		return nil, ErrNilState
	}

	st, err := store.GetOrCreate(ctx, in.Params)
	if err != nil {
		return nil, err
	}
	in.Session = st
	return in, nil
}
