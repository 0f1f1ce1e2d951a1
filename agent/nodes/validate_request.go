package nodes

import (
	"strings"
	"time"

	sessionx "github.com/sornchai/shoptalk/agent/session"
)

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		Message: message,
		Now:     nowFn().UTC(),
		Params: sessionx.GetOrCreateParams{
			SessionID:     strings.TrimSpace(in.SessionID),
			CustomerToken: strings.TrimSpace(in.CustomerToken),
			CartID:        strings.TrimSpace(in.CartID),
		},
	}, nil
}
