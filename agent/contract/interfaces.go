package contract

import "context"

// Gateway is the single capability every model backend is reduced to: turn a
// role-tagged message list plus generation options into text and usage.
// Implementations are stateless across calls and never retry.
type Gateway interface {
	Generate(ctx context.Context, messages []ChatMessage, opts GenerateOptions) (Generation, error)
}

// Registry exposes the fixed catalog of commerce operations. Invoke never
// returns a Go error: an unknown name, bad parameters, or a backend failure
// all come back as a CapabilityResult with Success=false.
type Registry interface {
	Capabilities() []CapabilityInfo
	Invoke(ctx context.Context, name string, args map[string]any, cc CallContext) CapabilityResult
}

// Classifier decides whether a turn needs capability calls and which ones.
// It never fails: when the model is unreachable or unparsable it degrades to
// a deterministic heuristic.
type Classifier interface {
	Classify(ctx context.Context, message string, history []ChatMessage) Intent
}
