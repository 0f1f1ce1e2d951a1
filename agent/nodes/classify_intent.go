package nodes

import (
	"context"

	contractx "github.com/sornchai/shoptalk/agent/contract"
)

const classifyHistoryWindow = 6

// ClassifyIntent never fails the turn: the classifier degrades internally to
// a heuristic when the model is unavailable or unparsable.
func ClassifyIntent(ctx context.Context, in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, ErrNilState
	}

	in.Intent = classifier.Classify(ctx, in.Message, chatHistory(in.Session, classifyHistoryWindow))
	return in, nil
}
