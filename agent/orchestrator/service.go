// Package orchestrator is the per-turn state machine: resolve the session,
// classify intent, dispatch capabilities when needed, compose the reply,
// record history. The machine is stateless across requests.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	nodex "github.com/sornchai/shoptalk/agent/nodes"
	promptx "github.com/sornchai/shoptalk/agent/prompt"
	sessionx "github.com/sornchai/shoptalk/agent/session"
)

var ErrInvalidMessage = nodex.ErrInvalidMessage

// TurnRequest is one inbound turn plus its optional context.
type TurnRequest struct {
	SessionID     string
	Message       string
	CustomerToken string
	CartID        string
}

type Orchestrator struct {
	store      *sessionx.Store
	gateway    contractx.Gateway
	registry   contractx.Registry
	classifier contractx.Classifier
	persona    string

	graphRunner compose.Runnable[nodex.GraphInput, contractx.TurnResult]

	now func() time.Time
}

func New(
	store *sessionx.Store,
	gateway contractx.Gateway,
	registry contractx.Registry,
	classifier contractx.Classifier,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if gateway == nil {
		return nil, errors.New("model gateway is required")
	}
	if registry == nil {
		return nil, errors.New("capability registry is required")
	}
	if classifier == nil {
		return nil, errors.New("intent classifier is required")
	}

	o := &Orchestrator{
		store:      store,
		gateway:    gateway,
		registry:   registry,
		classifier: classifier,
		persona:    promptx.LoadPromptSet().Assistant,
		now:        time.Now,
	}

	graphRunner, err := o.compileProcessTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// ProcessTurn runs one full request through the turn graph.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) (contractx.TurnResult, error) {
	return o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID:     req.SessionID,
		Message:       req.Message,
		CustomerToken: req.CustomerToken,
		CartID:        req.CartID,
	})
}
