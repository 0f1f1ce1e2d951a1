// Package server exposes the conversation orchestrator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	orchestratorx "github.com/sornchai/shoptalk/agent/orchestrator"
	sessionx "github.com/sornchai/shoptalk/agent/session"
)

// ConversationService is the surface the handler needs from the orchestrator.
type ConversationService interface {
	ProcessTurn(ctx context.Context, req orchestratorx.TurnRequest) (contractx.TurnResult, error)
}

type Handler struct {
	svc   ConversationService
	store *sessionx.Store
	debug bool
}

func NewHandler(svc ConversationService, store *sessionx.Store, debug bool) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("conversation service is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	return &Handler{svc: svc, store: store, debug: debug}, nil
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/chat", h.Chat)
	e.DELETE("/api/sessions/:session_id", h.DeleteSession)
	e.GET("/healthz", h.Health)
}

type chatRequest struct {
	Message       string `json:"message"`
	SessionID     string `json:"sessionId"`
	CustomerToken string `json:"customerToken"`
	CartID        string `json:"cartId"`
}

type chatResponse struct {
	Success   bool                 `json:"success"`
	Response  string               `json:"response"`
	SessionID string               `json:"sessionId"`
	UserType  contractx.UserType   `json:"userType"`
	ToolsUsed []string             `json:"toolsUsed"`
	Intent    contractx.IntentType `json:"intent"`
	CartID    string               `json:"cartId,omitempty"`
	Usage     contractx.Usage      `json:"usage"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

// Chat handles one conversation turn.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "message is required"})
	}

	result, err := h.svc.ProcessTurn(c.Request().Context(), orchestratorx.TurnRequest{
		SessionID:     req.SessionID,
		Message:       req.Message,
		CustomerToken: req.CustomerToken,
		CartID:        req.CartID,
	})
	if err != nil {
		if errors.Is(err, contractx.ErrValidation) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		log.Error().Err(err).Msg("process turn failed")
		resp := errorResponse{Error: "failed to process message"}
		if h.debug {
			resp.Detail = fmt.Sprintf("%+v", err)
		}
		return c.JSON(http.StatusInternalServerError, resp)
	}

	return c.JSON(http.StatusOK, chatResponse{
		Success:   true,
		Response:  result.Reply,
		SessionID: result.SessionID,
		UserType:  result.UserType,
		ToolsUsed: result.ToolsUsed,
		Intent:    result.Intent,
		CartID:    result.CartID,
		Usage:     result.Usage,
	})
}

// DeleteSession explicitly destroys a conversation.
// DELETE /api/sessions/:session_id
func (h *Handler) DeleteSession(c echo.Context) error {
	sessionID := c.Param("session_id")
	if err := h.store.Delete(c.Request().Context(), sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("delete session failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to delete session"})
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Health is a liveness probe.
// GET /healthz
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
