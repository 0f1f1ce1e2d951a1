// Package session owns conversation state: bounded message history, cart
// linkage, and the one-way guest to authenticated identity upgrade.
package session

import (
	"time"

	contractx "github.com/sornchai/shoptalk/agent/contract"
)

// MaxHistory bounds the retained history. The bound is enforced at append
// time; the oldest entries are evicted first.
const MaxHistory = 50

// Message is one immutable turn of conversation.
type Message struct {
	Role      contractx.Role       `json:"role"`
	Content   string               `json:"content"`
	Timestamp time.Time            `json:"timestamp"`
	ToolsUsed []string             `json:"tools_used,omitempty"`
	Intent    contractx.IntentType `json:"intent,omitempty"`
}

// Metadata is the optional annotation attached to an appended message.
type Metadata struct {
	ToolsUsed []string
	Intent    contractx.IntentType
}

// Session is one conversation thread. It is owned exclusively by the Store;
// callers only ever see clones.
type Session struct {
	ID            string             `json:"session_id"`
	UserType      contractx.UserType `json:"user_type"`
	CustomerToken string             `json:"customer_token,omitempty"`
	CartID        string             `json:"cart_id,omitempty"`
	History       []Message          `json:"history,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	LastActivity  time.Time          `json:"last_activity"`
}

func New(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		UserType:     contractx.UserGuest,
		CreatedAt:    now.UTC(),
		LastActivity: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.LastActivity = now.UTC()
}

// Upgrade applies the one-way guest to authenticated transition. A later call
// without a credential never reverts it.
func (s *Session) Upgrade(customerToken string) {
	if customerToken == "" {
		return
	}
	s.CustomerToken = customerToken
	s.UserType = contractx.UserAuthenticated
}

// Stale reports whether the session aged out.
func (s *Session) Stale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(s.LastActivity) > maxAge
}

// append adds one message, evicting the oldest entries beyond MaxHistory.
func (s *Session) append(msg Message) {
	s.History = append(s.History, msg)
	if len(s.History) > MaxHistory {
		s.History = append([]Message(nil), s.History[len(s.History)-MaxHistory:]...)
	}
}

// Recent returns a copy of the most recent limit messages in chronological
// order. A non-positive limit returns the whole history.
func (s *Session) Recent(limit int) []Message {
	history := s.History
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return append([]Message(nil), history...)
}

// Clone returns a deep copy safe to hand outside the store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	dup := *s
	dup.History = make([]Message, len(s.History))
	for i, msg := range s.History {
		dup.History[i] = msg
		if len(msg.ToolsUsed) > 0 {
			dup.History[i].ToolsUsed = append([]string(nil), msg.ToolsUsed...)
		}
	}
	return &dup
}
