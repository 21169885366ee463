package models

import "time"

// Message roles within a chat session.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in a session's append-only message list.
type ChatMessage struct {
	Role    string    `json:"role"`    // system, user, assistant
	Content string    `json:"content"` // message text
	TS      time.Time `json:"ts"`
}

// ChatSession is an owner-scoped conversation. Messages are append-only;
// Hash covers the canonical JSON of the message list and is recomputed on
// every read for integrity validation.
type ChatSession struct {
	OwnerID   string        `json:"ownerId"`
	SessionID string        `json:"sessionId"`
	ContextID string        `json:"contextId,omitempty"`
	PersonaID string        `json:"personaId,omitempty"`
	Messages  []ChatMessage `json:"messages,omitempty"`
	Hash      string        `json:"hash,omitempty"` // SHA-256 hex over canonical message list
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"` // invariant: UpdatedAt >= CreatedAt
}

// Clone returns a deep copy safe to hand outside the store's lock.
func (s *ChatSession) Clone() *ChatSession {
	out := *s
	out.Messages = make([]ChatMessage, len(s.Messages))
	copy(out.Messages, s.Messages)
	return &out
}

// SessionFilters contains options for listing sessions.
type SessionFilters struct {
	Limit           int  `json:"limit,omitempty"`
	Offset          int  `json:"offset,omitempty"`
	IncludeMessages bool `json:"includeMessages,omitempty"`
}

// SessionList is a paginated session listing.
type SessionList struct {
	Sessions   []*ChatSession `json:"sessions"`
	TotalCount int            `json:"totalCount"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

// UpsertSessionRequest appends messages to an existing session or creates
// the session on first use.
type UpsertSessionRequest struct {
	SessionID string        `json:"sessionId"`
	ContextID string        `json:"contextId,omitempty"`
	PersonaID string        `json:"personaId,omitempty"`
	Messages  []ChatMessage `json:"messages"`
}
