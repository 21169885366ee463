// Package store persists chat sessions and training traces. Sessions are
// keyed by (ownerId, sessionId), traces by (tenantId, traceId). Two
// implementations share the Store interface: Memory (default) and
// Postgres (SESSIONS_DATABASE_URL).
//
// Every operation takes the caller's identity; an empty identity fails
// with ErrForbidden. Session message lists are append-only, and each
// read recomputes the integrity hash over the canonical message list.
package store

import (
	"context"
	"time"

	"github.com/latticelabs/helix/pkg/canonjson"
	"github.com/latticelabs/helix/pkg/models"
)

// Store is the session and trace persistence contract.
type Store interface {
	// ListSessions returns the owner's sessions ordered by most recent
	// update. Messages are omitted unless filters request them.
	ListSessions(ctx context.Context, ownerID string, filters models.SessionFilters) (*models.SessionList, error)

	// GetSession returns one session with messages and verifies the
	// integrity hash. A *HashMismatchError carries the expected hash.
	GetSession(ctx context.Context, ownerID, sessionID string) (*models.ChatSession, error)

	// UpsertSession creates the session on first use and appends the
	// request's messages. Existing messages are never rewritten.
	UpsertSession(ctx context.Context, ownerID string, req models.UpsertSessionRequest) (*models.ChatSession, error)

	// DeleteSession removes the session.
	DeleteSession(ctx context.Context, ownerID, sessionID string) error

	// AppendTrace appends one training-trace row and returns its seq.
	// Rows are immutable once appended.
	AppendTrace(ctx context.Context, row *models.TrainingTrace) (uint64, error)

	// ExportTracesSince returns trace rows with seq > afterSeq visible
	// to the tenant, ordered by seq, capped at limit. Untenanted rows
	// are visible to every valid tenant.
	ExportTracesSince(ctx context.Context, tenantID string, afterSeq uint64, limit int) ([]*models.TrainingTrace, error)

	// SweepOlderThan deletes sessions and trace rows last touched before
	// the cutoff. Returns how many entities were removed.
	SweepOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close()
}

// MessagesHash computes the integrity hash over a session's full message
// list: SHA-256 of its canonical JSON. The empty list hashes too, so a
// just-created session is immediately verifiable.
func MessagesHash(messages []models.ChatMessage) (string, error) {
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return canonjson.Hash(messages)
}

// defaultListLimit bounds ListSessions when the caller passes none.
const defaultListLimit = 50
