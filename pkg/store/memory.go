package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/latticelabs/helix/pkg/models"
)

// Memory is the in-memory store used when no database is configured.
// A single mutex serializes writers; readers get deep copies, never
// references into the maps.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*models.ChatSession // ownerID → sessionID → session
	traces   []*models.TrainingTrace
	traceSeq uint64
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]map[string]*models.ChatSession),
	}
}

// ListSessions returns the owner's sessions ordered by most recent update.
func (m *Memory) ListSessions(_ context.Context, ownerID string, filters models.SessionFilters) (*models.SessionList, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}

	m.mu.RLock()
	owned := make([]*models.ChatSession, 0, len(m.sessions[ownerID]))
	for _, s := range m.sessions[ownerID] {
		owned = append(owned, s.Clone())
	}
	m.mu.RUnlock()

	// Most recent first; session ID breaks ties so pagination is stable.
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].UpdatedAt.Equal(owned[j].UpdatedAt) {
			return owned[i].UpdatedAt.After(owned[j].UpdatedAt)
		}
		return owned[i].SessionID < owned[j].SessionID
	})

	total := len(owned)
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := owned[offset:end]

	for _, s := range page {
		if filters.IncludeMessages {
			if err := verifyHash(s); err != nil {
				return nil, err
			}
		} else {
			s.Messages = nil
		}
	}

	return &models.SessionList{
		Sessions:   page,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// GetSession returns one session with messages, verifying integrity.
func (m *Memory) GetSession(_ context.Context, ownerID, sessionID string) (*models.ChatSession, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}

	m.mu.RLock()
	s, ok := m.sessions[ownerID][sessionID]
	if ok {
		s = s.Clone()
	}
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if err := verifyHash(s); err != nil {
		return nil, err
	}
	return s, nil
}

// UpsertSession creates the session on first use and appends messages.
func (m *Memory) UpsertSession(_ context.Context, ownerID string, req models.UpsertSessionRequest) (*models.ChatSession, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}
	if req.SessionID == "" {
		return nil, NewValidationError("sessionId", "required")
	}

	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	owned := m.sessions[ownerID]
	if owned == nil {
		owned = make(map[string]*models.ChatSession)
		m.sessions[ownerID] = owned
	}

	s, ok := owned[req.SessionID]
	if !ok {
		s = &models.ChatSession{
			OwnerID:   ownerID,
			SessionID: req.SessionID,
			ContextID: req.ContextID,
			PersonaID: req.PersonaID,
			CreatedAt: now,
		}
		owned[req.SessionID] = s
	} else {
		if req.ContextID != "" {
			s.ContextID = req.ContextID
		}
		if req.PersonaID != "" {
			s.PersonaID = req.PersonaID
		}
	}

	for _, msg := range req.Messages {
		if msg.TS.IsZero() {
			msg.TS = now
		}
		s.Messages = append(s.Messages, msg)
	}

	hash, err := MessagesHash(s.Messages)
	if err != nil {
		return nil, err
	}
	s.Hash = hash
	s.UpdatedAt = now
	if s.UpdatedAt.Before(s.CreatedAt) {
		s.UpdatedAt = s.CreatedAt
	}

	return s.Clone(), nil
}

// DeleteSession removes the session.
func (m *Memory) DeleteSession(_ context.Context, ownerID, sessionID string) error {
	if ownerID == "" {
		return ErrForbidden
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[ownerID][sessionID]; !ok {
		return ErrNotFound
	}
	delete(m.sessions[ownerID], sessionID)
	return nil
}

// AppendTrace appends one immutable trace row and returns its seq.
func (m *Memory) AppendTrace(_ context.Context, row *models.TrainingTrace) (uint64, error) {
	if row == nil {
		return 0, NewValidationError("row", "required")
	}
	if row.TraceID == "" {
		return 0, NewValidationError("traceId", "required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.traceSeq++
	stored := *row
	stored.Seq = m.traceSeq
	if stored.TS.IsZero() {
		stored.TS = time.Now().UTC()
	}
	stored.Deltas = append([]models.Delta(nil), row.Deltas...)
	stored.Notes = append([]string(nil), row.Notes...)
	m.traces = append(m.traces, &stored)

	row.Seq = stored.Seq
	row.TS = stored.TS
	return stored.Seq, nil
}

// ExportTracesSince returns trace rows visible to the tenant in seq order.
func (m *Memory) ExportTracesSince(_ context.Context, tenantID string, afterSeq uint64, limit int) ([]*models.TrainingTrace, error) {
	if tenantID == "" {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.TrainingTrace
	for _, row := range m.traces {
		if row.Seq <= afterSeq {
			continue
		}
		// Untenanted rows are global audit records.
		if row.TenantID != "" && row.TenantID != tenantID {
			continue
		}
		cp := *row
		out = append(out, &cp)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// SweepOlderThan deletes sessions and traces last touched before cutoff.
func (m *Memory) SweepOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for ownerID, owned := range m.sessions {
		for id, s := range owned {
			if s.UpdatedAt.Before(cutoff) {
				delete(owned, id)
				removed++
			}
		}
		if len(owned) == 0 {
			delete(m.sessions, ownerID)
		}
	}

	kept := m.traces[:0]
	for _, row := range m.traces {
		if row.TS.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	m.traces = kept

	return removed, nil
}

// Ping always succeeds; memory needs no backing storage.
func (m *Memory) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (m *Memory) Close() {}

// verifyHash recomputes the message hash and compares to the stored one.
func verifyHash(s *models.ChatSession) error {
	expected, err := MessagesHash(s.Messages)
	if err != nil {
		return err
	}
	if s.Hash != "" && s.Hash != expected {
		return &HashMismatchError{SessionID: s.SessionID, Expected: expected, Stored: s.Hash}
	}
	return nil
}
