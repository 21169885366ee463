package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/latticelabs/helix/pkg/models"
)

// Postgres implements Store on PostgreSQL. It accepts an externally-owned
// *pgxpool.Pool via constructor injection; the caller creates and closes
// the pool. Init is idempotent and replaces migrations for this schema.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a Postgres store using an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Init creates the schema if it does not exist.
func (p *Postgres) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			owner_id   TEXT NOT NULL,
			session_id TEXT NOT NULL,
			context_id TEXT NOT NULL DEFAULT '',
			persona_id TEXT NOT NULL DEFAULT '',
			messages   JSONB NOT NULL DEFAULT '[]',
			hash       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (owner_id, session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS chat_sessions_owner_updated_idx
			ON chat_sessions(owner_id, updated_at DESC)`,

		`CREATE TABLE IF NOT EXISTS training_traces (
			seq       BIGSERIAL PRIMARY KEY,
			trace_id  TEXT NOT NULL,
			tenant_id TEXT NOT NULL DEFAULT '',
			pass      BOOLEAN NOT NULL,
			row_data  JSONB NOT NULL,
			ts        TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS training_traces_tenant_seq_idx
			ON training_traces(tenant_id, seq)`,
	}

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// ListSessions returns the owner's sessions ordered by most recent update.
func (p *Postgres) ListSessions(ctx context.Context, ownerID string, filters models.SessionFilters) (*models.SessionList, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_sessions WHERE owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT owner_id, session_id, context_id, persona_id, messages, hash, created_at, updated_at
		   FROM chat_sessions
		  WHERE owner_id = $1
		  ORDER BY updated_at DESC, session_id ASC
		  LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.ChatSession, 0, limit)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		if filters.IncludeMessages {
			if err := verifyHash(s); err != nil {
				return nil, err
			}
		} else {
			s.Messages = nil
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return &models.SessionList{
		Sessions:   sessions,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// GetSession returns one session with messages, verifying integrity.
func (p *Postgres) GetSession(ctx context.Context, ownerID, sessionID string) (*models.ChatSession, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}

	row := p.pool.QueryRow(ctx,
		`SELECT owner_id, session_id, context_id, persona_id, messages, hash, created_at, updated_at
		   FROM chat_sessions
		  WHERE owner_id = $1 AND session_id = $2`,
		ownerID, sessionID)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := verifyHash(s); err != nil {
		return nil, err
	}
	return s, nil
}

// UpsertSession creates the session on first use and appends messages.
// The read-modify-write runs in one transaction with the row locked, so
// concurrent appends to the same session serialize.
func (p *Postgres) UpsertSession(ctx context.Context, ownerID string, req models.UpsertSessionRequest) (*models.ChatSession, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}
	if req.SessionID == "" {
		return nil, NewValidationError("sessionId", "required")
	}

	now := time.Now().UTC()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT owner_id, session_id, context_id, persona_id, messages, hash, created_at, updated_at
		   FROM chat_sessions
		  WHERE owner_id = $1 AND session_id = $2
		  FOR UPDATE`,
		ownerID, req.SessionID)

	s, err := scanSession(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		s = &models.ChatSession{
			OwnerID:   ownerID,
			SessionID: req.SessionID,
			ContextID: req.ContextID,
			PersonaID: req.PersonaID,
			CreatedAt: now,
		}
	case err != nil:
		return nil, err
	default:
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

	messagesJSON, err := json.Marshal(s.Messages)
	if err != nil {
		return nil, fmt.Errorf("marshal messages: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO chat_sessions (owner_id, session_id, context_id, persona_id, messages, hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (owner_id, session_id) DO UPDATE SET
			context_id = EXCLUDED.context_id,
			persona_id = EXCLUDED.persona_id,
			messages   = EXCLUDED.messages,
			hash       = EXCLUDED.hash,
			updated_at = EXCLUDED.updated_at`,
		s.OwnerID, s.SessionID, s.ContextID, s.PersonaID, messagesJSON, s.Hash, s.CreatedAt, s.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return s, nil
}

// DeleteSession removes the session.
func (p *Postgres) DeleteSession(ctx context.Context, ownerID, sessionID string) error {
	if ownerID == "" {
		return ErrForbidden
	}

	tag, err := p.pool.Exec(ctx,
		`DELETE FROM chat_sessions WHERE owner_id = $1 AND session_id = $2`,
		ownerID, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendTrace appends one immutable trace row and returns its seq.
func (p *Postgres) AppendTrace(ctx context.Context, row *models.TrainingTrace) (uint64, error) {
	if row == nil {
		return 0, NewValidationError("row", "required")
	}
	if row.TraceID == "" {
		return 0, NewValidationError("traceId", "required")
	}

	if row.TS.IsZero() {
		row.TS = time.Now().UTC()
	}

	rowJSON, err := json.Marshal(row)
	if err != nil {
		return 0, fmt.Errorf("marshal trace row: %w", err)
	}

	var seq uint64
	if err := p.pool.QueryRow(ctx,
		`INSERT INTO training_traces (trace_id, tenant_id, pass, row_data, ts)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING seq`,
		row.TraceID, row.TenantID, row.Pass, rowJSON, row.TS,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("append trace: %w", err)
	}

	row.Seq = seq
	return seq, nil
}

// ExportTracesSince returns trace rows visible to the tenant in seq order.
func (p *Postgres) ExportTracesSince(ctx context.Context, tenantID string, afterSeq uint64, limit int) ([]*models.TrainingTrace, error) {
	if tenantID == "" {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := p.pool.Query(ctx,
		`SELECT seq, row_data FROM training_traces
		  WHERE seq > $1 AND (tenant_id = '' OR tenant_id = $2)
		  ORDER BY seq ASC
		  LIMIT $3`,
		afterSeq, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("export traces: %w", err)
	}
	defer rows.Close()

	var out []*models.TrainingTrace
	for rows.Next() {
		var seq uint64
		var data []byte
		if err := rows.Scan(&seq, &data); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		var tr models.TrainingTrace
		if err := json.Unmarshal(data, &tr); err != nil {
			return nil, fmt.Errorf("unmarshal trace %d: %w", seq, err)
		}
		tr.Seq = seq
		out = append(out, &tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("export traces: %w", err)
	}
	return out, nil
}

// SweepOlderThan deletes sessions and traces last touched before cutoff.
func (p *Postgres) SweepOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0

	tag, err := p.pool.Exec(ctx,
		`DELETE FROM chat_sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return removed, fmt.Errorf("sweep sessions: %w", err)
	}
	removed += int(tag.RowsAffected())

	tag, err = p.pool.Exec(ctx,
		`DELETE FROM training_traces WHERE ts < $1`, cutoff)
	if err != nil {
		return removed, fmt.Errorf("sweep traces: %w", err)
	}
	removed += int(tag.RowsAffected())

	return removed, nil
}

// Ping checks pool connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close is a no-op; the pool is owned by the caller.
func (p *Postgres) Close() {}

// scanSession reads one chat_sessions row.
func scanSession(row pgx.Row) (*models.ChatSession, error) {
	var s models.ChatSession
	var messagesJSON []byte
	if err := row.Scan(&s.OwnerID, &s.SessionID, &s.ContextID, &s.PersonaID,
		&messagesJSON, &s.Hash, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if len(messagesJSON) > 0 {
		if err := json.Unmarshal(messagesJSON, &s.Messages); err != nil {
			return nil, fmt.Errorf("unmarshal messages: %w", err)
		}
	}
	return &s, nil
}
