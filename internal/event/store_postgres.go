package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"nameplate/pkg/platform/tx"
)

// Schema is the DDL for the event log table. Applied by deployment tooling
// and by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS directory_events (
	seq   BIGSERIAL PRIMARY KEY,
	id    UUID NOT NULL UNIQUE,
	type  TEXT NOT NULL,
	at    TIMESTAMPTZ NOT NULL,
	attrs JSONB NOT NULL
)`

// PostgresLog persists the event log in PostgreSQL. When the context carries
// a transaction (pkg/platform/tx), appends join it so events commit and roll
// back with the operation that emitted them.
type PostgresLog struct {
	db *sql.DB
}

func NewPostgresLog(db *sql.DB) *PostgresLog {
	return &PostgresLog{db: db}
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (l *PostgresLog) conn(ctx context.Context) execer {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return l.db
}

func (l *PostgresLog) Append(ctx context.Context, ev Event) (Event, error) {
	attrs, err := json.Marshal(ev.Attrs)
	if err != nil {
		return Event{}, fmt.Errorf("encode event attrs: %w", err)
	}
	row := l.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO directory_events (id, type, at, attrs)
		VALUES ($1, $2, $3, $4)
		RETURNING seq`,
		ev.ID, string(ev.Type), ev.At, attrs,
	)
	if err := row.Scan(&ev.Seq); err != nil {
		return Event{}, fmt.Errorf("append event: %w", err)
	}
	return ev, nil
}

func (l *PostgresLog) List(ctx context.Context, afterSeq uint64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.conn(ctx).QueryContext(ctx, `
		SELECT seq, id, type, at, attrs
		FROM directory_events
		WHERE seq > $1
		ORDER BY seq
		LIMIT $2`,
		afterSeq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev    Event
			id    uuid.UUID
			typ   string
			attrs []byte
		)
		if err := rows.Scan(&ev.Seq, &id, &typ, &ev.At, &attrs); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.ID = id
		ev.Type = Type(typ)
		if err := json.Unmarshal(attrs, &ev.Attrs); err != nil {
			return nil, fmt.Errorf("decode event attrs: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
