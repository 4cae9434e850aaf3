package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"nameplate/internal/account/models"
	"nameplate/pkg/domain"
	"nameplate/pkg/platform/sentinel"
	"nameplate/pkg/platform/tx"
)

// Schema is the DDL for account records. The principal unique constraint is
// the local-account-reference invariant: exactly one account per principal.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	address         TEXT PRIMARY KEY,
	kid             BIGINT NOT NULL UNIQUE,
	owner           TEXT NOT NULL UNIQUE,
	username        TEXT NOT NULL,
	delegates       TEXT[] NOT NULL DEFAULT '{}',
	pending_intent  TEXT,
	publication_seq BIGINT NOT NULL DEFAULT 0,
	follow_seq      BIGINT NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
)`

// Postgres persists account records, joining the context transaction when
// one is present.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) conn(ctx context.Context) querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

const accountColumns = `address, kid, owner, username, delegates, pending_intent, publication_seq, follow_seq, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, rec *models.AccountRecord) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.Address.String(), rec.Kid, rec.Owner.String(), rec.Username,
		pq.Array(addressStrings(rec.Delegates)), intentString(rec.PendingIntent),
		rec.PublicationSeq, rec.FollowSeq, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Postgres) FindByAddress(ctx context.Context, addr domain.Address) (*models.AccountRecord, error) {
	return s.scanOne(s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE address = $1`, addr.String()))
}

func (s *Postgres) FindByPrincipal(ctx context.Context, principal domain.Address) (*models.AccountRecord, error) {
	return s.scanOne(s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE owner = $1`, principal.String()))
}

func (s *Postgres) ExecuteByAddress(ctx context.Context, addr domain.Address, validate func(*models.AccountRecord) error, mutate func(*models.AccountRecord)) (*models.AccountRecord, error) {
	return s.execute(ctx, `SELECT `+accountColumns+` FROM accounts WHERE address = $1 FOR UPDATE`, addr.String(), validate, mutate)
}

func (s *Postgres) ExecuteByPrincipal(ctx context.Context, principal domain.Address, validate func(*models.AccountRecord) error, mutate func(*models.AccountRecord)) (*models.AccountRecord, error) {
	return s.execute(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner = $1 FOR UPDATE`, principal.String(), validate, mutate)
}

func (s *Postgres) Delete(ctx context.Context, principal domain.Address) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM accounts WHERE owner = $1`, principal.String())
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) execute(ctx context.Context, query, key string, validate func(*models.AccountRecord) error, mutate func(*models.AccountRecord)) (*models.AccountRecord, error) {
	rec, err := s.scanOne(s.conn(ctx).QueryRowContext(ctx, query, key))
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(rec); err != nil {
			return nil, err
		}
	}
	mutate(rec)
	_, err = s.conn(ctx).ExecContext(ctx, `
		UPDATE accounts
		SET delegates = $2, pending_intent = $3, publication_seq = $4, follow_seq = $5, updated_at = $6
		WHERE address = $1`,
		rec.Address.String(), pq.Array(addressStrings(rec.Delegates)), intentString(rec.PendingIntent),
		rec.PublicationSeq, rec.FollowSeq, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return rec, nil
}

func (s *Postgres) scanOne(row *sql.Row) (*models.AccountRecord, error) {
	var (
		rec       models.AccountRecord
		address   string
		owner     string
		delegates []string
		intent    sql.NullString
	)
	err := row.Scan(&address, &rec.Kid, &owner, &rec.Username, pq.Array(&delegates), &intent,
		&rec.PublicationSeq, &rec.FollowSeq, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	rec.Address = domain.Address(address)
	rec.Owner = domain.Address(owner)
	for _, d := range delegates {
		rec.Delegates = append(rec.Delegates, domain.Address(d))
	}
	if intent.Valid {
		addr := domain.Address(intent.String)
		rec.PendingIntent = &addr
	}
	return &rec, nil
}

func addressStrings(addrs []domain.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}

func intentString(intent *domain.Address) sql.NullString {
	if intent == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: intent.String(), Valid: true}
}
