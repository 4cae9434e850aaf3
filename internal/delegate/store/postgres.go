package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"nameplate/internal/delegate/models"
	"nameplate/pkg/domain"
	"nameplate/pkg/platform/sentinel"
	"nameplate/pkg/platform/tx"
)

// Schema is the DDL for delegate records.
const Schema = `
CREATE TABLE IF NOT EXISTS delegates (
	address         TEXT PRIMARY KEY,
	account_address TEXT NOT NULL,
	owner_principal TEXT NOT NULL,
	kid             BIGINT NOT NULL UNIQUE,
	created_at      TIMESTAMPTZ NOT NULL
)`

// Postgres persists delegate records, joining the context transaction when
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

func (s *Postgres) Create(ctx context.Context, rec *models.DelegateRecord) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO delegates (address, account_address, owner_principal, kid, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.Address.String(), rec.AccountAddress.String(), rec.OwnerPrincipal.String(), rec.Kid, rec.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert delegate: %w", err)
	}
	return nil
}

func (s *Postgres) FindByAddress(ctx context.Context, addr domain.Address) (*models.DelegateRecord, error) {
	var (
		rec     models.DelegateRecord
		address string
		acct    string
		owner   string
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT address, account_address, owner_principal, kid, created_at
		FROM delegates WHERE address = $1`, addr.String(),
	).Scan(&address, &acct, &owner, &rec.Kid, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan delegate: %w", err)
	}
	rec.Address = domain.Address(address)
	rec.AccountAddress = domain.Address(acct)
	rec.OwnerPrincipal = domain.Address(owner)
	return &rec, nil
}

func (s *Postgres) Delete(ctx context.Context, addr domain.Address) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM delegates WHERE address = $1`, addr.String())
	if err != nil {
		return fmt.Errorf("delete delegate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete delegate: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteByAccount(ctx context.Context, accountAddress domain.Address) (int, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM delegates WHERE account_address = $1`, accountAddress.String())
	if err != nil {
		return 0, fmt.Errorf("delete delegates by account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete delegates by account: %w", err)
	}
	return int(n), nil
}
