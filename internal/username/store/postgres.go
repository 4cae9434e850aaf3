package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"nameplate/internal/username/models"
	"nameplate/pkg/domain"
	"nameplate/pkg/platform/sentinel"
	"nameplate/pkg/platform/tx"
)

// Schema is the DDL for the username registry table.
const Schema = `
CREATE TABLE IF NOT EXISTS usernames (
	name          TEXT PRIMARY KEY,
	owner         TEXT NOT NULL,
	token_address TEXT NOT NULL,
	reclaimed     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

// Postgres persists username records. Joins the context transaction when one
// is present.
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

func (s *Postgres) Create(ctx context.Context, rec *models.UsernameRecord) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO usernames (name, owner, token_address, reclaimed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.Name, rec.Owner.String(), rec.TokenAddress.String(), rec.Reclaimed, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert username: %w", err)
	}
	return nil
}

func (s *Postgres) FindByName(ctx context.Context, name string) (*models.UsernameRecord, error) {
	return s.scanOne(s.conn(ctx).QueryRowContext(ctx, `
		SELECT name, owner, token_address, reclaimed, created_at, updated_at
		FROM usernames WHERE name = $1`, name))
}

// Execute locks the row FOR UPDATE, validates, mutates, and writes back.
func (s *Postgres) Execute(ctx context.Context, name string, validate func(*models.UsernameRecord) error, mutate func(*models.UsernameRecord)) (*models.UsernameRecord, error) {
	rec, err := s.scanOne(s.conn(ctx).QueryRowContext(ctx, `
		SELECT name, owner, token_address, reclaimed, created_at, updated_at
		FROM usernames WHERE name = $1 FOR UPDATE`, name))
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
		UPDATE usernames SET owner = $2, reclaimed = $3, updated_at = $4
		WHERE name = $1`,
		rec.Name, rec.Owner.String(), rec.Reclaimed, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update username: %w", err)
	}
	return rec, nil
}

func (s *Postgres) scanOne(row *sql.Row) (*models.UsernameRecord, error) {
	var (
		rec    models.UsernameRecord
		owner  string
		tokAdr string
	)
	err := row.Scan(&rec.Name, &owner, &tokAdr, &rec.Reclaimed, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan username: %w", err)
	}
	rec.Owner = domain.Address(owner)
	rec.TokenAddress = domain.Address(tokAdr)
	return &rec, nil
}
