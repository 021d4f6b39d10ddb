package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantrls/pkg/pg"
)

type document struct {
	ID        int64     `json:"id" db:"id"`
	CompanyID int64     `json:"company_id" db:"company_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type documentStore interface {
	List(ctx context.Context) ([]document, error)
	Create(ctx context.Context, companyID int64, title string) (document, error)
	Count(ctx context.Context) (int64, error)
}

// pgStore issues every query on the connection bound to the caller's unit,
// so the row-level security policy does the tenant filtering.
type pgStore struct {
	pool *pgxpool.Pool
}

func (s pgStore) List(ctx context.Context) ([]document, error) {
	rows, err := pg.Querier(ctx, s.pool).Query(ctx,
		"SELECT id, company_id, title, created_at FROM documents ORDER BY id")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[document])
}

func (s pgStore) Create(ctx context.Context, companyID int64, title string) (document, error) {
	rows, err := pg.Querier(ctx, s.pool).Query(ctx,
		"INSERT INTO documents (company_id, title) VALUES ($1, $2) RETURNING id, company_id, title, created_at",
		companyID, title)
	if err != nil {
		return document{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[document])
}

func (s pgStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := pg.Querier(ctx, s.pool).QueryRow(ctx, "SELECT count(*) FROM documents").Scan(&n)
	return n, err
}
