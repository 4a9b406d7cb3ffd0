// Package numbering implements the document number generator on top of
// PostgreSQL. One generator instance serves one document table.
package numbering

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"nexa/internal/core/numbering"
	"nexa/internal/infrastructure/storage/postgres"
	"nexa/pkg/logger"
)

// PostgresGenerator derives the next counter from the highest number
// already stored in a document table.
type PostgresGenerator struct {
	txm   *postgres.TxManager
	table string
}

// NewPostgresGenerator creates a generator over the given document table.
func NewPostgresGenerator(txm *postgres.TxManager, table string) *PostgresGenerator {
	return &PostgresGenerator{
		txm:   txm,
		table: table,
	}
}

// Generate returns the next number in the owner's series. It never fails:
// any lookup problem degrades to the timestamp fallback, and the unique
// constraint on (owner_id, number) protects against the remaining race.
func (g *PostgresGenerator) Generate(ctx context.Context, ownerID string, cfg numbering.Config, now time.Time) string {
	scope := cfg.ScopePrefix(now)

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("number").
		From(g.table).
		Where(squirrel.Eq{"owner_id": ownerID}).
		Where(squirrel.Like{"number": scope + "%"}).
		OrderBy("length(number) DESC", "number DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		logger.Warn(ctx, "number lookup query build failed, using fallback",
			"table", g.table, "error", err)
		return cfg.Fallback(now)
	}

	var last string
	err = g.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&last)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return cfg.Format(now, 1)
	case err != nil:
		logger.Warn(ctx, "number lookup failed, using fallback",
			"table", g.table, "scope", scope, "error", err)
		return cfg.Fallback(now)
	}

	counter := numbering.ParseCounter(last, scope)
	if counter < 0 {
		logger.Warn(ctx, "unparseable last number, using fallback",
			"table", g.table, "number", last)
		return cfg.Fallback(now)
	}

	return cfg.Format(now, counter+1)
}
