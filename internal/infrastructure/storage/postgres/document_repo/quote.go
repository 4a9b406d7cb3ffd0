package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"nexa/internal/core/id"
	"nexa/internal/domain"
	"nexa/internal/domain/documents"
	"nexa/internal/domain/documents/quote"
	"nexa/internal/infrastructure/storage/postgres"
)

const (
	quoteTable     = "quotes"
	quoteLineTable = "quote_items"
)

// QuoteRepo is the PostgreSQL implementation of quote.Repository.
type QuoteRepo struct {
	*BaseDocumentRepo[*quote.Quote]
	txm *postgres.TxManager
}

// NewQuoteRepo creates a new quote repository.
func NewQuoteRepo(txm *postgres.TxManager) *QuoteRepo {
	return &QuoteRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			quoteTable,
			"quote",
			postgres.ExtractDBColumns[quote.Quote](),
			func() *quote.Quote { return &quote.Quote{} },
		),
		txm: txm,
	}
}

// GetLines loads quote positions ordered by line number.
func (r *QuoteRepo) GetLines(ctx context.Context, docID id.ID) ([]quote.Line, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[quote.Line]()...).
		From(quoteLineTable).
		Where(squirrel.Eq{"quote_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := make([]quote.Line, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, postgres.MapError("get "+quoteLineTable, "quote line", err)
	}

	return lines, nil
}

// SaveLines replaces the table part: delete all, insert current.
func (r *QuoteRepo) SaveLines(ctx context.Context, docID id.ID, lines []quote.Line) error {
	querier := r.txm.GetQuerier(ctx)

	delQ := r.Builder().
		Delete(quoteLineTable).
		Where(squirrel.Eq{"quote_id": docID})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError("delete "+quoteLineTable, "quote line", err)
	}

	for _, line := range lines {
		data := postgres.StructToMap(line)
		data["quote_id"] = docID

		insQ := r.Builder().
			Insert(quoteLineTable).
			SetMap(data)

		sql, args, err := insQ.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return postgres.MapError("insert "+quoteLineTable, "quote line", err)
		}
	}

	return nil
}

// List returns a filtered page of quotes without their table parts.
func (r *QuoteRepo) List(ctx context.Context, filter quote.ListFilter) (domain.ListResult[*quote.Quote], error) {
	q := r.baseSelect(filter.OwnerID)

	if len(filter.Statuses) > 0 {
		q = q.Where(squirrel.Eq{"status": filter.Statuses})
	}
	if filter.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"issue_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"issue_date": *filter.DateTo})
	}
	if filter.Search != "" {
		q = q.Where(quoteSearchConditions(filter.Search))
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	return r.listPage(ctx, q, filter.ListFilter)
}

// quoteSearchConditions matches free text against the columns users
// search quotes by.
func quoteSearchConditions(search string) squirrel.Or {
	pattern := "%" + search + "%"
	return squirrel.Or{
		squirrel.ILike{"number": pattern},
		squirrel.ILike{"client_name": pattern},
		squirrel.ILike{"title": pattern},
		squirrel.ILike{"notes": pattern},
	}
}

// MarkExpired bulk-transitions sent and viewed quotes whose validity has
// lapsed. Returns the number of quotes changed.
func (r *QuoteRepo) MarkExpired(ctx context.Context, ownerID id.ID, asOf time.Time) (int64, error) {
	q := r.Builder().
		Update(quoteTable).
		Set("status", documents.QuoteStatusExpired).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"owner_id": ownerID}).
		Where(squirrel.Eq{"status": []string{
			documents.QuoteStatusSent,
			documents.QuoteStatusViewed,
		}}).
		Where(squirrel.Lt{"expiry_date": asOf})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError("mark expired", "quote", err)
	}

	return result.RowsAffected(), nil
}
