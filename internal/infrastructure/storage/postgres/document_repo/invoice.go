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
	"nexa/internal/domain/documents/invoice"
	"nexa/internal/infrastructure/storage/postgres"
)

const (
	invoiceTable     = "invoices"
	invoiceLineTable = "invoice_items"
)

// InvoiceRepo is the PostgreSQL implementation of invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
	txm *postgres.TxManager
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			invoiceTable,
			"invoice",
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
		txm: txm,
	}
}

// GetLines loads invoice positions ordered by line number.
func (r *InvoiceRepo) GetLines(ctx context.Context, docID id.ID) ([]invoice.Line, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[invoice.Line]()...).
		From(invoiceLineTable).
		Where(squirrel.Eq{"invoice_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := make([]invoice.Line, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, postgres.MapError("get "+invoiceLineTable, "invoice line", err)
	}

	return lines, nil
}

// SaveLines replaces the table part: delete all, insert current.
// Callers run this inside the same transaction as the document update.
func (r *InvoiceRepo) SaveLines(ctx context.Context, docID id.ID, lines []invoice.Line) error {
	querier := r.txm.GetQuerier(ctx)

	delQ := r.Builder().
		Delete(invoiceLineTable).
		Where(squirrel.Eq{"invoice_id": docID})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError("delete "+invoiceLineTable, "invoice line", err)
	}

	for _, line := range lines {
		data := postgres.StructToMap(line)
		data["invoice_id"] = docID

		insQ := r.Builder().
			Insert(invoiceLineTable).
			SetMap(data)

		sql, args, err := insQ.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return postgres.MapError("insert "+invoiceLineTable, "invoice line", err)
		}
	}

	return nil
}

// List returns a filtered page of invoices without their table parts.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
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
		q = q.Where(invoiceSearchConditions(filter.Search))
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	return r.listPage(ctx, q, filter.ListFilter)
}

// invoiceSearchConditions matches free text against the columns users
// search invoices by.
func invoiceSearchConditions(search string) squirrel.Or {
	pattern := "%" + search + "%"
	return squirrel.Or{
		squirrel.ILike{"number": pattern},
		squirrel.ILike{"client_name": pattern},
		squirrel.ILike{"notes": pattern},
	}
}

// MarkOverdue bulk-transitions issued and sent invoices whose due date
// has passed. Returns the number of invoices changed.
func (r *InvoiceRepo) MarkOverdue(ctx context.Context, ownerID id.ID, asOf time.Time) (int64, error) {
	q := r.Builder().
		Update(invoiceTable).
		Set("status", documents.InvoiceStatusOverdue).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"owner_id": ownerID}).
		Where(squirrel.Eq{"status": []string{
			documents.InvoiceStatusIssued,
			documents.InvoiceStatusSent,
		}}).
		Where(squirrel.Lt{"due_date": asOf})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError("mark overdue", "invoice", err)
	}

	return result.RowsAffected(), nil
}
