package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"nexa/internal/core/id"
	"nexa/internal/domain/documents/invoice"
	"nexa/internal/infrastructure/storage/postgres"
)

const paymentTable = "payments"

// PaymentRepo is the PostgreSQL implementation of invoice.PaymentRepository.
type PaymentRepo struct {
	txm *postgres.TxManager
}

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txm *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{txm: txm}
}

func (r *PaymentRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a payment record.
func (r *PaymentRepo) Create(ctx context.Context, payment *invoice.Payment) error {
	q := r.builder().
		Insert(paymentTable).
		SetMap(postgres.StructToMap(payment))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError("insert "+paymentTable, "payment", err)
	}

	return nil
}

// ListByInvoice returns an invoice's payments in chronological order.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, ownerID, invoiceID id.ID) ([]*invoice.Payment, error) {
	q := r.builder().
		Select(postgres.ExtractDBColumns[invoice.Payment]()...).
		From(paymentTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("paid_at", "created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	payments := make([]*invoice.Payment, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &payments, sql, args...); err != nil {
		return nil, postgres.MapError("list "+paymentTable, "payment", err)
	}

	return payments, nil
}
