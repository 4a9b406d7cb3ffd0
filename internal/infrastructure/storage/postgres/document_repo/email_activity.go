package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
	"nexa/internal/domain/emailactivity"
	"nexa/internal/infrastructure/storage/postgres"
)

const emailActivityTable = "email_activity"

// EmailActivityRepo is the PostgreSQL implementation of
// emailactivity.Repository.
type EmailActivityRepo struct {
	txm *postgres.TxManager
}

// NewEmailActivityRepo creates a new email activity repository.
func NewEmailActivityRepo(txm *postgres.TxManager) *EmailActivityRepo {
	return &EmailActivityRepo{txm: txm}
}

func (r *EmailActivityRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts an activity record.
func (r *EmailActivityRepo) Create(ctx context.Context, activity *emailactivity.Activity) error {
	q := r.builder().
		Insert(emailActivityTable).
		SetMap(postgres.StructToMap(activity))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError("insert "+emailActivityTable, "email activity", err)
	}

	return nil
}

// UpdateStatus moves a record to a new delivery status.
func (r *EmailActivityRepo) UpdateStatus(ctx context.Context, ownerID, activityID id.ID, status string) error {
	q := r.builder().
		Update(emailActivityTable).
		Set("status", status).
		Where(squirrel.Eq{"owner_id": ownerID}).
		Where(squirrel.Eq{"id": activityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError("update "+emailActivityTable, "email activity", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("email activity", activityID.String())
	}

	return nil
}

// List returns activity matching the filter, newest first.
func (r *EmailActivityRepo) List(ctx context.Context, filter emailactivity.ListFilter) ([]*emailactivity.Activity, error) {
	q := r.builder().
		Select(postgres.ExtractDBColumns[emailactivity.Activity]()...).
		From(emailActivityTable).
		Where(squirrel.Eq{"owner_id": filter.OwnerID}).
		OrderBy("sent_at DESC")

	if filter.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if len(filter.Types) > 0 {
		q = q.Where(squirrel.Eq{"type": filter.Types})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"sent_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"sent_at": *filter.DateTo})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	result := make([]*emailactivity.Activity, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, postgres.MapError("list "+emailActivityTable, "email activity", err)
	}

	return result, nil
}
