package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"nexa/internal/core/id"
	"nexa/internal/domain/events"
	"nexa/internal/infrastructure/storage/postgres"
)

const eventTable = "events"

// EventRepo is the PostgreSQL implementation of events.Repository.
type EventRepo struct {
	txm *postgres.TxManager
}

// NewEventRepo creates a new calendar event repository.
func NewEventRepo(txm *postgres.TxManager) *EventRepo {
	return &EventRepo{txm: txm}
}

func (r *EventRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a calendar event.
func (r *EventRepo) Create(ctx context.Context, event *events.Event) error {
	q := r.builder().
		Insert(eventTable).
		SetMap(postgres.StructToMap(event))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError("insert "+eventTable, "event", err)
	}

	return nil
}

// UpsertForDocument replaces the document's event of the given type.
// Relies on the unique index on (document_id, type).
func (r *EventRepo) UpsertForDocument(ctx context.Context, event *events.Event) error {
	q := r.builder().
		Insert(eventTable).
		SetMap(postgres.StructToMap(event)).
		Suffix(`ON CONFLICT (document_id, type) DO UPDATE
			SET title = EXCLUDED.title,
			    starts_at = EXCLUDED.starts_at,
			    updated_at = NOW()`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError("upsert "+eventTable, "event", err)
	}

	return nil
}

// DeleteByDocument removes all events linked to a document.
func (r *EventRepo) DeleteByDocument(ctx context.Context, ownerID, documentID id.ID) error {
	q := r.builder().
		Delete(eventTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		Where(squirrel.Eq{"document_id": documentID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError("delete "+eventTable, "event", err)
	}

	return nil
}

// ListRange returns the owner's events with starts_at in [from, to).
func (r *EventRepo) ListRange(ctx context.Context, ownerID id.ID, from, to time.Time) ([]*events.Event, error) {
	q := r.builder().
		Select(postgres.ExtractDBColumns[events.Event]()...).
		From(eventTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		Where(squirrel.GtOrEq{"starts_at": from}).
		Where(squirrel.Lt{"starts_at": to}).
		OrderBy("starts_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	result := make([]*events.Event, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, postgres.MapError("list "+eventTable, "event", err)
	}

	return result, nil
}
