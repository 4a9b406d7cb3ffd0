package invoice

import (
	"context"
	"fmt"
	"time"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
	"nexa/internal/core/numbering"
	"nexa/internal/core/tx"
	"nexa/internal/core/types"
	"nexa/internal/domain"
	"nexa/internal/domain/documents"
	"nexa/internal/domain/events"
	"nexa/internal/domain/tax"
	"nexa/pkg/logger"
)

// createAttempts bounds number-conflict retries on insert.
const createAttempts = 3

// Service provides business operations for invoices.
// All dependencies are injected; the service holds no global state.
type Service struct {
	repo      Repository
	payments  PaymentRepository
	eventRepo events.Repository
	calc      *tax.Calculator
	numbers   numbering.Generator
	txManager tx.Manager
	lifecycle *documents.Lifecycle
	hooks     *domain.HookRegistry[*Invoice]
}

// NewService creates a new invoice service.
func NewService(
	repo Repository,
	payments PaymentRepository,
	eventRepo events.Repository,
	calc *tax.Calculator,
	numbers numbering.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		payments:  payments,
		eventRepo: eventRepo,
		calc:      calc,
		numbers:   numbers,
		txManager: txManager,
		lifecycle: documents.InvoiceLifecycle(),
		hooks:     domain.NewHookRegistry[*Invoice](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Invoice] {
	return s.hooks
}

// recalculate runs the tax calculator and writes totals onto the invoice.
func (s *Service) recalculate(ctx context.Context, doc *Invoice) {
	totals := s.calc.Compute(ctx, doc.CalcLines(), tax.DocumentParams{
		ClientCountry:   doc.ClientCountry,
		ClientVATNumber: doc.ClientVATNumber,
	})
	doc.ApplyTotals(totals)
}

// dueEvent builds the calendar event mirroring the invoice due date.
func dueEvent(doc *Invoice) *events.Event {
	title := fmt.Sprintf("Invoice %s due", doc.Number)
	return events.New(doc.OwnerID, doc.ID, events.TypeInvoiceDue, title, doc.DueDate)
}

// Create validates, numbers and persists a new invoice together with its
// due-date calendar event. Number generation never fails; a unique index
// on (owner_id, number) turns the generate/insert race into a duplicate
// error, which is retried with a fresh number.
func (s *Service) Create(ctx context.Context, doc *Invoice) error {
	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return err
	}

	if doc.Status == "" {
		doc.Status = documents.InvoiceStatusDraft
	}
	if doc.Status != documents.InvoiceStatusDraft {
		return apperror.NewValidation("new invoices must start as draft").
			WithDetail("status", doc.Status)
	}

	s.recalculate(ctx, doc)

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	cfg := DefaultNumbering()
	assigned := doc.Number != ""

	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		if !assigned {
			doc.Number = s.numbers.Generate(ctx, doc.OwnerID.String(), cfg, time.Now())
		}

		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, doc); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			return s.eventRepo.Create(ctx, dueEvent(doc))
		})

		// Caller-supplied numbers are not regenerated on conflict.
		if err == nil || !apperror.IsDuplicate(err) || assigned {
			break
		}
		logger.Warn(ctx, "invoice number conflict, regenerating",
			"number", doc.Number, "attempt", attempt+1)
	}
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "invoice created",
		"id", doc.ID,
		"number", doc.Number,
		"total", doc.TotalAmount,
		"method", doc.CalculationMethod)

	return nil
}

// GetByID retrieves an invoice with lines.
func (s *Service) GetByID(ctx context.Context, ownerID, docID id.ID) (*Invoice, error) {
	doc, err := s.repo.GetByID(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// List retrieves invoices with filtering and pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	if id.IsNil(filter.OwnerID) {
		return domain.ListResult[*Invoice]{}, apperror.NewValidation("owner is required")
	}
	if filter.Limit <= 0 {
		filter.ListFilter.Limit = domain.DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}

// Update persists changes to an invoice. Status is not changed here:
// use ChangeStatus or RecordPayment. Terminal invoices are immutable.
func (s *Service) Update(ctx context.Context, doc *Invoice) error {
	if err := s.hooks.Run(ctx, domain.BeforeUpdate, doc); err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, doc.OwnerID, doc.ID)
	if err != nil {
		return err
	}
	if s.lifecycle.IsTerminal(existing.Status) {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			fmt.Sprintf("invoice in status %q cannot be modified", existing.Status),
		).WithDetail("invoice_id", doc.ID.String())
	}
	if doc.Status != existing.Status {
		return apperror.NewValidation("status cannot be changed via update").
			WithDetail("current_status", existing.Status)
	}

	s.recalculate(ctx, doc)

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.eventRepo.UpsertForDocument(ctx, dueEvent(doc))
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterUpdate, doc); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	return nil
}

// ChangeStatus moves the invoice to next if the lifecycle allows it.
// partially_paid is rejected here: it is only entered via RecordPayment.
func (s *Service) ChangeStatus(ctx context.Context, ownerID, docID id.ID, next string) (*Invoice, error) {
	if next == documents.InvoiceStatusPartiallyPaid {
		return nil, apperror.NewValidation("partially_paid is set by recording a payment").
			WithDetail("status", next)
	}

	var doc *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, ownerID, docID)
		if err != nil {
			return err
		}

		if err := s.lifecycle.ValidateTransition(doc.Status, next); err != nil {
			return err
		}

		doc.Status = next
		doc.Touch()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice status changed",
		"id", docID, "status", next)

	return doc, nil
}

// Delete removes an invoice with its lines, payments stay as history is
// not kept: the calendar event is removed first so an orphaned event can
// never outlive its invoice.
func (s *Service) Delete(ctx context.Context, ownerID, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, ownerID, docID)
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.BeforeDelete, doc); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.eventRepo.DeleteByDocument(ctx, ownerID, docID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, ownerID, docID)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterDelete, doc); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "error", err)
	}

	logger.Info(ctx, "invoice deleted", "id", docID, "number", doc.Number)
	return nil
}

// RecordPayment registers a payment and moves the invoice to paid or
// partially_paid depending on the remaining balance. The whole operation
// is atomic: a rejected status change rolls the payment back.
func (s *Service) RecordPayment(ctx context.Context, ownerID, docID id.ID, amount types.Money, paidAt time.Time, method, reference string) (*Invoice, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").
			WithDetail("amount", amount.String())
	}
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	var doc *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, ownerID, docID)
		if err != nil {
			return err
		}

		if !doc.IsPayable() {
			return apperror.NewBusinessRule(
				apperror.CodeBusinessRule,
				fmt.Sprintf("cannot record payment on %s invoice", doc.Status),
			).WithDetail("invoice_id", docID.String()).
				WithDetail("status", doc.Status)
		}

		// An overpayment settles the invoice; the surplus stays visible
		// as a negative balance.
		next := documents.InvoiceStatusPartiallyPaid
		if amount.GreaterThanOrEqual(doc.Balance()) {
			next = documents.InvoiceStatusPaid
			// Settling must also be a legal transition.
			if err := s.lifecycle.ValidateTransition(doc.Status, next); err != nil {
				return err
			}
		}

		payment := &Payment{
			ID:        id.New(),
			OwnerID:   ownerID,
			InvoiceID: docID,
			Amount:    amount,
			PaidAt:    paidAt,
			Method:    method,
			Reference: reference,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return err
		}

		doc.PaidAmount = doc.PaidAmount.Add(amount)
		doc.Status = next
		doc.Touch()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"invoice_id", docID,
		"amount", amount,
		"status", doc.Status,
		"balance", doc.Balance())

	return doc, nil
}

// Payments lists payments recorded against an invoice.
func (s *Service) Payments(ctx context.Context, ownerID, docID id.ID) ([]*Payment, error) {
	if _, err := s.repo.GetByID(ctx, ownerID, docID); err != nil {
		return nil, err
	}
	return s.payments.ListByInvoice(ctx, ownerID, docID)
}

// Duplicate creates a fresh draft copy of an invoice: new identity, new
// number, today's dates, nothing paid.
func (s *Service) Duplicate(ctx context.Context, ownerID, docID id.ID) (*Invoice, error) {
	src, err := s.GetByID(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}

	copied := New(ownerID, src.ClientID)
	copied.ClientName = src.ClientName
	copied.ClientCountry = src.ClientCountry
	copied.ClientVATNumber = src.ClientVATNumber
	copied.Currency = src.Currency
	copied.Notes = src.Notes
	copied.DueDate = copied.IssueDate.Add(src.DueDate.Sub(src.IssueDate))

	for _, line := range src.Lines {
		line.LineID = id.Nil()
		copied.AddLine(line)
	}

	if err := s.Create(ctx, copied); err != nil {
		return nil, err
	}
	return copied, nil
}

// ProcessOverdue sweeps the owner's invoices and marks those past due.
// Meant to be run from a scheduler once a day.
func (s *Service) ProcessOverdue(ctx context.Context, ownerID id.ID, asOf time.Time) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx, ownerID, asOf)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info(ctx, "invoices marked overdue", "owner_id", ownerID, "count", n)
	}
	return n, nil
}
