package quote

import (
	"context"
	"fmt"
	"time"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
	"nexa/internal/core/numbering"
	"nexa/internal/core/tx"
	"nexa/internal/domain"
	"nexa/internal/domain/documents"
	"nexa/internal/domain/documents/invoice"
	"nexa/internal/domain/events"
	"nexa/internal/domain/tax"
	"nexa/pkg/logger"
)

const createAttempts = 3

// Service provides business operations for quotes.
type Service struct {
	repo        Repository
	invoiceRepo invoice.Repository
	eventRepo   events.Repository
	calc        *tax.Calculator
	numbers     numbering.Generator
	txManager   tx.Manager
	lifecycle   *documents.Lifecycle
	hooks       *domain.HookRegistry[*Quote]
}

// NewService creates a new quote service.
func NewService(
	repo Repository,
	invoiceRepo invoice.Repository,
	eventRepo events.Repository,
	calc *tax.Calculator,
	numbers numbering.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		invoiceRepo: invoiceRepo,
		eventRepo:   eventRepo,
		calc:        calc,
		numbers:     numbers,
		txManager:   txManager,
		lifecycle:   documents.QuoteLifecycle(),
		hooks:       domain.NewHookRegistry[*Quote](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Quote] {
	return s.hooks
}

func (s *Service) recalculate(ctx context.Context, doc *Quote) {
	totals := s.calc.Compute(ctx, doc.CalcLines(), tax.DocumentParams{
		ClientCountry:   doc.ClientCountry,
		ClientVATNumber: doc.ClientVATNumber,
	})
	doc.ApplyTotals(totals)
}

func expiryEvent(doc *Quote) *events.Event {
	title := fmt.Sprintf("Quote %s expires", doc.Number)
	return events.New(doc.OwnerID, doc.ID, events.TypeQuoteExpiry, title, doc.ExpiryDate)
}

// Create validates, numbers and persists a new quote with its expiry
// calendar event. Duplicate numbers from the generate/insert race are
// retried with a fresh number.
func (s *Service) Create(ctx context.Context, doc *Quote) error {
	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return err
	}

	if doc.Status == "" {
		doc.Status = documents.QuoteStatusDraft
	}
	if doc.Status != documents.QuoteStatusDraft {
		return apperror.NewValidation("new quotes must start as draft").
			WithDetail("status", doc.Status)
	}

	doc.RefreshExpiry()
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
			return s.eventRepo.Create(ctx, expiryEvent(doc))
		})

		if err == nil || !apperror.IsDuplicate(err) || assigned {
			break
		}
		logger.Warn(ctx, "quote number conflict, regenerating",
			"number", doc.Number, "attempt", attempt+1)
	}
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "quote created",
		"id", doc.ID,
		"number", doc.Number,
		"total", doc.TotalAmount)

	return nil
}

// GetByID retrieves a quote with lines.
func (s *Service) GetByID(ctx context.Context, ownerID, docID id.ID) (*Quote, error) {
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

// List retrieves quotes with filtering and pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quote], error) {
	if id.IsNil(filter.OwnerID) {
		return domain.ListResult[*Quote]{}, apperror.NewValidation("owner is required")
	}
	if filter.Limit <= 0 {
		filter.ListFilter.Limit = domain.DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}

// Update persists changes to a quote. Only draft and revision_requested
// quotes are editable; sent documents must go through the status workflow.
func (s *Service) Update(ctx context.Context, doc *Quote) error {
	if err := s.hooks.Run(ctx, domain.BeforeUpdate, doc); err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, doc.OwnerID, doc.ID)
	if err != nil {
		return err
	}
	switch existing.Status {
	case documents.QuoteStatusDraft, documents.QuoteStatusRevisionRequested:
	default:
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			fmt.Sprintf("quote in status %q cannot be edited", existing.Status),
		).WithDetail("quote_id", doc.ID.String())
	}
	if doc.Status != existing.Status {
		return apperror.NewValidation("status cannot be changed via update").
			WithDetail("current_status", existing.Status)
	}

	doc.RefreshExpiry()
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
		return s.eventRepo.UpsertForDocument(ctx, expiryEvent(doc))
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterUpdate, doc); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	return nil
}

// ChangeStatus moves the quote to next if the lifecycle allows it.
// "converted" is rejected here: it is only entered via ConvertToInvoice.
func (s *Service) ChangeStatus(ctx context.Context, ownerID, docID id.ID, next string) (*Quote, error) {
	if next == documents.QuoteStatusConverted {
		return nil, apperror.NewValidation("quotes are converted via the convert operation").
			WithDetail("status", next)
	}

	var doc *Quote
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
		if next == documents.QuoteStatusAccepted {
			now := time.Now().UTC()
			doc.AcceptedAt = &now
		}
		doc.Touch()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quote status changed", "id", docID, "status", next)
	return doc, nil
}

// Delete removes a quote with its lines; the expiry event goes first so
// it can never outlive the quote.
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

	logger.Info(ctx, "quote deleted", "id", docID, "number", doc.Number)
	return nil
}

// ConvertToInvoice turns an accepted quote into a draft invoice. The new
// invoice and the quote's transition to converted commit atomically, so a
// quote can never be converted twice.
func (s *Service) ConvertToInvoice(ctx context.Context, ownerID, docID id.ID) (*invoice.Invoice, error) {
	var inv *invoice.Invoice

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, ownerID, docID)
		if err != nil {
			return err
		}

		if doc.Status != documents.QuoteStatusAccepted {
			return apperror.NewBusinessRule(
				apperror.CodeQuoteNotAccepted,
				"only accepted quotes can be converted",
			).WithDetail("quote_id", docID.String()).
				WithDetail("status", doc.Status)
		}

		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		inv = s.buildInvoice(ctx, doc)

		if err := s.invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		if err := s.invoiceRepo.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
			return fmt.Errorf("save invoice lines: %w", err)
		}
		if err := s.eventRepo.Create(ctx, invoiceDueEvent(inv)); err != nil {
			return err
		}

		doc.Status = documents.QuoteStatusConverted
		doc.ConvertedInvoiceID = &inv.ID
		doc.Touch()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quote converted to invoice",
		"quote_id", docID,
		"invoice_id", inv.ID,
		"invoice_number", inv.Number)

	return inv, nil
}

// buildInvoice maps an accepted quote onto a fresh draft invoice.
// Optional positions the client never accepted are dropped.
func (s *Service) buildInvoice(ctx context.Context, doc *Quote) *invoice.Invoice {
	inv := invoice.New(doc.OwnerID, doc.ClientID)
	inv.ClientName = doc.ClientName
	inv.ClientCountry = doc.ClientCountry
	inv.ClientVATNumber = doc.ClientVATNumber
	inv.Currency = doc.Currency
	inv.Notes = doc.Notes
	inv.Number = s.numbers.Generate(ctx, doc.OwnerID.String(), invoice.DefaultNumbering(), time.Now())

	for _, line := range doc.Lines {
		if line.Optional {
			continue
		}
		inv.AddLine(invoice.Line{
			Description:     line.Description,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
			DiscountAmount:  line.DiscountAmount,
			IVARate:         line.IVARate,
			WithholdingRate: line.WithholdingRate,
			ReverseCharge:   line.ReverseCharge,
			Exempt:          line.Exempt,
		})
	}

	totals := s.calc.Compute(ctx, inv.CalcLines(), tax.DocumentParams{
		ClientCountry:   inv.ClientCountry,
		ClientVATNumber: inv.ClientVATNumber,
	})
	inv.ApplyTotals(totals)

	return inv
}

func invoiceDueEvent(inv *invoice.Invoice) *events.Event {
	title := fmt.Sprintf("Invoice %s due", inv.Number)
	return events.New(inv.OwnerID, inv.ID, events.TypeInvoiceDue, title, inv.DueDate)
}

// Duplicate creates a fresh draft copy of a quote with a new number and
// today's dates.
func (s *Service) Duplicate(ctx context.Context, ownerID, docID id.ID) (*Quote, error) {
	src, err := s.GetByID(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}

	copied := New(ownerID, src.ClientID)
	copied.ClientName = src.ClientName
	copied.ClientCountry = src.ClientCountry
	copied.ClientVATNumber = src.ClientVATNumber
	copied.Title = src.Title
	copied.Currency = src.Currency
	copied.Notes = src.Notes
	copied.ValidityDays = src.ValidityDays
	copied.RefreshExpiry()

	for _, line := range src.Lines {
		line.LineID = id.Nil()
		copied.AddLine(line)
	}

	if err := s.Create(ctx, copied); err != nil {
		return nil, err
	}
	return copied, nil
}

// ProcessExpired sweeps the owner's quotes and marks lapsed ones expired.
// Meant to be run from a scheduler once a day.
func (s *Service) ProcessExpired(ctx context.Context, ownerID id.ID, asOf time.Time) (int64, error) {
	n, err := s.repo.MarkExpired(ctx, ownerID, asOf)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info(ctx, "quotes marked expired", "owner_id", ownerID, "count", n)
	}
	return n, nil
}
