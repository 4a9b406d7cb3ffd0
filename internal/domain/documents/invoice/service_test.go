package invoice

import (
	"context"
	"testing"
	"time"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
	"nexa/internal/core/numbering"
	"nexa/internal/core/types"
	"nexa/internal/domain"
	"nexa/internal/domain/documents"
	"nexa/internal/domain/events"
	"nexa/internal/domain/tax"
)

// --- in-memory fakes ---

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memRepo is an in-memory Repository with (owner, number) uniqueness.
// Operations append to ops so tests can assert ordering across repos.
type memRepo struct {
	docs    map[id.ID]*Invoice
	numbers map[string]struct{}
	lines   map[id.ID][]Line
	ops     *[]string
}

func newMemRepo(ops *[]string) *memRepo {
	return &memRepo{
		docs:    make(map[id.ID]*Invoice),
		numbers: make(map[string]struct{}),
		lines:   make(map[id.ID][]Line),
		ops:     ops,
	}
}

func (r *memRepo) numberKey(ownerID id.ID, number string) string {
	return ownerID.String() + "/" + number
}

func (r *memRepo) Create(ctx context.Context, doc *Invoice) error {
	key := r.numberKey(doc.OwnerID, doc.Number)
	if _, taken := r.numbers[key]; taken {
		return apperror.NewDuplicate("invoice", "number", doc.Number)
	}
	r.numbers[key] = struct{}{}
	clone := *doc
	r.docs[doc.ID] = &clone
	*r.ops = append(*r.ops, "invoice.create")
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, ownerID, docID id.ID) (*Invoice, error) {
	doc, ok := r.docs[docID]
	if !ok || doc.OwnerID != ownerID {
		return nil, apperror.NewNotFound("invoice", docID)
	}
	clone := *doc
	return &clone, nil
}

func (r *memRepo) GetByNumber(ctx context.Context, ownerID id.ID, number string) (*Invoice, error) {
	for _, doc := range r.docs {
		if doc.OwnerID == ownerID && doc.Number == number {
			clone := *doc
			return &clone, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", number)
}

func (r *memRepo) Update(ctx context.Context, doc *Invoice) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("invoice", doc.ID)
	}
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *memRepo) Delete(ctx context.Context, ownerID, docID id.ID) error {
	doc, ok := r.docs[docID]
	if !ok || doc.OwnerID != ownerID {
		return apperror.NewNotFound("invoice", docID)
	}
	delete(r.numbers, r.numberKey(doc.OwnerID, doc.Number))
	delete(r.docs, docID)
	delete(r.lines, docID)
	*r.ops = append(*r.ops, "invoice.delete")
	return nil
}

func (r *memRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	return r.lines[docID], nil
}

func (r *memRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *memRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	out := domain.ListResult[*Invoice]{Limit: filter.Limit, Offset: filter.Offset}
	for _, doc := range r.docs {
		if doc.OwnerID == filter.OwnerID {
			clone := *doc
			out.Items = append(out.Items, &clone)
		}
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, ownerID, docID id.ID) (*Invoice, error) {
	return r.GetByID(ctx, ownerID, docID)
}

func (r *memRepo) MarkOverdue(ctx context.Context, ownerID id.ID, asOf time.Time) (int64, error) {
	var n int64
	for _, doc := range r.docs {
		if doc.OwnerID != ownerID {
			continue
		}
		switch doc.Status {
		case documents.InvoiceStatusIssued, documents.InvoiceStatusSent:
			if doc.DueDate.Before(asOf) {
				doc.Status = documents.InvoiceStatusOverdue
				n++
			}
		}
	}
	return n, nil
}

type memPayments struct {
	payments []*Payment
}

func (r *memPayments) Create(ctx context.Context, payment *Payment) error {
	clone := *payment
	r.payments = append(r.payments, &clone)
	return nil
}

func (r *memPayments) ListByInvoice(ctx context.Context, ownerID, invoiceID id.ID) ([]*Payment, error) {
	var out []*Payment
	for _, p := range r.payments {
		if p.OwnerID == ownerID && p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memEvents struct {
	byDoc map[id.ID]*events.Event
	ops   *[]string
}

func newMemEvents(ops *[]string) *memEvents {
	return &memEvents{byDoc: make(map[id.ID]*events.Event), ops: ops}
}

func (r *memEvents) Create(ctx context.Context, event *events.Event) error {
	r.byDoc[event.DocumentID] = event
	*r.ops = append(*r.ops, "event.create")
	return nil
}

func (r *memEvents) UpsertForDocument(ctx context.Context, event *events.Event) error {
	r.byDoc[event.DocumentID] = event
	*r.ops = append(*r.ops, "event.upsert")
	return nil
}

func (r *memEvents) DeleteByDocument(ctx context.Context, ownerID, documentID id.ID) error {
	delete(r.byDoc, documentID)
	*r.ops = append(*r.ops, "event.delete")
	return nil
}

func (r *memEvents) ListRange(ctx context.Context, ownerID id.ID, from, to time.Time) ([]*events.Event, error) {
	var out []*events.Event
	for _, e := range r.byDoc {
		if e.OwnerID == ownerID && !e.StartsAt.Before(from) && e.StartsAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- fixture ---

type fixture struct {
	svc      *Service
	repo     *memRepo
	payments *memPayments
	events   *memEvents
	ops      []string
}

func newFixture() *fixture {
	f := &fixture{}
	f.repo = newMemRepo(&f.ops)
	f.payments = &memPayments{}
	f.events = newMemEvents(&f.ops)
	f.svc = NewService(
		f.repo,
		f.payments,
		f.events,
		tax.NewCalculator(tax.NewIVAEngine()),
		&numbering.MockGenerator{},
		passTx{},
	)
	return f
}

func draftInvoice(t *testing.T, f *fixture, ownerID id.ID) *Invoice {
	t.Helper()
	doc := New(ownerID, id.New())
	doc.ClientName = "ACME Srl"
	doc.ClientCountry = "IT"
	doc.AddLine(Line{
		Description: "Consulenza",
		Quantity:    types.MustMoney("1"),
		UnitPrice:   types.MustMoney("1000"),
		IVARate:     tax.RateStandard,
	})
	if err := f.svc.Create(context.Background(), doc); err != nil {
		t.Fatalf("create: %v", err)
	}
	return doc
}

// --- tests ---

func TestCreateAssignsNumberAndTotals(t *testing.T) {
	f := newFixture()
	ownerID := id.New()

	doc := draftInvoice(t, f, ownerID)

	if doc.Number == "" {
		t.Fatal("number was not assigned")
	}
	if doc.Status != documents.InvoiceStatusDraft {
		t.Errorf("status = %s, want draft", doc.Status)
	}
	if doc.CalculationMethod != tax.MethodEngine {
		t.Errorf("method = %s, want engine", doc.CalculationMethod)
	}
	if !doc.TotalAmount.Equal(types.MustMoney("1220")) {
		t.Errorf("total = %s, want 1220", doc.TotalAmount)
	}
	if _, ok := f.events.byDoc[doc.ID]; !ok {
		t.Error("due-date event was not created")
	}
}

func TestCreateRejectsNonDraft(t *testing.T) {
	f := newFixture()

	doc := New(id.New(), id.New())
	doc.Status = documents.InvoiceStatusIssued

	err := f.svc.Create(context.Background(), doc)
	if !apperror.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestCreateRetriesOnNumberConflict(t *testing.T) {
	f := newFixture()
	ownerID := id.New()

	// Occupy the number the generator will produce first.
	cfg := DefaultNumbering()
	taken := cfg.Format(time.Now(), 1)
	f.repo.numbers[f.repo.numberKey(ownerID, taken)] = struct{}{}

	doc := draftInvoice(t, f, ownerID)

	if doc.Number == taken {
		t.Fatalf("conflicting number %q was not regenerated", taken)
	}
	if _, ok := f.repo.docs[doc.ID]; !ok {
		t.Fatal("invoice was not persisted after retry")
	}
}

func TestCreateKeepsCallerNumber(t *testing.T) {
	f := newFixture()
	ownerID := id.New()

	first := New(ownerID, id.New())
	first.Number = "FATT-MANUAL-1"
	if err := f.svc.Create(context.Background(), first); err != nil {
		t.Fatalf("create: %v", err)
	}

	// The same caller-supplied number must conflict, never be regenerated.
	second := New(ownerID, id.New())
	second.Number = "FATT-MANUAL-1"
	err := f.svc.Create(context.Background(), second)
	if !apperror.IsDuplicate(err) {
		t.Fatalf("got %v, want duplicate error", err)
	}
}

func TestChangeStatusFollowsLifecycle(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	doc := draftInvoice(t, f, ownerID)

	updated, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.InvoiceStatusIssued)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if updated.Status != documents.InvoiceStatusIssued {
		t.Errorf("status = %s, want issued", updated.Status)
	}

	_, err = f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.InvoiceStatusDraft)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeIllegalTransition {
		t.Fatalf("got %v, want %s", err, apperror.CodeIllegalTransition)
	}
}

func TestChangeStatusRejectsPartiallyPaid(t *testing.T) {
	f := newFixture()
	ownerID := id.New()

	doc := draftInvoice(t, f, ownerID)

	_, err := f.svc.ChangeStatus(context.Background(), ownerID, doc.ID, documents.InvoiceStatusPartiallyPaid)
	if !apperror.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestRecordPaymentPartialThenFull(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	doc := draftInvoice(t, f, ownerID) // total 1220
	if _, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.InvoiceStatusIssued); err != nil {
		t.Fatalf("issue: %v", err)
	}

	after, err := f.svc.RecordPayment(ctx, ownerID, doc.ID, types.MustMoney("720"), time.Now(), "bank_transfer", "")
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if after.Status != documents.InvoiceStatusPartiallyPaid {
		t.Errorf("status = %s, want partially_paid", after.Status)
	}
	if !after.Balance().Equal(types.MustMoney("500")) {
		t.Errorf("balance = %s, want 500", after.Balance())
	}

	after, err = f.svc.RecordPayment(ctx, ownerID, doc.ID, types.MustMoney("500"), time.Now(), "bank_transfer", "")
	if err != nil {
		t.Fatalf("final payment: %v", err)
	}
	if after.Status != documents.InvoiceStatusPaid {
		t.Errorf("status = %s, want paid", after.Status)
	}
	if !after.Balance().IsZero() {
		t.Errorf("balance = %s, want 0", after.Balance())
	}
	if len(f.payments.payments) != 2 {
		t.Errorf("payments recorded = %d, want 2", len(f.payments.payments))
	}
}

func TestRecordPaymentOverpaymentSettles(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	doc := draftInvoice(t, f, ownerID)
	if _, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.InvoiceStatusIssued); err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Paying more than the total settles the invoice; the surplus shows
	// as a negative balance.
	updated, err := f.svc.RecordPayment(ctx, ownerID, doc.ID, types.MustMoney("1300"), time.Now(), "", "")
	if err != nil {
		t.Fatalf("overpayment: %v", err)
	}
	if updated.Status != documents.InvoiceStatusPaid {
		t.Errorf("status = %s, want %s", updated.Status, documents.InvoiceStatusPaid)
	}
	if !updated.Balance().Equal(types.MustMoney("-80")) {
		t.Errorf("balance = %s, want -80", updated.Balance())
	}
	if len(f.payments.payments) != 1 {
		t.Errorf("payments recorded = %d, want 1", len(f.payments.payments))
	}
}

func TestRecordPaymentRejectsNonPayableStatus(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	doc := draftInvoice(t, f, ownerID)
	if _, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.InvoiceStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := f.svc.RecordPayment(ctx, ownerID, doc.ID, types.MustMoney("10"), time.Now(), "", "")
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeBusinessRule {
		t.Fatalf("got %v, want %s", err, apperror.CodeBusinessRule)
	}
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture()
	ownerID := id.New()

	doc := draftInvoice(t, f, ownerID)

	_, err := f.svc.RecordPayment(context.Background(), ownerID, doc.ID, types.Zero(), time.Now(), "", "")
	if !apperror.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestUpdateRejectsTerminalAndStatusChange(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	doc := draftInvoice(t, f, ownerID)

	// Status changes must go through ChangeStatus.
	edited := *doc
	edited.Status = documents.InvoiceStatusIssued
	if err := f.svc.Update(ctx, &edited); !apperror.IsValidation(err) {
		t.Fatalf("status change via update: got %v, want validation error", err)
	}

	if _, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.InvoiceStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	stored, _ := f.repo.GetByID(ctx, ownerID, doc.ID)
	if err := f.svc.Update(ctx, stored); !apperror.IsValidation(err) {
		t.Fatalf("update of cancelled invoice: got %v, want business rule error", err)
	}
}

func TestDeleteRemovesEventFirst(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	doc := draftInvoice(t, f, ownerID)
	f.ops = f.ops[:0]

	if err := f.svc.Delete(ctx, ownerID, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(f.ops) != 2 || f.ops[0] != "event.delete" || f.ops[1] != "invoice.delete" {
		t.Fatalf("operation order = %v, want [event.delete invoice.delete]", f.ops)
	}
	if _, err := f.svc.GetByID(ctx, ownerID, doc.ID); !apperror.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestDuplicateCreatesFreshDraft(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	src := draftInvoice(t, f, ownerID)
	if _, err := f.svc.ChangeStatus(ctx, ownerID, src.ID, documents.InvoiceStatusIssued); err != nil {
		t.Fatalf("issue: %v", err)
	}

	copied, err := f.svc.Duplicate(ctx, ownerID, src.ID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	if copied.ID == src.ID {
		t.Error("duplicate kept the source identity")
	}
	if copied.Number == src.Number {
		t.Error("duplicate kept the source number")
	}
	if copied.Status != documents.InvoiceStatusDraft {
		t.Errorf("status = %s, want draft", copied.Status)
	}
	if !copied.PaidAmount.IsZero() {
		t.Errorf("paid amount = %s, want 0", copied.PaidAmount)
	}
	if len(copied.Lines) != len(src.Lines) {
		t.Errorf("lines = %d, want %d", len(copied.Lines), len(src.Lines))
	}
	if !copied.TotalAmount.Equal(src.TotalAmount) {
		t.Errorf("total = %s, want %s", copied.TotalAmount, src.TotalAmount)
	}
}

func TestProcessOverdue(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	doc := draftInvoice(t, f, ownerID)
	if _, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.InvoiceStatusIssued); err != nil {
		t.Fatalf("issue: %v", err)
	}

	n, err := f.svc.ProcessOverdue(ctx, ownerID, doc.DueDate.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("process overdue: %v", err)
	}
	if n != 1 {
		t.Fatalf("marked = %d, want 1", n)
	}
	stored, _ := f.repo.GetByID(ctx, ownerID, doc.ID)
	if stored.Status != documents.InvoiceStatusOverdue {
		t.Errorf("status = %s, want overdue", stored.Status)
	}
}

func TestListRequiresOwner(t *testing.T) {
	f := newFixture()

	_, err := f.svc.List(context.Background(), ListFilter{})
	if !apperror.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestOwnerScoping(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := draftInvoice(t, f, id.New())

	if _, err := f.svc.GetByID(ctx, id.New(), doc.ID); !apperror.IsNotFound(err) {
		t.Fatalf("foreign owner read: got %v, want not found", err)
	}
}

func TestValidateRequiresDueDate(t *testing.T) {
	doc := New(id.New(), id.New())
	doc.DueDate = time.Time{}

	err := doc.Validate(context.Background())
	if !apperror.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestHooksCanVetoCreate(t *testing.T) {
	f := newFixture()

	f.svc.Hooks().On(domain.BeforeCreate, func(ctx context.Context, doc *Invoice) error {
		return apperror.NewForbidden("vetoed")
	})

	err := f.svc.Create(context.Background(), New(id.New(), id.New()))
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeForbidden {
		t.Fatalf("got %v, want %s", err, apperror.CodeForbidden)
	}
}
