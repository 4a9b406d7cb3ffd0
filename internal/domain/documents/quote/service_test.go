package quote

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
	"nexa/internal/domain/documents/invoice"
	"nexa/internal/domain/events"
	"nexa/internal/domain/tax"
)

// --- in-memory fakes ---

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memQuoteRepo struct {
	docs    map[id.ID]*Quote
	numbers map[string]struct{}
	lines   map[id.ID][]Line
}

func newMemQuoteRepo() *memQuoteRepo {
	return &memQuoteRepo{
		docs:    make(map[id.ID]*Quote),
		numbers: make(map[string]struct{}),
		lines:   make(map[id.ID][]Line),
	}
}

func (r *memQuoteRepo) Create(ctx context.Context, doc *Quote) error {
	key := doc.OwnerID.String() + "/" + doc.Number
	if _, taken := r.numbers[key]; taken {
		return apperror.NewDuplicate("quote", "number", doc.Number)
	}
	r.numbers[key] = struct{}{}
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *memQuoteRepo) GetByID(ctx context.Context, ownerID, docID id.ID) (*Quote, error) {
	doc, ok := r.docs[docID]
	if !ok || doc.OwnerID != ownerID {
		return nil, apperror.NewNotFound("quote", docID)
	}
	clone := *doc
	return &clone, nil
}

func (r *memQuoteRepo) GetByNumber(ctx context.Context, ownerID id.ID, number string) (*Quote, error) {
	for _, doc := range r.docs {
		if doc.OwnerID == ownerID && doc.Number == number {
			clone := *doc
			return &clone, nil
		}
	}
	return nil, apperror.NewNotFound("quote", number)
}

func (r *memQuoteRepo) Update(ctx context.Context, doc *Quote) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("quote", doc.ID)
	}
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *memQuoteRepo) Delete(ctx context.Context, ownerID, docID id.ID) error {
	doc, ok := r.docs[docID]
	if !ok || doc.OwnerID != ownerID {
		return apperror.NewNotFound("quote", docID)
	}
	delete(r.numbers, doc.OwnerID.String()+"/"+doc.Number)
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *memQuoteRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	return r.lines[docID], nil
}

func (r *memQuoteRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *memQuoteRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quote], error) {
	out := domain.ListResult[*Quote]{Limit: filter.Limit, Offset: filter.Offset}
	for _, doc := range r.docs {
		if doc.OwnerID == filter.OwnerID {
			clone := *doc
			out.Items = append(out.Items, &clone)
		}
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

func (r *memQuoteRepo) GetForUpdate(ctx context.Context, ownerID, docID id.ID) (*Quote, error) {
	return r.GetByID(ctx, ownerID, docID)
}

func (r *memQuoteRepo) MarkExpired(ctx context.Context, ownerID id.ID, asOf time.Time) (int64, error) {
	var n int64
	for _, doc := range r.docs {
		if doc.OwnerID != ownerID {
			continue
		}
		switch doc.Status {
		case documents.QuoteStatusSent, documents.QuoteStatusViewed:
			if doc.ExpiryDate.Before(asOf) {
				doc.Status = documents.QuoteStatusExpired
				n++
			}
		}
	}
	return n, nil
}

// stubInvoiceRepo records created invoices; conversion only needs the
// write path.
type stubInvoiceRepo struct {
	created []*invoice.Invoice
	lines   map[id.ID][]invoice.Line
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{lines: make(map[id.ID][]invoice.Line)}
}

func (r *stubInvoiceRepo) Create(ctx context.Context, doc *invoice.Invoice) error {
	clone := *doc
	r.created = append(r.created, &clone)
	return nil
}

func (r *stubInvoiceRepo) GetByID(ctx context.Context, ownerID, docID id.ID) (*invoice.Invoice, error) {
	return nil, apperror.NewNotFound("invoice", docID)
}

func (r *stubInvoiceRepo) GetByNumber(ctx context.Context, ownerID id.ID, number string) (*invoice.Invoice, error) {
	return nil, apperror.NewNotFound("invoice", number)
}

func (r *stubInvoiceRepo) Update(ctx context.Context, doc *invoice.Invoice) error { return nil }

func (r *stubInvoiceRepo) Delete(ctx context.Context, ownerID, docID id.ID) error { return nil }

func (r *stubInvoiceRepo) GetLines(ctx context.Context, docID id.ID) ([]invoice.Line, error) {
	return r.lines[docID], nil
}

func (r *stubInvoiceRepo) SaveLines(ctx context.Context, docID id.ID, lines []invoice.Line) error {
	r.lines[docID] = append([]invoice.Line(nil), lines...)
	return nil
}

func (r *stubInvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	return domain.ListResult[*invoice.Invoice]{}, nil
}

func (r *stubInvoiceRepo) GetForUpdate(ctx context.Context, ownerID, docID id.ID) (*invoice.Invoice, error) {
	return nil, apperror.NewNotFound("invoice", docID)
}

func (r *stubInvoiceRepo) MarkOverdue(ctx context.Context, ownerID id.ID, asOf time.Time) (int64, error) {
	return 0, nil
}

type memEvents struct {
	byDoc map[id.ID]*events.Event
}

func newMemEvents() *memEvents {
	return &memEvents{byDoc: make(map[id.ID]*events.Event)}
}

func (r *memEvents) Create(ctx context.Context, event *events.Event) error {
	r.byDoc[event.DocumentID] = event
	return nil
}

func (r *memEvents) UpsertForDocument(ctx context.Context, event *events.Event) error {
	r.byDoc[event.DocumentID] = event
	return nil
}

func (r *memEvents) DeleteByDocument(ctx context.Context, ownerID, documentID id.ID) error {
	delete(r.byDoc, documentID)
	return nil
}

func (r *memEvents) ListRange(ctx context.Context, ownerID id.ID, from, to time.Time) ([]*events.Event, error) {
	return nil, nil
}

// --- fixture ---

type fixture struct {
	svc      *Service
	repo     *memQuoteRepo
	invoices *stubInvoiceRepo
	events   *memEvents
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newMemQuoteRepo(),
		invoices: newStubInvoiceRepo(),
		events:   newMemEvents(),
	}
	f.svc = NewService(
		f.repo,
		f.invoices,
		f.events,
		tax.NewCalculator(tax.NewIVAEngine()),
		&numbering.MockGenerator{},
		passTx{},
	)
	return f
}

func draftQuote(t *testing.T, f *fixture, ownerID id.ID) *Quote {
	t.Helper()
	doc := New(ownerID, id.New())
	doc.ClientName = "ACME Srl"
	doc.ClientCountry = "IT"
	doc.Title = "Sviluppo gestionale"
	doc.AddLine(Line{
		Description: "Analisi",
		Quantity:    types.MustMoney("1"),
		UnitPrice:   types.MustMoney("800"),
		IVARate:     tax.RateStandard,
	})
	doc.AddLine(Line{
		Description: "Manutenzione (primo anno)",
		Quantity:    types.MustMoney("1"),
		UnitPrice:   types.MustMoney("200"),
		IVARate:     tax.RateStandard,
		Optional:    true,
	})
	if err := f.svc.Create(context.Background(), doc); err != nil {
		t.Fatalf("create: %v", err)
	}
	return doc
}

// accept walks draft -> sent -> accepted.
func accept(t *testing.T, f *fixture, ownerID id.ID, docID id.ID) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.svc.ChangeStatus(ctx, ownerID, docID, documents.QuoteStatusSent); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := f.svc.ChangeStatus(ctx, ownerID, docID, documents.QuoteStatusAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
}

// --- tests ---

func TestCreateComputesExpiryAndTotals(t *testing.T) {
	f := newFixture()
	doc := draftQuote(t, f, id.New())

	if doc.Number == "" {
		t.Fatal("number was not assigned")
	}
	want := doc.IssueDate.AddDate(0, 0, DefaultValidityDays)
	if !doc.ExpiryDate.Equal(want) {
		t.Errorf("expiry = %s, want %s", doc.ExpiryDate, want)
	}

	// Optional positions stay out of the totals.
	if !doc.Subtotal.Equal(types.MustMoney("800")) {
		t.Errorf("subtotal = %s, want 800", doc.Subtotal)
	}
	if !doc.TotalAmount.Equal(types.MustMoney("976")) {
		t.Errorf("total = %s, want 976", doc.TotalAmount)
	}
	if _, ok := f.events.byDoc[doc.ID]; !ok {
		t.Error("expiry event was not created")
	}
}

func TestChangeStatusAcceptedSetsTimestamp(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	doc := draftQuote(t, f, ownerID)

	accept(t, f, ownerID, doc.ID)

	stored, _ := f.repo.GetByID(context.Background(), ownerID, doc.ID)
	if stored.AcceptedAt == nil {
		t.Fatal("AcceptedAt was not set")
	}
}

func TestChangeStatusRejectsConverted(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	doc := draftQuote(t, f, ownerID)

	_, err := f.svc.ChangeStatus(context.Background(), ownerID, doc.ID, documents.QuoteStatusConverted)
	if !apperror.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestConvertRequiresAcceptance(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()
	doc := draftQuote(t, f, ownerID)

	if _, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.QuoteStatusSent); err != nil {
		t.Fatalf("send: %v", err)
	}

	_, err := f.svc.ConvertToInvoice(ctx, ownerID, doc.ID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeQuoteNotAccepted {
		t.Fatalf("got %v, want %s", err, apperror.CodeQuoteNotAccepted)
	}
	if len(f.invoices.created) != 0 {
		t.Error("no invoice must be created for an unaccepted quote")
	}
}

func TestConvertToInvoice(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	doc := draftQuote(t, f, ownerID)
	accept(t, f, ownerID, doc.ID)

	inv, err := f.svc.ConvertToInvoice(ctx, ownerID, doc.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if inv.Status != documents.InvoiceStatusDraft {
		t.Errorf("invoice status = %s, want draft", inv.Status)
	}
	if inv.ClientID != doc.ClientID {
		t.Error("client reference was not carried over")
	}

	// Optional positions the client never accepted are dropped.
	if len(inv.Lines) != 1 {
		t.Fatalf("invoice lines = %d, want 1", len(inv.Lines))
	}
	if !inv.TotalAmount.Equal(types.MustMoney("976")) {
		t.Errorf("invoice total = %s, want 976", inv.TotalAmount)
	}

	stored, _ := f.repo.GetByID(ctx, ownerID, doc.ID)
	if stored.Status != documents.QuoteStatusConverted {
		t.Errorf("quote status = %s, want converted", stored.Status)
	}
	if stored.ConvertedInvoiceID == nil || *stored.ConvertedInvoiceID != inv.ID {
		t.Error("converted invoice reference was not recorded")
	}

	// A converted quote is terminal: converting again must fail.
	if _, err := f.svc.ConvertToInvoice(ctx, ownerID, doc.ID); err == nil {
		t.Fatal("second conversion must fail")
	}
}

func TestUpdateOnlyEditableStatuses(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	doc := draftQuote(t, f, ownerID)

	// Draft quotes are editable.
	doc.Notes = "updated"
	if err := f.svc.Update(ctx, doc); err != nil {
		t.Fatalf("update draft: %v", err)
	}

	if _, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.QuoteStatusSent); err != nil {
		t.Fatalf("send: %v", err)
	}
	stored, _ := f.repo.GetByID(ctx, ownerID, doc.ID)
	if err := f.svc.Update(ctx, stored); !apperror.IsValidation(err) {
		t.Fatalf("update sent quote: got %v, want business rule error", err)
	}

	// revision_requested reopens editing.
	if _, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.QuoteStatusRevisionRequested); err != nil {
		t.Fatalf("request revision: %v", err)
	}
	stored, _ = f.repo.GetByID(ctx, ownerID, doc.ID)
	stored.Notes = "revised"
	if err := f.svc.Update(ctx, stored); err != nil {
		t.Fatalf("update after revision request: %v", err)
	}
}

func TestProcessExpired(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	doc := draftQuote(t, f, ownerID)
	if _, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.QuoteStatusSent); err != nil {
		t.Fatalf("send: %v", err)
	}

	n, err := f.svc.ProcessExpired(ctx, ownerID, doc.ExpiryDate.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("process expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("marked = %d, want 1", n)
	}
	stored, _ := f.repo.GetByID(ctx, ownerID, doc.ID)
	if stored.Status != documents.QuoteStatusExpired {
		t.Errorf("status = %s, want expired", stored.Status)
	}

	// An expired quote can be re-sent with a fresh validity window.
	if _, err := f.svc.ChangeStatus(ctx, ownerID, doc.ID, documents.QuoteStatusSent); err != nil {
		t.Fatalf("re-send expired quote: %v", err)
	}
}

func TestDuplicateDropsAcceptanceState(t *testing.T) {
	f := newFixture()
	ownerID := id.New()
	ctx := context.Background()

	src := draftQuote(t, f, ownerID)
	accept(t, f, ownerID, src.ID)

	copied, err := f.svc.Duplicate(ctx, ownerID, src.ID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	if copied.Status != documents.QuoteStatusDraft {
		t.Errorf("status = %s, want draft", copied.Status)
	}
	if copied.AcceptedAt != nil {
		t.Error("duplicate must not carry acceptance")
	}
	if copied.Number == src.Number {
		t.Error("duplicate kept the source number")
	}
	if len(copied.Lines) != len(f.repo.lines[src.ID]) {
		t.Errorf("lines = %d, want %d", len(copied.Lines), len(f.repo.lines[src.ID]))
	}
}

func TestValidateExpiryBeforeIssue(t *testing.T) {
	doc := New(id.New(), id.New())
	doc.ExpiryDate = doc.IssueDate.AddDate(0, 0, -1)

	if err := doc.Validate(context.Background()); !apperror.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}
