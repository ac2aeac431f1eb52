package documents

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ledgerly-backend/internal/cashflow"
	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/shared/storage/object/local"
	"ledgerly-backend/internal/usage"
	"ledgerly-backend/review/model"
	"ledgerly-backend/review/status"
)

type fakeIngestor struct {
	calls chan string
}

func (f *fakeIngestor) ProcessDocument(ctx context.Context, workspaceID, documentID, runID string) error {
	f.calls <- documentID
	return nil
}

type testEnv struct {
	svc      *Service
	repo     *MemoryRepo
	contacts *contacts.Service
	cashflow *cashflow.Service
	usage    *usage.Service
	ingestor *fakeIngestor
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	repo := NewMemoryRepo()
	contactSvc := contacts.NewService(contacts.NewMemoryRepo())
	cashflowSvc := cashflow.NewService(cashflow.NewMemoryRepo())
	usageSvc := usage.NewService(0)
	ingestor := &fakeIngestor{calls: make(chan string, 8)}

	svc := &Service{
		Store:    local.New(t.TempDir()),
		Repo:     repo,
		Contacts: contactSvc,
		Cashflow: cashflowSvc,
		Usage:    usageSvc,
		Ingestor: ingestor,
	}
	return testEnv{svc: svc, repo: repo, contacts: contactSvc, cashflow: cashflowSvc, usage: usageSvc, ingestor: ingestor}
}

func invoiceData(t *testing.T) model.Editable {
	t.Helper()
	data := model.EmptyFor(model.DocTypeInvoice)
	var err error
	for _, step := range []struct {
		field model.Field
		value model.Value
	}{
		{model.FieldInvoiceNumber, model.Text("INV-2042")},
		{model.FieldIssueDate, model.DateValue(model.DateOf(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))},
		{model.FieldDueDate, model.DateValue(model.DateOf(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)))},
		{model.FieldCurrency, model.Text("EUR")},
		{model.FieldNetAmount, model.Money(10000)},
		{model.FieldVATAmount, model.Money(2100)},
		{model.FieldGrossAmount, model.Money(12100)},
	} {
		data, err = data.Set(step.field, step.value)
		if err != nil {
			t.Fatalf("set %s: %v", step.field, err)
		}
	}
	return data
}

func seedDocument(t *testing.T, env testEnv, workspaceID string) Document {
	t.Helper()
	doc := Document{
		ID:          "doc-1",
		WorkspaceID: workspaceID,
		UploadedBy:  "user-1",
		FileName:    "invoice.pdf",
		ContentType: "application/pdf",
		SizeBytes:   256,
		StorageKey:  "unused",
		CreatedAt:   time.Now().UTC(),
	}
	if err := env.repo.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	completed := time.Now().UTC()
	run := IngestionRun{
		ID:          "run-1",
		DocumentID:  doc.ID,
		Status:      model.IngestionSucceeded,
		CompletedAt: &completed,
		CreatedAt:   completed,
	}
	if err := env.repo.CreateRun(context.Background(), run); err != nil {
		t.Fatalf("create run: %v", err)
	}
	return doc
}

func seedDraft(t *testing.T, env testEnv, documentID string, draft Draft) Draft {
	t.Helper()
	draft.DocumentID = documentID
	if draft.ID == "" {
		draft.ID = "draft-1"
	}
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}
	stored, err := env.repo.UpsertDraft(context.Background(), draft)
	if err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	return stored
}

func TestUploadCreatesPendingRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.svc.Upload(ctx, "ws-1", "user-1", "march-invoice.pdf", bytes.NewReader([]byte("%PDF-1.7 fake")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if rec.Document.ID == "" || rec.Document.StorageKey == "" {
		t.Fatalf("expected stored document, got %+v", rec.Document)
	}
	if rec.Run == nil || rec.Run.Status != model.IngestionPending {
		t.Fatalf("expected pending run, got %+v", rec.Run)
	}
	if got := rec.Status(); got != status.Processing {
		t.Fatalf("expected processing status for pending run, got %s", got)
	}

	select {
	case docID := <-env.ingestor.calls:
		if docID != rec.Document.ID {
			t.Fatalf("ingestor called for %q, want %q", docID, rec.Document.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inline ingestor was never called")
	}

	u, err := env.usage.Get(ctx, "ws-1")
	if err != nil {
		t.Fatalf("usage get: %v", err)
	}
	if u.Used != 1 {
		t.Fatalf("expected one consumed document, got %d", u.Used)
	}

	doc, rc, err := env.svc.OpenFile(ctx, "ws-1", rec.Document.ID)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer rc.Close()
	if doc.FileName != "march-invoice.pdf" {
		t.Fatalf("unexpected file name %q", doc.FileName)
	}
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Upload(context.Background(), "ws-1", "user-1", "notes.docx", strings.NewReader("hello"))
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestUploadHonorsQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.usage.Get(ctx, "ws-1")
	if err != nil {
		t.Fatalf("usage get: %v", err)
	}
	if _, err := env.usage.Consume(ctx, "ws-1", u.Limit); err != nil {
		t.Fatalf("exhaust quota: %v", err)
	}

	_, err = env.svc.Upload(ctx, "ws-1", "user-1", "late.pdf", strings.NewReader("pdf"))
	if !errors.Is(err, usage.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestUpdateDraftRecomputesStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedDocument(t, env, "ws-1")
	seeded := seedDraft(t, env, "doc-1", Draft{
		DocType:    model.DocTypeInvoice,
		Status:     model.DraftNeedsInput,
		Data:       model.EmptyFor(model.DocTypeInvoice),
		Confidence: 0.42,
	})

	contact, err := env.contacts.Create(ctx, "ws-1", contacts.Contact{Name: "Acme GmbH"})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	if _, err := env.svc.BindContact(ctx, "ws-1", "doc-1", contact.ID); err != nil {
		t.Fatalf("bind contact: %v", err)
	}

	rec, err := env.svc.UpdateDraft(ctx, "ws-1", "doc-1", invoiceData(t), seeded.Version+1)
	if err != nil {
		t.Fatalf("update draft: %v", err)
	}
	if rec.Draft.Status != model.DraftReady {
		t.Fatalf("expected ready after complete save, got %s", rec.Draft.Status)
	}
	if rec.Draft.Confidence != 1 {
		t.Fatalf("expected human-saved draft to be fully trusted, got %v", rec.Draft.Confidence)
	}
	if got := rec.Status(); got != status.Ready {
		t.Fatalf("expected derived ready, got %s", got)
	}

	// A save based on the old version must fail.
	_, err = env.svc.UpdateDraft(ctx, "ws-1", "doc-1", invoiceData(t), seeded.Version)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestUpdateDraftFinalizedGuard(t *testing.T) {
	env := newTestEnv(t)
	seedDocument(t, env, "ws-1")
	seedDraft(t, env, "doc-1", Draft{
		DocType:    model.DocTypeInvoice,
		Status:     model.DraftConfirmed,
		Data:       invoiceData(t),
		Confidence: 1,
	})

	_, err := env.svc.UpdateDraft(context.Background(), "ws-1", "doc-1", invoiceData(t), 1)
	if !errors.Is(err, ErrDraftFinalized) {
		t.Fatalf("expected ErrDraftFinalized, got %v", err)
	}
}

func TestBindAndClearContactKeepsSuggestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedDocument(t, env, "ws-1")
	seedDraft(t, env, "doc-1", Draft{
		DocType:    model.DocTypeInvoice,
		Status:     model.DraftNeedsInput,
		Data:       invoiceData(t),
		Confidence: 0.9,
		Suggestion: &model.Suggestion{Name: "Acme GmbH", VATNumber: "DE123456789", Confidence: 0.95, Reason: "vat_match"},
	})

	contact, err := env.contacts.Create(ctx, "ws-1", contacts.Contact{Name: "Acme GmbH", VATNumber: "DE123456789"})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	rec, err := env.svc.BindContact(ctx, "ws-1", "doc-1", contact.ID)
	if err != nil {
		t.Fatalf("bind contact: %v", err)
	}
	if rec.Draft.LinkedContactID != contact.ID {
		t.Fatalf("expected linked contact %q, got %q", contact.ID, rec.Draft.LinkedContactID)
	}
	if rec.Draft.Suggestion == nil {
		t.Fatal("binding must not discard the suggestion")
	}
	if rec.Draft.Status != model.DraftReady {
		t.Fatalf("expected ready once contact is linked, got %s", rec.Draft.Status)
	}

	rec, err = env.svc.ClearContact(ctx, "ws-1", "doc-1")
	if err != nil {
		t.Fatalf("clear contact: %v", err)
	}
	if rec.Draft.LinkedContactID != "" {
		t.Fatalf("expected cleared contact, got %q", rec.Draft.LinkedContactID)
	}
	if rec.Draft.Suggestion == nil || rec.Draft.Suggestion.Name != "Acme GmbH" {
		t.Fatalf("expected suggestion to survive the clear, got %+v", rec.Draft.Suggestion)
	}
	if rec.Draft.Status != model.DraftNeedsInput {
		t.Fatalf("expected needs_input without contact, got %s", rec.Draft.Status)
	}

	_, err = env.svc.BindContact(ctx, "ws-1", "doc-1", "no-such-contact")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown contact, got %v", err)
	}
}

func TestConfirmBooksCashflowEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedDocument(t, env, "ws-1")
	seedDraft(t, env, "doc-1", Draft{
		DocType:    model.DocTypeInvoice,
		Status:     model.DraftReady,
		Data:       invoiceData(t),
		Confidence: 0.93,
	})

	contact, err := env.contacts.Create(ctx, "ws-1", contacts.Contact{Name: "Acme GmbH"})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	if _, err := env.svc.BindContact(ctx, "ws-1", "doc-1", contact.ID); err != nil {
		t.Fatalf("bind contact: %v", err)
	}

	entryID, rec, err := env.svc.Confirm(ctx, "ws-1", "doc-1")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if entryID == "" {
		t.Fatal("expected a booked entry id")
	}
	if rec.Draft.Status != model.DraftConfirmed {
		t.Fatalf("expected confirmed draft, got %s", rec.Draft.Status)
	}
	if got := rec.Status(); got != status.Ready {
		t.Fatalf("expected derived ready after confirm, got %s", got)
	}

	entry, err := env.cashflow.Repo.GetByDocument(ctx, "ws-1", "doc-1")
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if entry.Direction != cashflow.DirectionIn {
		t.Fatalf("invoices book money in, got %s", entry.Direction)
	}
	if entry.AmountCents != 12100 {
		t.Fatalf("expected gross amount 12100, got %d", entry.AmountCents)
	}
	if entry.ContactID != contact.ID {
		t.Fatalf("expected entry bound to contact %q, got %q", contact.ID, entry.ContactID)
	}
	if entry.Description != "INV-2042" {
		t.Fatalf("expected invoice number as description, got %q", entry.Description)
	}
	if got := entry.BookedOn.Format("2006-01-02"); got != "2026-03-01" {
		t.Fatalf("expected booking on the issue date, got %s", got)
	}

	// Confirming again returns the same entry without booking a second one.
	againID, _, err := env.svc.Confirm(ctx, "ws-1", "doc-1")
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if againID != entryID {
		t.Fatalf("expected idempotent confirm, got %q vs %q", againID, entryID)
	}
	entries, err := env.cashflow.List(ctx, "ws-1", time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
}

func TestConfirmValidationGate(t *testing.T) {
	env := newTestEnv(t)
	seedDocument(t, env, "ws-1")
	seedDraft(t, env, "doc-1", Draft{
		DocType:    model.DocTypeInvoice,
		Status:     model.DraftNeedsInput,
		Data:       invoiceData(t),
		Confidence: 0.93,
	})

	// Complete data but no linked contact: invoices must not book.
	_, _, err := env.svc.Confirm(context.Background(), "ws-1", "doc-1")
	if !errors.Is(err, ErrNotConfirmable) {
		t.Fatalf("expected ErrNotConfirmable, got %v", err)
	}
	if !strings.Contains(err.Error(), "contact") {
		t.Fatalf("expected the contact issue in the message, got %q", err.Error())
	}
}

func TestRejectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedDocument(t, env, "ws-1")
	seedDraft(t, env, "doc-1", Draft{
		DocType:    model.DocTypeInvoice,
		Status:     model.DraftNeedsInput,
		Data:       model.EmptyFor(model.DocTypeInvoice),
		Confidence: 0.3,
	})

	_, err := env.svc.Reject(ctx, "ws-1", "doc-1", "because")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown reason, got %v", err)
	}

	rec, err := env.svc.Reject(ctx, "ws-1", "doc-1", model.RejectDuplicate)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rec.Draft.Status != model.DraftRejected || rec.Draft.RejectReason != "duplicate" {
		t.Fatalf("unexpected draft after reject: %+v", rec.Draft)
	}
	if got := rec.Status(); got != status.Ready {
		t.Fatalf("rejected documents are settled, expected ready, got %s", got)
	}

	// Rejecting again is a no-op; confirming a rejected draft is refused.
	if _, err := env.svc.Reject(ctx, "ws-1", "doc-1", model.RejectOther); err != nil {
		t.Fatalf("second reject: %v", err)
	}
	again, err := env.repo.GetDraft(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if again.RejectReason != "duplicate" {
		t.Fatalf("second reject must not overwrite the reason, got %q", again.RejectReason)
	}
	if _, _, err := env.svc.Confirm(ctx, "ws-1", "doc-1"); !errors.Is(err, ErrDraftFinalized) {
		t.Fatalf("expected ErrDraftFinalized, got %v", err)
	}
}

func TestReprocessGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := seedDocument(t, env, "ws-1")

	pending := IngestionRun{ID: "run-2", DocumentID: doc.ID, Status: model.IngestionPending, CreatedAt: time.Now().UTC().Add(time.Second)}
	if err := env.repo.CreateRun(ctx, pending); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if _, err := env.svc.Reprocess(ctx, "ws-1", doc.ID); !errors.Is(err, ErrIngestionInProgress) {
		t.Fatalf("expected ErrIngestionInProgress, got %v", err)
	}

	pending.Status = model.IngestionFailed
	if err := env.repo.UpdateRun(ctx, pending); err != nil {
		t.Fatalf("update run: %v", err)
	}

	rec, err := env.svc.Reprocess(ctx, "ws-1", doc.ID)
	if err != nil {
		t.Fatalf("reprocess: %v", err)
	}
	if rec.Run == nil || rec.Run.Status != model.IngestionPending {
		t.Fatalf("expected fresh pending run, got %+v", rec.Run)
	}
	select {
	case <-env.ingestor.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("reprocess never reached the ingestor")
	}

	seedDraft(t, env, doc.ID, Draft{DocType: model.DocTypeInvoice, Status: model.DraftConfirmed, Data: invoiceData(t), Confidence: 1})
	latest, err := env.repo.GetLatestRun(ctx, doc.ID)
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	latest.Status = model.IngestionSucceeded
	if err := env.repo.UpdateRun(ctx, latest); err != nil {
		t.Fatalf("settle run: %v", err)
	}
	if _, err := env.svc.Reprocess(ctx, "ws-1", doc.ID); !errors.Is(err, ErrDraftFinalized) {
		t.Fatalf("expected ErrDraftFinalized for confirmed document, got %v", err)
	}
}

func TestReprocessConsumesQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := seedDocument(t, env, "ws-1")

	failed := IngestionRun{ID: "run-2", DocumentID: doc.ID, Status: model.IngestionFailed, CreatedAt: time.Now().UTC().Add(time.Second)}
	if err := env.repo.CreateRun(ctx, failed); err != nil {
		t.Fatalf("create run: %v", err)
	}

	if _, err := env.svc.Reprocess(ctx, "ws-1", doc.ID); err != nil {
		t.Fatalf("reprocess: %v", err)
	}
	select {
	case <-env.ingestor.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("reprocess never reached the ingestor")
	}

	u, err := env.usage.Get(ctx, "ws-1")
	if err != nil {
		t.Fatalf("usage get: %v", err)
	}
	if u.Used != 1 {
		t.Fatalf("expected reprocess to consume one document, got %d", u.Used)
	}

	latest, err := env.repo.GetLatestRun(ctx, doc.ID)
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	latest.Status = model.IngestionFailed
	if err := env.repo.UpdateRun(ctx, latest); err != nil {
		t.Fatalf("settle run: %v", err)
	}

	if _, err := env.usage.Consume(ctx, "ws-1", u.Limit-u.Used); err != nil {
		t.Fatalf("exhaust quota: %v", err)
	}
	if _, err := env.svc.Reprocess(ctx, "ws-1", doc.ID); !errors.Is(err, usage.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestPagesLoadsTextFromStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := seedDocument(t, env, "ws-1")

	textKey, _, _, err := env.svc.Store.Save(ctx, "ws-1", "page-1.txt", strings.NewReader("Rechnung INV-2042"))
	if err != nil {
		t.Fatalf("save page text: %v", err)
	}
	pages := []Page{
		{DocumentID: doc.ID, Number: 1, TextKey: textKey},
		{DocumentID: doc.ID, Number: 2, TextKey: "missing/key"},
	}
	if err := env.repo.ReplacePages(ctx, doc.ID, pages); err != nil {
		t.Fatalf("replace pages: %v", err)
	}

	got, err := env.svc.Pages(ctx, "ws-1", doc.ID, 0, 10)
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two pages, got %d", len(got))
	}
	if got[0].Text != "Rechnung INV-2042" {
		t.Fatalf("expected stored text, got %q", got[0].Text)
	}
	if got[1].Text != "" {
		t.Fatalf("missing text object must degrade to empty text, got %q", got[1].Text)
	}
	if !strings.Contains(got[0].URL, doc.ID) {
		t.Fatalf("expected file URL to reference the document, got %q", got[0].URL)
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.svc.Upload(ctx, "ws-1", "user-1", "old.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := env.svc.Delete(ctx, "ws-1", rec.Document.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.svc.GetRecord(ctx, "ws-1", rec.Document.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := env.svc.Store.Open(ctx, rec.Document.StorageKey); err == nil {
		t.Fatal("expected the stored file to be gone")
	}
}

// seedFailedExtraction sets up a document whose only run failed before a
// draft was ever written, the state a reviewer sees after an unreadable
// upload.
func seedFailedExtraction(t *testing.T, env testEnv, workspaceID string) Document {
	t.Helper()
	doc := seedDocument(t, env, workspaceID)
	run, err := env.repo.GetLatestRun(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	run.Status = model.IngestionFailed
	run.FailureKind = "failed_unreadable"
	run.ErrorMessage = "no extractable text"
	if err := env.repo.UpdateRun(context.Background(), run); err != nil {
		t.Fatalf("fail run: %v", err)
	}
	return doc
}

func TestRejectFailedExtractionWithoutDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := seedFailedExtraction(t, env, "ws-1")

	rec, err := env.svc.Reject(ctx, "ws-1", doc.ID, model.RejectUnreadable)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rec.Draft == nil {
		t.Fatal("expected reject to seed a draft")
	}
	if rec.Draft.Status != model.DraftRejected {
		t.Fatalf("expected a rejected draft, got %s", rec.Draft.Status)
	}
	if rec.Draft.RejectReason != string(model.RejectUnreadable) {
		t.Fatalf("expected the reason to persist, got %q", rec.Draft.RejectReason)
	}

	stored, err := env.repo.GetDraft(ctx, doc.ID)
	if err != nil {
		t.Fatalf("stored draft: %v", err)
	}
	if stored.Status != model.DraftRejected || stored.RejectReason != string(model.RejectUnreadable) {
		t.Fatalf("stored draft not rejected: status=%s reason=%q", stored.Status, stored.RejectReason)
	}
}

func TestUpdateDraftSeedsDraftAfterFailedExtraction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := seedFailedExtraction(t, env, "ws-1")

	if _, err := env.svc.UpdateDraft(ctx, "ws-1", doc.ID, invoiceData(t), 3); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("a non-zero version against a missing draft must conflict, got %v", err)
	}

	rec, err := env.svc.UpdateDraft(ctx, "ws-1", doc.ID, invoiceData(t), 0)
	if err != nil {
		t.Fatalf("update draft: %v", err)
	}
	if rec.Draft == nil {
		t.Fatal("expected the hand save to create a draft")
	}
	if rec.Draft.Confidence != 1 {
		t.Fatalf("hand-entered data counts as verified, got confidence %v", rec.Draft.Confidence)
	}
	if rec.Draft.Status != model.DraftNeedsInput {
		t.Fatalf("an invoice without a contact still needs input, got %s", rec.Draft.Status)
	}
	if rec.Draft.Version != 2 {
		t.Fatalf("expected seed plus save to reach version 2, got %d", rec.Draft.Version)
	}
}

// contestedQuotaStore reports headroom on reads but refuses the atomic
// consume, the window a concurrent upload can win.
type contestedQuotaStore struct{}

func (contestedQuotaStore) Get(ctx context.Context, workspaceID string) (usage.Usage, error) {
	return usage.Usage{Plan: "free", Limit: 1, Used: 0}, nil
}

func (contestedQuotaStore) Consume(ctx context.Context, workspaceID string, n int) (usage.Usage, error) {
	return usage.Usage{}, usage.ErrLimitReached
}

func (contestedQuotaStore) SetPlan(ctx context.Context, workspaceID, plan string) (usage.Usage, error) {
	return usage.Usage{Plan: plan}, nil
}

func TestUploadLosingQuotaRaceLeavesNoRecord(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Usage = usage.NewPostgresService(contestedQuotaStore{})
	ctx := context.Background()

	_, err := env.svc.Upload(ctx, "ws-1", "user-1", "late.pdf", strings.NewReader("pdf bytes"))
	if !errors.Is(err, usage.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}

	records, err := env.repo.ListRecords(ctx, "ws-1", 10, 0)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("a refused upload must leave no document behind, found %d", len(records))
	}
}
