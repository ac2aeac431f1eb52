package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledgerly-backend/review/model"
)

// fakeUseCases implements UseCases with overridable functions. Calls with
// no override fail loudly so a test cannot silently exercise a path it did
// not mean to.
type fakeUseCases struct {
	record    func(documentID string) (model.Record, error)
	update    func(documentID string, data model.Editable, version int64) (model.Record, error)
	bind      func(documentID, contactID string) (model.Record, error)
	clear     func(documentID string) (model.Record, error)
	confirm   func(documentID string) (string, error)
	reject    func(documentID string, reason RejectReason) error
	reprocess func(documentID string) error
	pages     func(documentID string, offset, limit int) ([]model.Page, error)
	contact   func(contactID string) (model.Contact, error)
}

var errFakeUnused = errors.New("use case not wired in this test")

func (f *fakeUseCases) GetDocumentRecord(_ context.Context, documentID string) (model.Record, error) {
	if f.record == nil {
		return model.Record{}, errFakeUnused
	}
	return f.record(documentID)
}

func (f *fakeUseCases) UpdateDocumentDraft(_ context.Context, documentID string, data model.Editable, version int64) (model.Record, error) {
	if f.update == nil {
		return model.Record{}, errFakeUnused
	}
	return f.update(documentID, data, version)
}

func (f *fakeUseCases) BindDocumentContact(_ context.Context, documentID, contactID string) (model.Record, error) {
	if f.bind == nil {
		return model.Record{}, errFakeUnused
	}
	return f.bind(documentID, contactID)
}

func (f *fakeUseCases) ClearDocumentContact(_ context.Context, documentID string) (model.Record, error) {
	if f.clear == nil {
		return model.Record{}, errFakeUnused
	}
	return f.clear(documentID)
}

func (f *fakeUseCases) ConfirmDocument(_ context.Context, documentID string) (string, error) {
	if f.confirm == nil {
		return "", errFakeUnused
	}
	return f.confirm(documentID)
}

func (f *fakeUseCases) RejectDocument(_ context.Context, documentID string, reason RejectReason) error {
	if f.reject == nil {
		return errFakeUnused
	}
	return f.reject(documentID, reason)
}

func (f *fakeUseCases) ReprocessDocument(_ context.Context, documentID string) error {
	if f.reprocess == nil {
		return errFakeUnused
	}
	return f.reprocess(documentID)
}

func (f *fakeUseCases) GetDocumentPages(_ context.Context, documentID string, offset, limit int) ([]model.Page, error) {
	if f.pages == nil {
		return nil, errFakeUnused
	}
	return f.pages(documentID, offset, limit)
}

func (f *fakeUseCases) GetContact(_ context.Context, contactID string) (model.Contact, error) {
	if f.contact == nil {
		return model.Contact{}, errFakeUnused
	}
	return f.contact(contactID)
}

func startSession(t *testing.T, uc UseCases) *Session {
	t.Helper()
	s := New(uc, "doc-1", Options{PageBatchSize: 2, CallTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
	return s
}

func waitForState(t *testing.T, s *Session, match func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-s.States():
			if match(st) {
				return st
			}
		case <-deadline:
			t.Fatal("timed out waiting for state")
			return nil
		}
	}
}

func waitForAction(t *testing.T, s *Session, match func(Action) bool) Action {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case a := <-s.Actions():
			if match(a) {
				return a
			}
		case <-deadline:
			t.Fatal("timed out waiting for action")
			return nil
		}
	}
}

func TestSessionLoadsContent(t *testing.T) {
	uc := &fakeUseCases{
		record: func(string) (model.Record, error) {
			return succeededRecord(confirmableDraft()), nil
		},
		pages: func(_ string, offset, _ int) ([]model.Page, error) {
			if offset == 0 {
				return []model.Page{{Number: 1, Text: "INVOICE"}}, nil
			}
			return nil, nil
		},
		contact: func(contactID string) (model.Contact, error) {
			return model.Contact{ID: contactID, Name: "Acme GmbH"}, nil
		},
	}
	s := startSession(t, uc)

	// Wait until the preview finished and the linked contact hydrated; the
	// states channel conflates, so a single predicate sees the final shape.
	st := waitForState(t, s, func(st State) bool {
		c, ok := st.(Content)
		if !ok || c.Preview.Loading || !c.Preview.Exhausted {
			return false
		}
		sel, selected := c.Contact.(SelectedContact)
		return selected && sel.Contact.Name == "Acme GmbH"
	})

	c := st.(Content)
	if !c.Editable.Equal(confirmableData()) {
		t.Error("content payload should come from the draft")
	}
	if len(c.Preview.Pages) != 1 || c.Preview.Pages[0].Text != "INVOICE" {
		t.Errorf("preview pages = %+v", c.Preview.Pages)
	}
}

func TestSessionSaveRoundTrip(t *testing.T) {
	var gotVersion int64
	uc := &fakeUseCases{
		record: func(string) (model.Record, error) {
			return succeededRecord(confirmableDraft()), nil
		},
		pages: func(string, int, int) ([]model.Page, error) { return nil, nil },
		contact: func(contactID string) (model.Contact, error) {
			return model.Contact{ID: contactID}, nil
		},
		update: func(_ string, data model.Editable, version int64) (model.Record, error) {
			gotVersion = version
			rec := succeededRecord(confirmableDraft())
			rec.Draft.Version = version + 1
			rec.Draft.Data = data
			return rec, nil
		},
	}
	s := startSession(t, uc)
	waitForState(t, s, func(st State) bool {
		_, ok := st.(Content)
		return ok
	})

	s.Dispatch(SetField{Field: model.FieldGrossAmount, Value: model.Money(20000)})
	s.Dispatch(Save{})

	waitForAction(t, s, func(a Action) bool {
		_, ok := a.(DocumentSaved)
		return ok
	})
	if gotVersion != 3 {
		t.Errorf("save used version %d, want 3", gotVersion)
	}

	waitForState(t, s, func(st State) bool {
		c, ok := st.(Content)
		return ok && !c.HasUnsavedChanges() && c.Record.Draft.Version == 4
	})
}

func TestSessionConfirmValidation(t *testing.T) {
	draft := confirmableDraft()
	draft.Data.Invoice.GrossCents = 0
	uc := &fakeUseCases{
		record: func(string) (model.Record, error) {
			return succeededRecord(draft), nil
		},
		pages: func(string, int, int) ([]model.Page, error) { return nil, nil },
		contact: func(contactID string) (model.Contact, error) {
			return model.Contact{ID: contactID}, nil
		},
	}
	s := startSession(t, uc)
	waitForState(t, s, func(st State) bool {
		_, ok := st.(Content)
		return ok
	})

	s.Dispatch(Confirm{})

	a := waitForAction(t, s, func(a Action) bool {
		se, ok := a.(ShowError)
		return ok && se.Kind == ErrValidationFailed
	})
	se := a.(ShowError)
	if se.Validation == nil || len(se.Validation.MissingFields) == 0 {
		t.Errorf("validation detail = %+v", se.Validation)
	}
}

func TestSessionExtractionPolling(t *testing.T) {
	calls := 0
	uc := &fakeUseCases{
		record: func(string) (model.Record, error) {
			calls++
			if calls == 1 {
				return recordWith(&model.Ingestion{Status: model.IngestionProcessing}, nil), nil
			}
			return succeededRecord(confirmableDraft()), nil
		},
		pages: func(string, int, int) ([]model.Page, error) { return nil, nil },
		contact: func(contactID string) (model.Contact, error) {
			return model.Contact{ID: contactID}, nil
		},
	}
	s := startSession(t, uc)

	waitForState(t, s, func(st State) bool {
		_, ok := st.(AwaitingExtraction)
		return ok
	})

	s.Dispatch(Refresh{})

	waitForState(t, s, func(st State) bool {
		_, ok := st.(Content)
		return ok
	})
}

func TestEmitKeepsNewestWhenBacklogged(t *testing.T) {
	s := New(&fakeUseCases{}, "doc-1", Options{})

	for i := 0; i < cap(s.actions); i++ {
		s.emit(DocumentSaved{})
	}
	s.emit(NavigateBack{})

	var got []Action
	for draining := true; draining; {
		select {
		case a := <-s.actions:
			got = append(got, a)
		default:
			draining = false
		}
	}
	if len(got) != cap(s.actions) {
		t.Fatalf("expected a full buffer after overflow, got %d actions", len(got))
	}
	if _, ok := got[len(got)-1].(NavigateBack); !ok {
		t.Fatalf("overflow must drop the oldest action, but the last delivered was %T", got[len(got)-1])
	}
}
