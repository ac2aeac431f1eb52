package main

// reviewdemo drives a complete review session against the in-memory stack:
// upload, stub extraction, contact suggestion, edit, save, confirm. It prints
// every state and action the session emits, ending with the booked cashflow
// entry.
//
//   go run ./cmd/reviewdemo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"ledgerly-backend/internal/bootstrap"
	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/reviewgateway"
	"ledgerly-backend/internal/shared/config"
	"ledgerly-backend/review/model"
	"ledgerly-backend/review/session"
)

const demoTimeout = 60 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reviewdemo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	storeDir, err := os.MkdirTemp("", "reviewdemo-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(storeDir)

	app, err := bootstrap.Build(config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   storeDir,
		ExtractProvider: "stub",
		QueueMode:       "none",
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), demoTimeout)
	defer cancel()

	ws, err := app.WorkspacesService.Create(ctx, "demo-user", "Demo Accounting BV", "BE", "EUR", "BE0123456749")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	fmt.Printf("workspace %s (%s)\n", ws.Name, ws.ID)

	// The stub extractor always names this counterparty, so having it on
	// file demonstrates the suggestion flow.
	contact, err := app.ContactsService.Create(ctx, ws.ID, contacts.Contact{
		Name:        "Stub Counterparty",
		VATNumber:   "BE0987654321",
		CountryCode: "BE",
	})
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	fmt.Printf("contact %s (%s)\n", contact.Name, contact.ID)

	// Any bytes work for an image upload; extraction derives the invoice
	// from their hash.
	payload := bytes.Repeat([]byte("ledgerly demo scan\n"), 64)
	rec, err := app.DocumentsService.Upload(ctx, ws.ID, "demo-user", "invoice-scan.png", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	fmt.Printf("uploaded %s as document %s\n", rec.Document.FileName, rec.Document.ID)

	gw := reviewgateway.New(app.DocumentsService, app.ContactsService, ws.ID)
	sess := session.New(gw, rec.Document.ID, session.Options{})
	go sess.Run(ctx)

	return drive(ctx, sess)
}

// drive scripts the reviewer: accept the suggested contact, override the
// invoice number, save, confirm. Progress is decided from observed states and
// actions, the same way a UI would react.
func drive(ctx context.Context, sess *session.Session) error {
	var (
		awaiting bool
		edited   bool
	)

	poll := time.NewTicker(200 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for the session")

		case <-poll.C:
			if awaiting {
				sess.Dispatch(session.Refresh{})
			}

		case st := <-sess.States():
			fmt.Printf("state:  %s\n", describeState(st))
			awaiting = false
			switch s := st.(type) {
			case session.AwaitingExtraction:
				awaiting = true
			case session.LoadFailed:
				return fmt.Errorf("load failed: %v", s.Err)
			case session.Content:
				if inFlight(s.Flags) {
					continue
				}
				switch cs := s.Contact.(type) {
				case session.SuggestedContact:
					fmt.Printf("        accepting suggestion %s (%s, %.2f)\n",
						cs.Suggestion.Name, cs.Suggestion.Reason, cs.Suggestion.Confidence)
					sess.Dispatch(session.BindContact{ContactID: cs.Suggestion.ContactID})
				case session.SelectedContact:
					if !edited {
						edited = true
						fmt.Println("        setting invoice number and saving")
						sess.Dispatch(session.SetField{Field: model.FieldInvoiceNumber, Value: model.Text("INV-2026-0001")})
						sess.Dispatch(session.Save{})
					}
				}
			}

		case act := <-sess.Actions():
			fmt.Printf("action: %s\n", describeAction(act))
			switch a := act.(type) {
			case session.DocumentSaved:
				sess.Dispatch(session.Confirm{})
			case session.DocumentConfirmed:
				fmt.Printf("booked cashflow entry %s\n", a.EntryID)
				return nil
			case session.ShowError:
				if a.Kind == session.ErrValidationFailed && a.Validation != nil {
					return fmt.Errorf("validation failed: %v", a.Validation)
				}
				return fmt.Errorf("session error: %s", a.Kind)
			}
		}
	}
}

func inFlight(f session.Flags) bool {
	return f.Saving || f.Confirming || f.Rejecting || f.Reprocessing || f.BindingContact
}

func describeState(st session.State) string {
	switch s := st.(type) {
	case session.Loading:
		return fmt.Sprintf("loading %s", s.DocumentID)
	case session.AwaitingExtraction:
		status := "pending"
		if s.Record.Ingestion != nil {
			status = string(s.Record.Ingestion.Status)
		}
		return fmt.Sprintf("awaiting extraction (run %s)", status)
	case session.LoadFailed:
		return fmt.Sprintf("load failed: %v", s.Err)
	case session.Content:
		draftStatus := "none"
		if s.Record.Draft != nil {
			draftStatus = string(s.Record.Draft.Status)
		}
		return fmt.Sprintf("content doctype=%s draft=%s contact=%s unsaved=%t",
			s.Editable.DocType, draftStatus, describeContact(s.Contact), s.HasUnsavedChanges())
	default:
		return fmt.Sprintf("%T", st)
	}
}

func describeContact(cs session.ContactState) string {
	switch c := cs.(type) {
	case session.SuggestedContact:
		return fmt.Sprintf("suggested(%s)", c.Suggestion.Name)
	case session.SelectedContact:
		if c.Contact.Name != "" {
			return fmt.Sprintf("selected(%s)", c.Contact.Name)
		}
		return fmt.Sprintf("selected(%s)", c.Contact.ID)
	default:
		return "none"
	}
}

func describeAction(act session.Action) string {
	switch a := act.(type) {
	case session.DocumentSaved:
		return "document saved"
	case session.DocumentConfirmed:
		return fmt.Sprintf("document confirmed, entry %s", a.EntryID)
	case session.DocumentRejected:
		return "document rejected"
	case session.NavigateBack:
		return "navigate back"
	case session.ConfirmDiscard:
		return "confirm discard"
	case session.ShowError:
		return fmt.Sprintf("error %s", a.Kind)
	default:
		return fmt.Sprintf("%T", act)
	}
}
