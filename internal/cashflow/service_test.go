package cashflow

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBookDocumentIdempotent(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	first, err := svc.BookDocument(ctx, Entry{
		WorkspaceID: "ws-1",
		DocumentID:  "doc-1",
		Direction:   DirectionOut,
		AmountCents: 14900,
		Currency:    "EUR",
		BookedOn:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "Hosting invoice",
	})
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated entry id")
	}

	second, err := svc.BookDocument(ctx, Entry{
		WorkspaceID: "ws-1",
		DocumentID:  "doc-1",
		Direction:   DirectionOut,
		AmountCents: 14900,
		Currency:    "EUR",
		BookedOn:    time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("second booking: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the original entry back, got %q vs %q", second.ID, first.ID)
	}

	entries, err := svc.List(ctx, "ws-1", time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single entry, got %d", len(entries))
	}
}

func TestBookDocumentValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	_, err := svc.BookDocument(ctx, Entry{WorkspaceID: "ws-1", Direction: "sideways", AmountCents: 100})
	if !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}

	_, err = svc.BookDocument(ctx, Entry{WorkspaceID: "ws-1", Direction: DirectionIn})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSummarizeMonths(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	seed := []Entry{
		{DocumentID: "d1", Direction: DirectionIn, AmountCents: 250000, BookedOn: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)},
		{DocumentID: "d2", Direction: DirectionOut, AmountCents: 80000, BookedOn: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)},
		{DocumentID: "d3", Direction: DirectionIn, AmountCents: 120000, BookedOn: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
		{DocumentID: "d4", Direction: DirectionOut, AmountCents: 120000, BookedOn: time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, e := range seed {
		e.WorkspaceID = "ws-1"
		e.Currency = "EUR"
		if _, err := svc.BookDocument(ctx, e); err != nil {
			t.Fatalf("seed %s: %v", e.DocumentID, err)
		}
	}

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	months, err := repo.Summarize(ctx, "ws-1", from, to)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(months) != 2 {
		t.Fatalf("expected two months, got %d", len(months))
	}

	jan := months[0]
	if jan.Month != "2026-01" || jan.InCents != 250000 || jan.OutCents != 80000 {
		t.Fatalf("unexpected january summary: %+v", jan)
	}
	if jan.NetCents() != 170000 {
		t.Fatalf("expected january net 170000, got %d", jan.NetCents())
	}

	feb := months[1]
	if feb.Month != "2026-02" || feb.NetCents() != 0 {
		t.Fatalf("unexpected february summary: %+v", feb)
	}
}

func TestListRangeFilter(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	for i, day := range []int{1, 15, 28} {
		_, err := svc.BookDocument(ctx, Entry{
			WorkspaceID: "ws-1",
			DocumentID:  "doc-" + string(rune('a'+i)),
			Direction:   DirectionOut,
			AmountCents: 1000,
			Currency:    "EUR",
			BookedOn:    time.Date(2026, 4, day, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("seed day %d: %v", day, err)
		}
	}

	from := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)
	entries, err := svc.List(ctx, "ws-1", from, to, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry inside the window, got %d", len(entries))
	}
	if got := entries[0].BookedOn.Day(); got != 15 {
		t.Fatalf("expected the April 15 entry, got day %d", got)
	}
}

func TestListDirectionFilter(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	seed := []Entry{
		{DocumentID: "d1", Direction: DirectionIn, AmountCents: 250000},
		{DocumentID: "d2", Direction: DirectionOut, AmountCents: 80000},
		{DocumentID: "d3", Direction: DirectionOut, AmountCents: 45000},
	}
	for _, e := range seed {
		e.WorkspaceID = "ws-1"
		e.Currency = "EUR"
		e.BookedOn = time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
		if _, err := svc.BookDocument(ctx, e); err != nil {
			t.Fatalf("seed %s: %v", e.DocumentID, err)
		}
	}

	out, err := svc.List(ctx, "ws-1", time.Time{}, time.Time{}, DirectionOut)
	if err != nil {
		t.Fatalf("list out: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected two outgoing entries, got %d", len(out))
	}
	for _, entry := range out {
		if entry.Direction != DirectionOut {
			t.Fatalf("expected only outgoing entries, got %+v", entry)
		}
	}

	in, err := svc.List(ctx, "ws-1", time.Time{}, time.Time{}, DirectionIn)
	if err != nil {
		t.Fatalf("list in: %v", err)
	}
	if len(in) != 1 || in[0].DocumentID != "d1" {
		t.Fatalf("expected the single incoming entry, got %+v", in)
	}

	if _, err := svc.List(ctx, "ws-1", time.Time{}, time.Time{}, "sideways"); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
}
