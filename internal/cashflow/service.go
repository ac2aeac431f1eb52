package cashflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidDirection = errors.New("direction must be in or out")
	ErrInvalidAmount    = errors.New("amount must not be zero")
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// BookDocument creates the cashflow entry for a confirmed document.
// Booking the same document twice returns the entry already in place, so
// confirmation stays idempotent end to end.
func (s *Service) BookDocument(ctx context.Context, entry Entry) (Entry, error) {
	if s == nil || s.Repo == nil {
		return Entry{}, errors.New("cashflow service not configured")
	}
	if entry.Direction != DirectionIn && entry.Direction != DirectionOut {
		return Entry{}, ErrInvalidDirection
	}
	if entry.AmountCents == 0 {
		return Entry{}, ErrInvalidAmount
	}
	if entry.Currency == "" {
		entry.Currency = "EUR"
	}
	if entry.BookedOn.IsZero() {
		entry.BookedOn = time.Now().UTC()
	}

	if entry.DocumentID != "" {
		if existing, err := s.Repo.GetByDocument(ctx, entry.WorkspaceID, entry.DocumentID); err == nil {
			return existing, nil
		} else if !errors.Is(err, ErrNotFound) {
			return Entry{}, err
		}
	}

	entry.ID = uuid.NewString()
	if err := s.Repo.Create(ctx, entry); err != nil {
		return Entry{}, err
	}
	if entry.DocumentID != "" {
		// The unique document index may have kept a concurrent winner;
		// return whichever entry actually landed.
		return s.Repo.GetByDocument(ctx, entry.WorkspaceID, entry.DocumentID)
	}
	return entry, nil
}

// List returns entries booked inside [from, to), optionally restricted to a
// single direction.
func (s *Service) List(ctx context.Context, workspaceID string, from, to time.Time, direction string) ([]Entry, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("cashflow service not configured")
	}
	if direction != "" && direction != DirectionIn && direction != DirectionOut {
		return nil, ErrInvalidDirection
	}
	from, to = normalizeRange(from, to)
	return s.Repo.List(ctx, workspaceID, from, to, direction)
}

// Summary aggregates the last months of cashflow per calendar month.
func (s *Service) Summary(ctx context.Context, workspaceID string, months int) ([]MonthSummary, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("cashflow service not configured")
	}
	if months <= 0 || months > 36 {
		months = 6
	}
	now := time.Now().UTC()
	to := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	from := to.AddDate(0, -months, 0)
	return s.Repo.Summarize(ctx, workspaceID, from, to)
}

func normalizeRange(from, to time.Time) (time.Time, time.Time) {
	now := time.Now().UTC()
	if to.IsZero() {
		to = now.AddDate(0, 0, 1)
	}
	if from.IsZero() {
		from = to.AddDate(0, -6, 0)
	}
	return from, to
}
