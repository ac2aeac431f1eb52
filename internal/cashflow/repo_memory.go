package cashflow

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{entries: make(map[string]Entry)}
}

func (r *MemoryRepo) Create(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.DocumentID != "" {
		for _, existing := range r.entries {
			if existing.WorkspaceID == entry.WorkspaceID && existing.DocumentID == entry.DocumentID {
				return nil
			}
		}
	}
	entry.CreatedAt = time.Now().UTC()
	r.entries[entry.ID] = entry
	return nil
}

func (r *MemoryRepo) GetByDocument(ctx context.Context, workspaceID, documentID string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		if entry.WorkspaceID == workspaceID && entry.DocumentID == documentID {
			return entry, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context, workspaceID string, from, to time.Time, direction string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0)
	for _, entry := range r.entries {
		if entry.WorkspaceID != workspaceID {
			continue
		}
		if entry.BookedOn.Before(from) || !entry.BookedOn.Before(to) {
			continue
		}
		if direction != "" && entry.Direction != direction {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedOn.After(out[j].BookedOn) })
	return out, nil
}

func (r *MemoryRepo) Summarize(ctx context.Context, workspaceID string, from, to time.Time) ([]MonthSummary, error) {
	entries, err := r.List(ctx, workspaceID, from, to, "")
	if err != nil {
		return nil, err
	}
	byMonth := make(map[string]*MonthSummary)
	for _, entry := range entries {
		month := entry.BookedOn.UTC().Format("2006-01")
		m, ok := byMonth[month]
		if !ok {
			m = &MonthSummary{Month: month}
			byMonth[month] = m
		}
		if entry.Direction == DirectionIn {
			m.InCents += entry.AmountCents
		} else {
			m.OutCents += entry.AmountCents
		}
	}
	out := make([]MonthSummary, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}
