package peppol

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledgerly-backend/internal/shared/telemetry"
	"ledgerly-backend/internal/workspaces"
)

var (
	ErrNotConfigured      = errors.New("peppol provider not configured")
	ErrVATRequired        = errors.New("workspace vat number required")
	ErrUnsupportedCountry = errors.New("no peppol scheme for country")
	ErrProvider           = errors.New("peppol provider request failed")
)

type Service struct {
	Repo       Repo
	Provider   Provider
	Workspaces *workspaces.Service
}

func NewService(repo Repo, provider Provider, ws *workspaces.Service) *Service {
	return &Service{Repo: repo, Provider: provider, Workspaces: ws}
}

// Get returns the workspace's registration. A workspace without one reads
// as not_registered; a pending one is refreshed against the provider.
func (s *Service) Get(ctx context.Context, workspaceID string) (Registration, error) {
	if s == nil || s.Repo == nil {
		return Registration{}, errors.New("peppol service not configured")
	}
	reg, err := s.Repo.Get(ctx, workspaceID)
	if errors.Is(err, ErrNotFound) {
		return Registration{WorkspaceID: workspaceID, Status: StatusNotRegistered}, nil
	}
	if err != nil {
		return Registration{}, err
	}
	if reg.Status == StatusPending && s.Provider != nil {
		refreshed, err := s.refresh(ctx, reg)
		if err != nil {
			telemetry.Warn("peppol.status_refresh.failed", map[string]any{
				"workspace_id": workspaceID,
				"error":        err.Error(),
			})
			return reg, nil
		}
		reg = refreshed
	}
	return reg, nil
}

func (s *Service) refresh(ctx context.Context, reg Registration) (Registration, error) {
	state, err := s.Provider.Status(ctx, reg.ParticipantID)
	if err != nil {
		return Registration{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	mapped := statusFromProvider(state.Status)
	if mapped == reg.Status {
		return reg, nil
	}
	reg.Status = mapped
	reg.LastError = state.Reason
	reg.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Upsert(ctx, reg); err != nil {
		return Registration{}, err
	}
	telemetry.Info("peppol.status", map[string]any{
		"workspace_id":   reg.WorkspaceID,
		"participant_id": reg.ParticipantID,
		"status":         reg.Status,
	})
	return reg, nil
}

// Register submits the workspace to the network under its own VAT number.
// Registering an already pending or registered workspace with unchanged
// company data returns the existing registration.
func (s *Service) Register(ctx context.Context, workspaceID string) (Registration, error) {
	if s == nil || s.Repo == nil {
		return Registration{}, errors.New("peppol service not configured")
	}
	if s.Provider == nil {
		return Registration{}, ErrNotConfigured
	}

	ws, err := s.Workspaces.Get(ctx, workspaceID)
	if err != nil {
		return Registration{}, err
	}
	if ws.VATNumber == "" {
		return Registration{}, ErrVATRequired
	}
	country := ws.CountryCode
	if country == "" && len(ws.VATNumber) >= 2 {
		// EU VAT numbers carry the country prefix.
		country = ws.VATNumber[:2]
	}
	scheme, ok := SchemeForCountry(country)
	if !ok {
		return Registration{}, ErrUnsupportedCountry
	}
	participantID := ParticipantIDFor(scheme, ws.VATNumber)

	if existing, err := s.Repo.Get(ctx, workspaceID); err == nil {
		if existing.ParticipantID == participantID &&
			(existing.Status == StatusRegistered || existing.Status == StatusPending) {
			return existing, nil
		}
	} else if !errors.Is(err, ErrNotFound) {
		return Registration{}, err
	}

	reg := Registration{
		WorkspaceID:   workspaceID,
		ParticipantID: participantID,
		Scheme:        scheme,
		UpdatedAt:     time.Now().UTC(),
	}
	state, err := s.Provider.Register(ctx, ProviderRequest{
		ParticipantID: participantID,
		Scheme:        scheme,
		LegalName:     ws.Name,
		CountryCode:   country,
	})
	if err != nil {
		reg.Status = StatusFailed
		reg.LastError = err.Error()
		if upsertErr := s.Repo.Upsert(ctx, reg); upsertErr != nil {
			telemetry.Error("peppol.register.persist_failed", map[string]any{
				"workspace_id": workspaceID,
				"error":        upsertErr.Error(),
			})
		}
		return Registration{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	reg.Status = statusFromProvider(state.Status)
	reg.LastError = state.Reason
	if err := s.Repo.Upsert(ctx, reg); err != nil {
		return Registration{}, err
	}
	telemetry.Info("peppol.registered", map[string]any{
		"workspace_id":   workspaceID,
		"participant_id": participantID,
		"scheme":         scheme,
		"status":         reg.Status,
	})
	return reg, nil
}

// Deregister removes the workspace from the network and deletes the stored
// registration.
func (s *Service) Deregister(ctx context.Context, workspaceID string) error {
	if s == nil || s.Repo == nil {
		return errors.New("peppol service not configured")
	}
	reg, err := s.Repo.Get(ctx, workspaceID)
	if err != nil {
		return err
	}
	if reg.Status == StatusRegistered || reg.Status == StatusPending {
		if s.Provider == nil {
			return ErrNotConfigured
		}
		if err := s.Provider.Deregister(ctx, reg.ParticipantID); err != nil {
			return fmt.Errorf("%w: %v", ErrProvider, err)
		}
	}
	if err := s.Repo.Delete(ctx, workspaceID); err != nil {
		return err
	}
	telemetry.Info("peppol.deregistered", map[string]any{
		"workspace_id":   workspaceID,
		"participant_id": reg.ParticipantID,
	})
	return nil
}

func statusFromProvider(status string) string {
	switch strings.ToLower(status) {
	case "registered", "active":
		return StatusRegistered
	case "failed", "rejected", "error":
		return StatusFailed
	default:
		return StatusPending
	}
}
