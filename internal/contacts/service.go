package contacts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"ledgerly-backend/internal/shared/util"
)

var ErrNameRequired = errors.New("contact name is required")

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) Create(ctx context.Context, workspaceID string, contact Contact) (Contact, error) {
	if s == nil || s.Repo == nil {
		return Contact{}, errors.New("contacts service not configured")
	}
	contact.Name = strings.TrimSpace(contact.Name)
	if contact.Name == "" {
		return Contact{}, ErrNameRequired
	}
	contact.ID = uuid.NewString()
	contact.WorkspaceID = workspaceID
	contact.VATNumber = util.NormalizeVAT(contact.VATNumber)
	contact.IBAN = strings.ToUpper(strings.ReplaceAll(contact.IBAN, " ", ""))
	contact.CountryCode = strings.ToUpper(strings.TrimSpace(contact.CountryCode))
	if err := s.Repo.Create(ctx, contact); err != nil {
		return Contact{}, err
	}
	return s.Repo.GetByID(ctx, workspaceID, contact.ID)
}

func (s *Service) Get(ctx context.Context, workspaceID, contactID string) (Contact, error) {
	if s == nil || s.Repo == nil {
		return Contact{}, errors.New("contacts service not configured")
	}
	return s.Repo.GetByID(ctx, workspaceID, contactID)
}

func (s *Service) List(ctx context.Context, workspaceID, nameQuery string) ([]Contact, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("contacts service not configured")
	}
	return s.Repo.List(ctx, workspaceID, strings.TrimSpace(nameQuery))
}

func (s *Service) Update(ctx context.Context, workspaceID, contactID string, update Contact) (Contact, error) {
	if s == nil || s.Repo == nil {
		return Contact{}, errors.New("contacts service not configured")
	}
	existing, err := s.Repo.GetByID(ctx, workspaceID, contactID)
	if err != nil {
		return Contact{}, err
	}
	if name := strings.TrimSpace(update.Name); name != "" {
		existing.Name = name
	}
	if update.VATNumber != "" {
		existing.VATNumber = util.NormalizeVAT(update.VATNumber)
	}
	if update.IBAN != "" {
		existing.IBAN = strings.ToUpper(strings.ReplaceAll(update.IBAN, " ", ""))
	}
	if update.Email != "" {
		existing.Email = strings.TrimSpace(update.Email)
	}
	if update.CountryCode != "" {
		existing.CountryCode = strings.ToUpper(strings.TrimSpace(update.CountryCode))
	}
	if err := s.Repo.Update(ctx, existing); err != nil {
		return Contact{}, err
	}
	return s.Repo.GetByID(ctx, workspaceID, contactID)
}

func (s *Service) Delete(ctx context.Context, workspaceID, contactID string) error {
	if s == nil || s.Repo == nil {
		return errors.New("contacts service not configured")
	}
	return s.Repo.Delete(ctx, workspaceID, contactID)
}

// FindByVAT looks a contact up by its normalized VAT number.
func (s *Service) FindByVAT(ctx context.Context, workspaceID, vatNumber string) (Contact, error) {
	if s == nil || s.Repo == nil {
		return Contact{}, errors.New("contacts service not configured")
	}
	normalized := util.NormalizeVAT(vatNumber)
	if normalized == "" {
		return Contact{}, ErrNotFound
	}
	return s.Repo.FindByVAT(ctx, workspaceID, normalized)
}
