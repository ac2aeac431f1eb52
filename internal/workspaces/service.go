package workspaces

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"ledgerly-backend/internal/shared/util"
)

var (
	ErrNameRequired = errors.New("workspace name is required")
	ErrInvalidRole  = errors.New("invalid member role")
	ErrNotMember    = errors.New("user is not a member of the workspace")
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) Create(ctx context.Context, ownerID, name, countryCode, currency, vatNumber string) (Workspace, error) {
	if s == nil || s.Repo == nil {
		return Workspace{}, errors.New("workspaces service not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, ErrNameRequired
	}
	if currency = strings.ToUpper(strings.TrimSpace(currency)); currency == "" {
		currency = "EUR"
	}
	ws := Workspace{
		ID:          uuid.NewString(),
		Name:        name,
		CountryCode: strings.ToUpper(strings.TrimSpace(countryCode)),
		Currency:    currency,
		VATNumber:   util.NormalizeVAT(vatNumber),
	}
	if err := s.Repo.Create(ctx, ws, ownerID); err != nil {
		return Workspace{}, err
	}
	return s.Repo.GetByID(ctx, ws.ID)
}

func (s *Service) Get(ctx context.Context, workspaceID string) (Workspace, error) {
	if s == nil || s.Repo == nil {
		return Workspace{}, errors.New("workspaces service not configured")
	}
	return s.Repo.GetByID(ctx, workspaceID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Workspace, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("workspaces service not configured")
	}
	return s.Repo.ListForUser(ctx, userID)
}

// Update applies the non-empty fields onto the stored workspace.
func (s *Service) Update(ctx context.Context, workspaceID string, name, countryCode, currency, vatNumber *string) (Workspace, error) {
	if s == nil || s.Repo == nil {
		return Workspace{}, errors.New("workspaces service not configured")
	}
	ws, err := s.Repo.GetByID(ctx, workspaceID)
	if err != nil {
		return Workspace{}, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return Workspace{}, ErrNameRequired
		}
		ws.Name = trimmed
	}
	if countryCode != nil {
		ws.CountryCode = strings.ToUpper(strings.TrimSpace(*countryCode))
	}
	if currency != nil {
		ws.Currency = strings.ToUpper(strings.TrimSpace(*currency))
	}
	if vatNumber != nil {
		ws.VATNumber = util.NormalizeVAT(*vatNumber)
	}
	if err := s.Repo.Update(ctx, ws); err != nil {
		return Workspace{}, err
	}
	return ws, nil
}

func (s *Service) AddMember(ctx context.Context, workspaceID, userID, role string) error {
	if s == nil || s.Repo == nil {
		return errors.New("workspaces service not configured")
	}
	if role == "" {
		role = RoleMember
	}
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	if _, err := s.Repo.GetByID(ctx, workspaceID); err != nil {
		return err
	}
	return s.Repo.AddMember(ctx, Member{WorkspaceID: workspaceID, UserID: userID, Role: role})
}

func (s *Service) ListMembers(ctx context.Context, workspaceID string) ([]Member, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("workspaces service not configured")
	}
	return s.Repo.ListMembers(ctx, workspaceID)
}

// Authorize verifies the user belongs to the workspace.
func (s *Service) Authorize(ctx context.Context, workspaceID, userID string) error {
	if s == nil || s.Repo == nil {
		return errors.New("workspaces service not configured")
	}
	ok, err := s.Repo.IsMember(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}
