package users

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromGoogle persists the identity returned by Google sign-in so
// workspace membership and quotas have a stable owner.
func (s *Service) UpsertFromGoogle(ctx context.Context, user User) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(user.GoogleSub) == "" || strings.TrimSpace(user.Email) == "" {
		return User{}, errors.New("google subject and email are required")
	}
	return s.Repo.UpsertByGoogleSub(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}
