package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/identity"
	"github.com/sakif/course-marketplace/internal/model"
	"github.com/sakif/course-marketplace/internal/repository"
)

// Identity webhook event types.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// IdentityEvent is one webhook delivery from the identity provider.
type IdentityEvent struct {
	Type string            `json:"type"`
	Data identity.UserData `json:"data"`
}

// UserSyncService mirrors identity provider profiles into the users table,
// so reports can show student names and avatars.
type UserSyncService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserSyncService(users repository.UserRepository, logger *slog.Logger) *UserSyncService {
	return &UserSyncService{users: users, logger: logger}
}

// HandleEvent applies one event. Deletions and unknown types are accepted and
// ignored: users are never removed here, since purchases keep pointing at them.
func (s *UserSyncService) HandleEvent(ctx context.Context, ev IdentityEvent) error {
	switch ev.Type {
	case EventUserCreated, EventUserUpdated:
	default:
		s.logger.Debug("identity event ignored", slog.String("type", ev.Type))
		return nil
	}

	if ev.Data.ID == "" {
		return apperror.ValidationFailed("data.id", "user id is required")
	}

	u := &model.User{
		ID:       ev.Data.ID,
		Name:     ev.Data.FullName(),
		ImageURL: ev.Data.ImageURL,
	}
	if err := s.users.UpsertUserProfile(ctx, u); err != nil {
		return fmt.Errorf("syncing user %s: %w", u.ID, err)
	}

	s.logger.Info("user synced",
		slog.String("user_id", u.ID),
		slog.String("event", ev.Type),
	)
	return nil
}
