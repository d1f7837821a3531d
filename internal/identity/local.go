package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/model"
	"github.com/sakif/course-marketplace/internal/repository"
)

var _ Provider = (*Local)(nil)

// Local serves roles from the users table.
type Local struct {
	users repository.UserRepository
}

func NewLocal(users repository.UserRepository) *Local {
	return &Local{users: users}
}

// GetUser never fails for an unknown id: a token subject we have no record
// of is a student who has not been synced yet.
func (l *Local) GetUser(ctx context.Context, id string) (*Principal, error) {
	u, err := l.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &Principal{ID: id, Role: model.RoleStudent}, nil
		}
		return nil, fmt.Errorf("identity: loading user %s: %w", id, err)
	}
	role := u.Role
	if !role.Valid() {
		role = model.RoleStudent
	}
	return &Principal{ID: u.ID, Name: u.Name, ImageURL: u.ImageURL, Role: role}, nil
}

func (l *Local) UpdateRole(ctx context.Context, id string, role model.Role) error {
	if err := l.users.SetUserRole(ctx, id, role); err != nil {
		return fmt.Errorf("identity: updating role of %s: %w", id, err)
	}
	return nil
}
