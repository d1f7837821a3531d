package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/identity"
	"github.com/sakif/course-marketplace/internal/model"
)

func TestHandleEvent_CreateThenUpdate(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserSyncService(users, testLogger)
	ctx := context.Background()

	err := svc.HandleEvent(ctx, IdentityEvent{
		Type: EventUserCreated,
		Data: identity.UserData{ID: "user_1", FirstName: "Ada", LastName: "Lovelace", ImageURL: "https://img/1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", users.users["user_1"].Name)
	assert.Equal(t, model.RoleStudent, users.users["user_1"].Role)

	require.NoError(t, users.SetUserRole(ctx, "user_1", model.RoleEducator))

	err = svc.HandleEvent(ctx, IdentityEvent{
		Type: EventUserUpdated,
		Data: identity.UserData{ID: "user_1", FirstName: "Ada", ImageURL: "https://img/2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", users.users["user_1"].Name)
	assert.Equal(t, "https://img/2", users.users["user_1"].ImageURL)
	assert.Equal(t, model.RoleEducator, users.users["user_1"].Role, "sync must not touch role")
}

func TestHandleEvent_IgnoredTypes(t *testing.T) {
	users := newFakeUserRepo()
	users.users["user_1"] = &model.User{ID: "user_1"}
	svc := NewUserSyncService(users, testLogger)

	for _, typ := range []string{EventUserDeleted, "session.created", ""} {
		require.NoError(t, svc.HandleEvent(context.Background(), IdentityEvent{Type: typ, Data: identity.UserData{ID: "user_1"}}))
	}
	assert.Contains(t, users.users, "user_1", "users are never deleted")
}

func TestHandleEvent_Errors(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserSyncService(users, testLogger)

	err := svc.HandleEvent(context.Background(), IdentityEvent{Type: EventUserCreated})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	users.err = errBoom
	err = svc.HandleEvent(context.Background(), IdentityEvent{Type: EventUserCreated, Data: identity.UserData{ID: "u"}})
	assert.ErrorIs(t, err, errBoom)
}
