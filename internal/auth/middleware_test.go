package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/identity"
	"github.com/sakif/course-marketplace/internal/model"
)

type fakeRoles struct {
	principals map[string]*identity.Principal
	err        error
	calls      int
}

func (f *fakeRoles) GetUser(_ context.Context, id string) (*identity.Principal, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.principals[id]; ok {
		return p, nil
	}
	return &identity.Principal{ID: id, Role: model.RoleStudent}, nil
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// echoUser is the protected handler: it reports the user id it sees.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromContext(r.Context())
	json.NewEncoder(w).Encode(map[string]any{"success": true, "user": id})
})

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAuthenticate(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Generate("user_1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantUser string
	}{
		{
			name:     "bearer header",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantUser: "user_1",
		},
		{
			name:     "lowercase scheme",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) },
			wantUser: "user_1",
		},
		{
			name:     "session cookie",
			setup:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) },
			wantUser: "user_1",
		},
		{
			name:  "basic auth is ignored",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") },
		},
		{
			name:  "invalid token stays anonymous",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
		},
		{
			name:  "no credentials",
			setup: func(r *http.Request) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			Authenticate(ts)(echoUser).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, true, body["success"], "Authenticate must never reject")
			assert.Equal(t, tt.wantUser, body["user"])
		})
	}
}

func TestRequireAuthenticated(t *testing.T) {
	t.Run("anonymous is rejected softly", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAuthenticated(echoUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, UnauthorizedMessage, body["message"])
	})

	t.Run("principal passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), "user_1"))
		rec := httptest.NewRecorder()
		RequireAuthenticated(echoUser).ServeHTTP(rec, req)

		assert.Equal(t, true, decode(t, rec)["success"])
	})
}

func TestRequireEducator(t *testing.T) {
	roles := &fakeRoles{principals: map[string]*identity.Principal{
		"edu_1": {ID: "edu_1", Role: model.RoleEducator},
	}}

	tests := []struct {
		name        string
		userID      string
		roles       *fakeRoles
		expose      bool
		wantSuccess bool
		wantMessage string
	}{
		{name: "educator passes", userID: "edu_1", roles: roles, wantSuccess: true},
		{name: "student rejected", userID: "stu_1", roles: roles, wantMessage: UnauthorizedMessage},
		{name: "anonymous rejected", roles: roles, wantMessage: UnauthorizedMessage},
		{
			name:        "lookup failure hidden",
			userID:      "edu_1",
			roles:       &fakeRoles{err: errors.New("identity: API returned status 502")},
			wantMessage: "An internal error occurred",
		},
		{
			name:        "lookup failure exposed",
			userID:      "edu_1",
			roles:       &fakeRoles{err: errors.New("identity: API returned status 502")},
			expose:      true,
			wantMessage: "identity: API returned status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != "" {
				req = req.WithContext(WithUserID(req.Context(), tt.userID))
			}
			rec := httptest.NewRecorder()

			RequireEducator(tt.roles, discardLogger, tt.expose)(echoUser).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.wantSuccess, body["success"])
			if !tt.wantSuccess {
				assert.Equal(t, tt.wantMessage, body["message"])
			}
		})
	}
}

func TestRequireEducator_LooksUpEveryRequest(t *testing.T) {
	roles := &fakeRoles{principals: map[string]*identity.Principal{}}
	h := RequireEducator(roles, discardLogger, false)(echoUser)

	call := func() map[string]any {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), "user_1"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return decode(t, rec)
	}

	assert.Equal(t, false, call()["success"])

	// promoted between two requests
	roles.principals["user_1"] = &identity.Principal{ID: "user_1", Role: model.RoleEducator}
	assert.Equal(t, true, call()["success"])
	assert.Equal(t, 2, roles.calls)
}

func TestEducatorOnly(t *testing.T) {
	err := educatorOnly(&identity.Principal{ID: "stu_1", Role: model.RoleStudent})
	require.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, UnauthorizedMessage, err.Error())

	// the role gate message is shown even when details are hidden
	assert.Equal(t, UnauthorizedMessage, apperror.PublicMessage(err, false))

	assert.NoError(t, educatorOnly(&identity.Principal{ID: "edu_1", Role: model.RoleEducator}))
}
