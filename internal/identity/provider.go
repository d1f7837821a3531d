// Package identity talks to whoever owns user identities and roles.
//
// Two providers exist. Local keeps the principal record in our own users
// table. Clerk reads and writes the role in a Clerk-compatible backend API,
// where the role lives in the user's public metadata. Both satisfy Provider,
// so the educator service and the authorization middleware never know which
// one is configured.
package identity

import (
	"context"
	"strings"

	"github.com/sakif/course-marketplace/internal/model"
)

// Principal is an authenticated user as the identity provider sees it.
type Principal struct {
	ID       string
	Name     string
	ImageURL string
	Role     model.Role
}

// IsEducator reports whether the principal may manage courses.
func (p *Principal) IsEducator() bool {
	return p != nil && p.Role == model.RoleEducator
}

type Provider interface {
	GetUser(ctx context.Context, id string) (*Principal, error)
	UpdateRole(ctx context.Context, id string, role model.Role) error
}

// UserData is the user object of the provider's API and webhook payloads.
type UserData struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
	PublicMetadata PublicMetadata `json:"public_metadata"`
}

type PublicMetadata struct {
	Role model.Role `json:"role,omitempty"`
}

// FullName joins first and last name, skipping whichever is empty.
func (u UserData) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Principal converts the API user, defaulting a missing role to student.
func (u UserData) Principal() *Principal {
	role := u.PublicMetadata.Role
	if !role.Valid() {
		role = model.RoleStudent
	}
	return &Principal{ID: u.ID, Name: u.FullName(), ImageURL: u.ImageURL, Role: role}
}
