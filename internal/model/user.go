// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the marketplace role attached to a principal.
//
// Every user starts as a student. Promotion to educator is the only role
// transition this service performs, and it is never reversed here.
type Role string

const (
	RoleStudent  Role = "student"
	RoleEducator Role = "educator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleEducator
}

// User is the local principal record.
//
// WHY IS THE PRIMARY KEY A STRING WE DON'T GENERATE?
// Identities are issued by the external identity provider. Its subject id
// (the "sub" claim of the bearer token) is the key we store, so a token can
// be mapped to a row without any lookup table in between.
//
// EnrolledCourses is derived from the course_enrollments table; it is not a
// column on users.
type User struct {
	ID              string    `json:"_id"`
	Name            string    `json:"name"`
	ImageURL        string    `json:"imageUrl"`
	Role            Role      `json:"role"`
	EnrolledCourses []string  `json:"enrolledCourses"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// StudentSummary is the public projection of a User that reports expose.
// Only the fields an educator is allowed to see about a student are here.
type StudentSummary struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}
