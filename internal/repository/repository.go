// Package repository declares the storage contracts the service layer depends on.
//
// Two implementations live in sub-packages: sqlite (embedded, the default) and
// postgres. Both are plain database/sql code; which one runs is chosen at
// startup from DB_DRIVER.
package repository

import (
	"context"

	"github.com/sakif/course-marketplace/internal/model"
)

type UserRepository interface {
	// UpsertUserProfile creates the user or refreshes name and image.
	// An existing role is never touched; new users start as students.
	UpsertUserProfile(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// SetUserRole writes the role, creating a bare user record if needed.
	SetUserRole(ctx context.Context, id string, role model.Role) error
}

type CourseRepository interface {
	CreateCourse(ctx context.Context, course *model.Course) error
	// GetOwnedCourse matches on id AND educator in a single lookup, at any status.
	// A foreign course and a missing one both return apperror.ErrNotFound.
	GetOwnedCourse(ctx context.Context, id, educatorID string) (*model.Course, error)
	// ListCoursesByEducator returns ready courses, newest first, with
	// EnrolledStudents filled in.
	ListCoursesByEducator(ctx context.Context, educatorID string) ([]model.Course, error)
	MarkCourseReady(ctx context.Context, id, thumbnailURL, thumbnailKey string) error
	// DeleteCourse removes the course and its enrollment rows.
	DeleteCourse(ctx context.Context, id string) error

	Enroll(ctx context.Context, courseID, userID string) error
	// ListEnrollments fetches the enrollments of all given courses in one query,
	// ordered by course then enrollment time.
	ListEnrollments(ctx context.Context, courseIDs []string) ([]model.CourseEnrollment, error)
}

type PurchaseRepository interface {
	CreatePurchase(ctx context.Context, purchase *model.Purchase) error
	// ListCompletedPurchases returns completed purchases of the given courses,
	// newest first, with buyer and course title joined in.
	ListCompletedPurchases(ctx context.Context, courseIDs []string) ([]model.PurchaseDetail, error)
}

// Store is everything one backing database provides.
type Store interface {
	UserRepository
	CourseRepository
	PurchaseRepository
	Ping(ctx context.Context) error
	Close() error
}
