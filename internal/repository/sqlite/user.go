package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/model"
	"github.com/sakif/course-marketplace/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// UpsertUserProfile inserts the user or refreshes name and image.
//
// ON CONFLICT ... DO UPDATE rather than INSERT OR REPLACE: REPLACE deletes the
// old row first, which would reset the role to its default. Only the profile
// columns are listed in the UPDATE, so a promoted educator stays an educator
// however often the identity provider re-sends the profile.
func (db *DB) UpsertUserProfile(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, image_url, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at`,
		user.ID, user.Name, user.ImageURL, string(model.RoleStudent), now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user %s: %w", user.ID, err)
	}
	user.UpdatedAt = now
	return nil
}

// GetUserByID retrieves a user with the ids of the courses they are enrolled in.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, image_url, role, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Name, &u.ImageURL, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT course_id FROM course_enrollments WHERE user_id = ? ORDER BY enrolled_at`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing enrollments of user %s: %w", id, err)
	}
	defer rows.Close()

	u.EnrolledCourses = []string{}
	for rows.Next() {
		var courseID string
		if err := rows.Scan(&courseID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning enrollment: %w", err)
		}
		u.EnrolledCourses = append(u.EnrolledCourses, courseID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating enrollments: %w", err)
	}

	return &u, nil
}

// SetUserRole writes the role. A user the identity webhook has not delivered
// yet is created with an empty profile.
func (db *DB) SetUserRole(ctx context.Context, id string, role model.Role) error {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			role = excluded.role,
			updated_at = excluded.updated_at`,
		id, string(role), now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting role of user %s: %w", id, err)
	}
	return nil
}
