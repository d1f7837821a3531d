package postgres

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

// UpsertUserProfile leaves role out of the UPDATE list so profile syncs never
// demote an educator.
func (db *DB) UpsertUserProfile(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, image_url, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at`,
		user.ID, user.Name, user.ImageURL, string(model.RoleStudent), now,
	)
	if err != nil {
		return fmt.Errorf("postgres: upserting user %s: %w", user.ID, err)
	}
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, image_url, role, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.ImageURL, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	u.Role = model.Role(role)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT course_id FROM course_enrollments WHERE user_id = $1 ORDER BY enrolled_at`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing enrollments of user %s: %w", id, err)
	}
	defer rows.Close()

	u.EnrolledCourses = []string{}
	for rows.Next() {
		var courseID string
		if err := rows.Scan(&courseID); err != nil {
			return nil, fmt.Errorf("postgres: scanning enrollment: %w", err)
		}
		u.EnrolledCourses = append(u.EnrolledCourses, courseID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating enrollments: %w", err)
	}
	return &u, nil
}

func (db *DB) SetUserRole(ctx context.Context, id string, role model.Role) error {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $3)
		 ON CONFLICT (id) DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at`,
		id, string(role), now,
	)
	if err != nil {
		return fmt.Errorf("postgres: setting role of user %s: %w", id, err)
	}
	return nil
}
