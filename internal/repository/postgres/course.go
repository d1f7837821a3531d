package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/model"
	"github.com/sakif/course-marketplace/internal/repository"
)

var _ repository.CourseRepository = (*DB)(nil)

const courseColumns = `id, title, description, thumbnail_url, thumbnail_key, price, discount,
	is_published, educator_id, status, created_at, updated_at`

func (db *DB) CreateCourse(ctx context.Context, course *model.Course) error {
	course.ID = xid.New().String()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	course.UpdatedAt = course.CreatedAt
	if course.Status == "" {
		course.Status = model.CourseStatusPendingThumbnail
	}
	if course.EnrolledStudents == nil {
		course.EnrolledStudents = []string{}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO courses (`+courseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		course.ID,
		course.Title,
		course.Description,
		course.ThumbnailURL,
		course.ThumbnailKey,
		course.Price,
		course.Discount,
		course.IsPublished,
		course.EducatorID,
		string(course.Status),
		course.CreatedAt,
		course.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: inserting course: %w", err)
	}
	return nil
}

func (db *DB) GetOwnedCourse(ctx context.Context, id, educatorID string) (*model.Course, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1 AND educator_id = $2`,
		id, educatorID,
	)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("course", id)
		}
		return nil, fmt.Errorf("postgres: getting course %s: %w", id, err)
	}
	return c, nil
}

func (db *DB) ListCoursesByEducator(ctx context.Context, educatorID string) ([]model.Course, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses
		 WHERE educator_id = $1 AND status = $2
		 ORDER BY created_at DESC, id DESC`,
		educatorID, string(model.CourseStatusReady),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing courses: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning course: %w", err)
		}
		courses = append(courses, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating courses: %w", err)
	}
	rows.Close()

	if len(courses) == 0 {
		return courses, nil
	}

	ids := make([]string, len(courses))
	index := make(map[string]int, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
		index[c.ID] = i
	}

	erows, err := db.conn.QueryContext(ctx,
		`SELECT course_id, user_id FROM course_enrollments
		 WHERE course_id = ANY($1)
		 ORDER BY enrolled_at`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing enrollments: %w", err)
	}
	defer erows.Close()

	for erows.Next() {
		var courseID, userID string
		if err := erows.Scan(&courseID, &userID); err != nil {
			return nil, fmt.Errorf("postgres: scanning enrollment: %w", err)
		}
		i := index[courseID]
		courses[i].EnrolledStudents = append(courses[i].EnrolledStudents, userID)
	}
	if err := erows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating enrollments: %w", err)
	}

	return courses, nil
}

func (db *DB) MarkCourseReady(ctx context.Context, id, thumbnailURL, thumbnailKey string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE courses SET thumbnail_url = $1, thumbnail_key = $2, status = $3, updated_at = $4
		 WHERE id = $5`,
		thumbnailURL, thumbnailKey, string(model.CourseStatusReady), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("postgres: marking course %s ready: %w", id, err)
	}
	return expectOneRow(result, "course", id)
}

func (db *DB) DeleteCourse(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_enrollments WHERE course_id = $1`, id); err != nil {
		return fmt.Errorf("postgres: deleting enrollments of course %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting course %s: %w", id, err)
	}
	if err := expectOneRow(result, "course", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: committing course delete: %w", err)
	}
	return nil
}

func (db *DB) Enroll(ctx context.Context, courseID, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO course_enrollments (course_id, user_id, enrolled_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (course_id, user_id) DO NOTHING`,
		courseID, userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: enrolling %s in course %s: %w", userID, courseID, err)
	}
	return nil
}

// ListEnrollments only returns students that have a user record.
func (db *DB) ListEnrollments(ctx context.Context, courseIDs []string) ([]model.CourseEnrollment, error) {
	if len(courseIDs) == 0 {
		return []model.CourseEnrollment{}, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT e.course_id, e.user_id, u.name, u.image_url, e.enrolled_at
		 FROM course_enrollments e
		 JOIN users u ON u.id = e.user_id
		 WHERE e.course_id = ANY($1)
		 ORDER BY e.course_id, e.enrolled_at`,
		courseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing enrollments: %w", err)
	}
	defer rows.Close()

	out := []model.CourseEnrollment{}
	for rows.Next() {
		var e model.CourseEnrollment
		if err := rows.Scan(&e.CourseID, &e.Student.ID, &e.Student.Name, &e.Student.ImageURL, &e.EnrolledAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning enrollment: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating enrollments: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(s scanner) (*model.Course, error) {
	var c model.Course
	var status string
	err := s.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.ThumbnailURL,
		&c.ThumbnailKey,
		&c.Price,
		&c.Discount,
		&c.IsPublished,
		&c.EducatorID,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = model.CourseStatus(status)
	c.EnrolledStudents = []string{}
	return &c, nil
}

func expectOneRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
