package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/course-marketplace/internal/model"
	"github.com/sakif/course-marketplace/internal/repository"
)

var _ repository.PurchaseRepository = (*DB)(nil)

func (db *DB) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	p.ID = xid.New().String()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = model.PurchaseStatusPending
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO purchases (id, course_id, user_id, amount, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.CourseID, p.UserID, p.Amount, string(p.Status), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting purchase: %w", err)
	}
	return nil
}

// ListCompletedPurchases expands buyer and course in the same query.
// A buyer with no users row yields a nil Student.
func (db *DB) ListCompletedPurchases(ctx context.Context, courseIDs []string) ([]model.PurchaseDetail, error) {
	if len(courseIDs) == 0 {
		return []model.PurchaseDetail{}, nil
	}

	in, args := inClause(courseIDs)
	args = append([]any{string(model.PurchaseStatusCompleted)}, args...)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, p.course_id, p.user_id, p.amount, p.status, p.created_at,
		        u.id, u.name, u.image_url, COALESCE(c.title, '')
		 FROM purchases p
		 LEFT JOIN users u ON u.id = p.user_id
		 LEFT JOIN courses c ON c.id = p.course_id
		 WHERE p.status = ? AND p.course_id IN (`+in+`)
		 ORDER BY p.created_at DESC, p.id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing purchases: %w", err)
	}
	defer rows.Close()

	out := []model.PurchaseDetail{}
	for rows.Next() {
		var (
			d                  model.PurchaseDetail
			status             string
			uid, uname, uimage sql.NullString
		)
		if err := rows.Scan(
			&d.ID, &d.CourseID, &d.UserID, &d.Amount, &status, &d.CreatedAt,
			&uid, &uname, &uimage, &d.CourseTitle,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning purchase: %w", err)
		}
		d.Status = model.PurchaseStatus(status)
		if uid.Valid {
			d.Student = &model.StudentSummary{ID: uid.String, Name: uname.String, ImageURL: uimage.String}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating purchases: %w", err)
	}
	return out, nil
}
