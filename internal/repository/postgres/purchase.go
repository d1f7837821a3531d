package postgres

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
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.CourseID, p.UserID, p.Amount, string(p.Status), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: inserting purchase: %w", err)
	}
	return nil
}

func (db *DB) ListCompletedPurchases(ctx context.Context, courseIDs []string) ([]model.PurchaseDetail, error) {
	if len(courseIDs) == 0 {
		return []model.PurchaseDetail{}, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, p.course_id, p.user_id, p.amount, p.status, p.created_at,
		        u.id, u.name, u.image_url, COALESCE(c.title, '')
		 FROM purchases p
		 LEFT JOIN users u ON u.id = p.user_id
		 LEFT JOIN courses c ON c.id = p.course_id
		 WHERE p.status = $1 AND p.course_id = ANY($2)
		 ORDER BY p.created_at DESC, p.id DESC`,
		string(model.PurchaseStatusCompleted), courseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing purchases: %w", err)
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
			return nil, fmt.Errorf("postgres: scanning purchase: %w", err)
		}
		d.Status = model.PurchaseStatus(status)
		if uid.Valid {
			d.Student = &model.StudentSummary{ID: uid.String, Name: uname.String, ImageURL: uimage.String}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating purchases: %w", err)
	}
	return out, nil
}
