package model

import "time"

// PurchaseStatus is the payment state of a purchase.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// Purchase records a student buying a course.
//
// Purchases are written by the checkout flow, which lives outside the
// educator service. Here they are only read: completed purchases are the
// source of earnings and of the enrolled-students report.
type Purchase struct {
	ID        string         `json:"_id"`
	CourseID  string         `json:"courseId"`
	UserID    string         `json:"userId"`
	Amount    float64        `json:"amount"`
	Status    PurchaseStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// PurchaseDetail is a purchase with its foreign keys expanded.
//
// Student is nil when the purchasing user has no local record, the same way
// an unresolved reference would come back empty.
type PurchaseDetail struct {
	Purchase
	Student     *StudentSummary
	CourseTitle string
}
