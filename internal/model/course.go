package model

import "time"

// CourseStatus tracks where a course is in its creation lifecycle.
//
// STAGED CREATION:
// A course row is written before its thumbnail exists, because the object key
// of the thumbnail contains the course ID. Until the upload has succeeded and
// the URL is patched in, the row stays in CourseStatusPendingThumbnail and is
// excluded from every listing and report. Only CourseStatusReady rows are
// visible to readers.
type CourseStatus string

const (
	CourseStatusPendingThumbnail CourseStatus = "pending_thumbnail"
	CourseStatusReady            CourseStatus = "ready"
)

// Course is a course published by an educator.
//
// The JSON field names match what the marketplace web client already reads
// (courseTitle, coursePrice, _id, ...), so the API stays wire-compatible with it.
type Course struct {
	ID               string       `json:"_id"`
	Title            string       `json:"courseTitle"`
	Description      string       `json:"courseDescription"`
	ThumbnailURL     string       `json:"courseThumbnail"`
	ThumbnailKey     string       `json:"-"` // object key at the media host, used for cleanup
	Price            float64      `json:"coursePrice"`
	Discount         float64      `json:"discount"` // percent, 0-100
	IsPublished      bool         `json:"isPublished"`
	EducatorID       string       `json:"educator"`
	EnrolledStudents []string     `json:"enrolledStudents"`
	Status           CourseStatus `json:"status"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// CourseEnrollment is an enrollment joined with the enrolled student's profile.
// Produced by the batched dashboard query.
type CourseEnrollment struct {
	CourseID   string
	Student    StudentSummary
	EnrolledAt time.Time
}
