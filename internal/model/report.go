package model

import "time"

// DashboardData is the educator dashboard aggregate.
type DashboardData struct {
	TotalEarnings        float64              `json:"totalEarnings"`
	TotalCourses         int                  `json:"totalCourses"`
	EnrolledStudentsData []EnrolledStudentRow `json:"enrolledStudentsData"`
}

// EnrolledStudentRow pairs a student with the title of a course they are enrolled in.
// Sourced from course enrollments.
type EnrolledStudentRow struct {
	CourseTitle string         `json:"courseTitle"`
	Student     StudentSummary `json:"student"`
}

// EnrolledStudentPurchase is one line of the enrolled-students report.
// Sourced from completed purchases, so it can disagree with EnrolledStudentRow
// when enrollments and purchases are out of sync.
type EnrolledStudentPurchase struct {
	Student      *StudentSummary `json:"student"`
	CourseTitle  string          `json:"courseTitle"`
	PurchaseDate time.Time       `json:"purchaseDate"`
}
