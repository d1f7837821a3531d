// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes the response envelope
//	Service (business layer) → validates, enforces ownership, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take interfaces (repositories, identity provider, media store) and
// know nothing about HTTP or SQL, so every rule here is tested with plain
// function calls against in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/identity"
	"github.com/sakif/course-marketplace/internal/media"
	"github.com/sakif/course-marketplace/internal/model"
	"github.com/sakif/course-marketplace/internal/repository"
)

const (
	MaxCourseTitleLength = 200

	MsgNotAuthenticated    = "User not authenticated"
	MsgThumbnailMissing    = "Thumbnail Not Attached"
	MsgCourseNotFoundOwned = "Course not found or unauthorized"
)

// CourseInput is the courseData JSON of an add-course request.
type CourseInput struct {
	Title       string  `json:"courseTitle" validate:"required,titlelen"`
	Description string  `json:"courseDescription"`
	Price       float64 `json:"coursePrice" validate:"gte=0"`
	Discount    float64 `json:"discount" validate:"gte=0,lte=100"`
	IsPublished *bool   `json:"isPublished"` // defaults to true
}

// Upload is an incoming file, detached from how it arrived.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// EducatorService implements everything an educator can do: become one,
// publish and remove courses, and read reports about them.
type EducatorService struct {
	identity  identity.Provider
	courses   repository.CourseRepository
	purchases repository.PurchaseRepository
	media     media.Store
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewEducatorService(
	idp identity.Provider,
	courses repository.CourseRepository,
	purchases repository.PurchaseRepository,
	store media.Store,
	logger *slog.Logger,
) *EducatorService {
	return &EducatorService{
		identity:  idp,
		courses:   courses,
		purchases: purchases,
		media:     store,
		validate:  newValidator(),
		logger:    logger,
	}
}

// PromoteToEducator grants the educator role.
// alreadyEducator is true when nothing had to be written.
func (s *EducatorService) PromoteToEducator(ctx context.Context, userID string) (alreadyEducator bool, err error) {
	if userID == "" {
		return false, apperror.Unauthorized(MsgNotAuthenticated)
	}

	p, err := s.identity.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("loading user: %w", err)
	}
	if p.IsEducator() {
		return true, nil
	}

	if err := s.identity.UpdateRole(ctx, userID, model.RoleEducator); err != nil {
		return false, fmt.Errorf("updating role: %w", err)
	}

	s.logger.Info("role updated",
		slog.String("user_id", userID),
		slog.String("role", string(model.RoleEducator)),
	)
	return false, nil
}

// AddCourse creates a course owned by educatorID with thumb as its image.
//
// STAGED CREATION:
//  1. insert the course as pending_thumbnail (hidden from every listing)
//  2. upload the image under a key derived from the course id
//  3. store the URL and mark the course ready
//
// When a step fails, what earlier steps created is removed again. Cleanup
// runs on a context that ignores cancellation, so a client hanging up does
// not strand a half-created course. Cleanup errors are joined to the cause.
func (s *EducatorService) AddCourse(ctx context.Context, educatorID string, in CourseInput, thumb *Upload) (*model.Course, error) {
	if educatorID == "" {
		return nil, apperror.Unauthorized(MsgNotAuthenticated)
	}
	if thumb == nil || thumb.Body == nil {
		return nil, apperror.ValidationFailed("image", MsgThumbnailMissing)
	}

	in.Title = strings.TrimSpace(in.Title)
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}

	course := &model.Course{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Discount:    in.Discount,
		IsPublished: published,
		EducatorID:  educatorID,
		Status:      model.CourseStatusPendingThumbnail,
	}
	if err := s.courses.CreateCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("creating course: %w", err)
	}

	cleanupCtx := context.WithoutCancel(ctx)

	key := media.ThumbnailKey(course.ID, thumb.Filename)
	url, err := s.media.Upload(ctx, key, thumb.ContentType, thumb.Body)
	if err != nil {
		err = multierr.Append(
			fmt.Errorf("uploading thumbnail: %w", err),
			s.courses.DeleteCourse(cleanupCtx, course.ID),
		)
		s.logger.Error("thumbnail upload failed, course discarded",
			slog.String("course_id", course.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := s.courses.MarkCourseReady(ctx, course.ID, url, key); err != nil {
		err = multierr.Combine(
			fmt.Errorf("publishing course: %w", err),
			s.media.Delete(cleanupCtx, key),
			s.courses.DeleteCourse(cleanupCtx, course.ID),
		)
		s.logger.Error("marking course ready failed, course discarded",
			slog.String("course_id", course.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	course.ThumbnailURL = url
	course.ThumbnailKey = key
	course.Status = model.CourseStatusReady

	s.logger.Info("course created",
		slog.String("course_id", course.ID),
		slog.String("educator_id", educatorID),
	)
	return course, nil
}

// ListCourses returns the educator's published courses, newest first.
func (s *EducatorService) ListCourses(ctx context.Context, educatorID string) ([]model.Course, error) {
	courses, err := s.courses.ListCoursesByEducator(ctx, educatorID)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return courses, nil
}

// Dashboard aggregates earnings, course count and enrolled students.
//
// Earnings come from completed purchases; enrolled students come from the
// courses' enrollment lists. The two sources are independent and may not
// agree. Each is fetched with one query over all owned courses, and the two
// queries run concurrently.
func (s *EducatorService) Dashboard(ctx context.Context, educatorID string) (*model.DashboardData, error) {
	courses, err := s.courses.ListCoursesByEducator(ctx, educatorID)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}

	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}

	var (
		earnings    float64
		enrollments []model.CourseEnrollment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		purchases, err := s.purchases.ListCompletedPurchases(gctx, ids)
		if err != nil {
			return fmt.Errorf("listing purchases: %w", err)
		}
		for _, p := range purchases {
			earnings += p.Amount
		}
		return nil
	})
	g.Go(func() error {
		var err error
		enrollments, err = s.courses.ListEnrollments(gctx, ids)
		if err != nil {
			return fmt.Errorf("listing enrollments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.DashboardData{
		TotalEarnings:        earnings,
		TotalCourses:         len(courses),
		EnrolledStudentsData: enrolledRows(courses, enrollments),
	}, nil
}

// enrolledRows flattens enrollments into (courseTitle, student) rows in
// course order, keeping enrollment order within a course.
func enrolledRows(courses []model.Course, enrollments []model.CourseEnrollment) []model.EnrolledStudentRow {
	byCourse := make(map[string][]model.StudentSummary, len(courses))
	for _, e := range enrollments {
		byCourse[e.CourseID] = append(byCourse[e.CourseID], e.Student)
	}

	rows := make([]model.EnrolledStudentRow, 0, len(enrollments))
	for _, c := range courses {
		for _, st := range byCourse[c.ID] {
			rows = append(rows, model.EnrolledStudentRow{CourseTitle: c.Title, Student: st})
		}
	}
	return rows
}

// EnrolledStudents lists who bought the educator's courses, newest purchase
// first. Only completed purchases count.
func (s *EducatorService) EnrolledStudents(ctx context.Context, educatorID string) ([]model.EnrolledStudentPurchase, error) {
	courses, err := s.courses.ListCoursesByEducator(ctx, educatorID)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}

	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}

	purchases, err := s.purchases.ListCompletedPurchases(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}

	out := make([]model.EnrolledStudentPurchase, len(purchases))
	for i, p := range purchases {
		out[i] = model.EnrolledStudentPurchase{
			Student:      p.Student,
			CourseTitle:  p.CourseTitle,
			PurchaseDate: p.CreatedAt,
		}
	}
	return out, nil
}

// DeleteCourse removes a course the educator owns.
//
// Ownership is part of the lookup, so a course that belongs to someone else
// and one that does not exist produce the same error. Purchases of the course
// are kept. The thumbnail is removed best effort: a failure is logged and the
// request still succeeds.
func (s *EducatorService) DeleteCourse(ctx context.Context, educatorID, courseID string) error {
	if educatorID == "" {
		return apperror.Unauthorized(MsgNotAuthenticated)
	}
	if courseID == "" {
		return apperror.NotFoundWithMessage(MsgCourseNotFoundOwned)
	}

	course, err := s.courses.GetOwnedCourse(ctx, courseID, educatorID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFoundWithMessage(MsgCourseNotFoundOwned)
		}
		return fmt.Errorf("loading course: %w", err)
	}

	if err := s.courses.DeleteCourse(ctx, course.ID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFoundWithMessage(MsgCourseNotFoundOwned)
		}
		return fmt.Errorf("deleting course: %w", err)
	}

	if course.ThumbnailKey != "" {
		if err := s.media.Delete(ctx, course.ThumbnailKey); err != nil {
			s.logger.Warn("thumbnail cleanup failed",
				slog.String("course_id", course.ID),
				slog.String("key", course.ThumbnailKey),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("course deleted",
		slog.String("course_id", course.ID),
		slog.String("educator_id", educatorID),
	)
	return nil
}

// newValidator reports fields by their JSON names, the names the client sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// registered on a fresh validator, cannot fail
	_ = v.RegisterValidation("titlelen", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= MaxCourseTitleLength
	})
	return v
}

// validateInput turns the first validator failure into a field error.
func (s *EducatorService) validateInput(in CourseInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validating course: %w", err)
	}

	fe := verrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "titlelen":
		msg = fmt.Sprintf("%s must be at most %d characters", field, MaxCourseTitleLength)
	case "gte":
		msg = fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		msg = fmt.Sprintf("%s must be <= %s", field, fe.Param())
	default:
		msg = field + " is invalid"
	}
	return apperror.ValidationFailed(field, msg)
}
