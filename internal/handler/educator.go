// Package handler contains the HTTP handlers of the marketplace API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming request (path params, multipart form, body)
// 2. Call the service layer
// 3. Write the response envelope
//
// Handlers hold no business rules. Ownership, validation and staging all
// live in internal/service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/course-marketplace/internal/auth"
	"github.com/sakif/course-marketplace/internal/model"
	"github.com/sakif/course-marketplace/internal/service"
)

const (
	MsgAlreadyEducator = "You are already an educator"
	MsgNowEducator     = "You can publish a course now"
	MsgCourseAdded     = "Course Added"
	MsgCourseDeleted   = "Course deleted successfully"
	MsgInvalidCourse   = "Invalid course data"
	MsgUploadTooLarge  = "Upload too large"
)

// EducatorService is what the handlers need from the business layer.
// *service.EducatorService satisfies it; tests use a fake.
type EducatorService interface {
	PromoteToEducator(ctx context.Context, userID string) (bool, error)
	AddCourse(ctx context.Context, educatorID string, in service.CourseInput, thumb *service.Upload) (*model.Course, error)
	ListCourses(ctx context.Context, educatorID string) ([]model.Course, error)
	Dashboard(ctx context.Context, educatorID string) (*model.DashboardData, error)
	EnrolledStudents(ctx context.Context, educatorID string) ([]model.EnrolledStudentPurchase, error)
	DeleteCourse(ctx context.Context, educatorID, courseID string) error
}

// EducatorHandler serves /api/educator.
//
// Every route sits behind auth.Authenticate, so the caller's id is read from
// the request context. Handlers never parse tokens themselves.
type EducatorHandler struct {
	svc            EducatorService
	maxUploadBytes int64
	logger         *slog.Logger
	errs           errorWriter
}

func NewEducatorHandler(svc EducatorService, maxUploadBytes int64, exposeErrors bool, logger *slog.Logger) *EducatorHandler {
	return &EducatorHandler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
		errs:           errorWriter{logger: logger, exposeDetails: exposeErrors},
	}
}

// HandleUpdateRole promotes the caller to educator.
//
// HTTP: GET /api/educator/update-role
func (h *EducatorHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	already, err := h.svc.PromoteToEducator(r.Context(), userID)
	if err != nil {
		h.errs.writeError(w, r, err)
		return
	}
	if already {
		writeMessage(w, MsgAlreadyEducator)
		return
	}
	writeMessage(w, MsgNowEducator)
}

// HandleAddCourse creates a course from a multipart form.
//
// HTTP: POST /api/educator/add-course
// FORM: image=<file>, courseData=<JSON CourseInput>
//
// The image is checked before courseData is decoded, so a request missing
// both reports the missing thumbnail.
func (h *EducatorHandler) HandleAddCourse(w http.ResponseWriter, r *http.Request) {
	// MaxBytesReader fails the read once the limit is passed, so an oversized
	// upload is never fully buffered.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, Envelope{Message: MsgUploadTooLarge})
			return
		}
		if errors.Is(err, http.ErrNotMultipart) {
			writeFailure(w, service.MsgThumbnailMissing)
			return
		}
		h.logger.Warn("invalid multipart body", slog.String("error", err.Error()))
		writeFailure(w, MsgInvalidCourse)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeFailure(w, service.MsgThumbnailMissing)
		return
	}
	defer file.Close()

	var in service.CourseInput
	if err := json.Unmarshal([]byte(r.FormValue("courseData")), &in); err != nil {
		h.logger.Info("invalid courseData", slog.String("error", err.Error()))
		writeFailure(w, MsgInvalidCourse)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	thumb := &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}

	if _, err := h.svc.AddCourse(r.Context(), userID, in, thumb); err != nil {
		h.errs.writeError(w, r, err)
		return
	}
	writeMessage(w, MsgCourseAdded)
}

// HTTP: GET /api/educator/courses
func (h *EducatorHandler) HandleListCourses(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	courses, err := h.svc.ListCourses(r.Context(), userID)
	if err != nil {
		h.errs.writeError(w, r, err)
		return
	}
	if courses == nil {
		courses = []model.Course{}
	}
	writeOK(w, Envelope{Courses: courses})
}

// HTTP: GET /api/educator/dashboard
func (h *EducatorHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	data, err := h.svc.Dashboard(r.Context(), userID)
	if err != nil {
		h.errs.writeError(w, r, err)
		return
	}
	writeOK(w, Envelope{DashboardData: data})
}

// HTTP: GET /api/educator/enrolled-students
func (h *EducatorHandler) HandleEnrolledStudents(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	students, err := h.svc.EnrolledStudents(r.Context(), userID)
	if err != nil {
		h.errs.writeError(w, r, err)
		return
	}
	if students == nil {
		students = []model.EnrolledStudentPurchase{}
	}
	writeOK(w, Envelope{EnrolledStudents: students})
}

// HandleDeleteCourse removes one of the caller's courses.
//
// HTTP: DELETE /api/educator/course/{id}
func (h *EducatorHandler) HandleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	courseID := strings.TrimSpace(chi.URLParam(r, "id"))

	if err := h.svc.DeleteCourse(r.Context(), userID, courseID); err != nil {
		h.errs.writeError(w, r, err)
		return
	}
	writeMessage(w, MsgCourseDeleted)
}
