package handler

// RESPONSE HELPERS:
// Every educator endpoint answers HTTP 200 with the same envelope:
//
//	{"success": true,  "message": "Course Added"}
//	{"success": true,  "courses": [...]}
//	{"success": false, "message": "Course not found or unauthorized"}
//
// The web client branches on "success", not on the status code, so failures
// are reported inside a 200 as well. Only transport-level problems (body too
// large, bad webhook signature) use real status codes.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/course-marketplace/internal/apperror"
)

// Envelope is the body of every educator response.
// Exactly one of the optional fields is set.
type Envelope struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	Courses          any    `json:"courses,omitempty"`
	DashboardData    any    `json:"dashboardData,omitempty"`
	EnrolledStudents any    `json:"enrolledStudents,omitempty"`
}

// writeJSON sends data with the given status code.
// Headers and status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent, all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeOK(w http.ResponseWriter, env Envelope) {
	env.Success = true
	writeJSON(w, http.StatusOK, env)
}

func writeMessage(w http.ResponseWriter, message string) {
	writeOK(w, Envelope{Message: message})
}

func writeFailure(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Envelope{Success: false, Message: message})
}

// errorWriter turns errors into soft failures.
//
// AppErrors carry a message meant for the user and are shown as is. Anything
// else is unexpected: it is logged in full and the client sees either the raw
// text (exposeDetails) or apperror.InternalMessage.
type errorWriter struct {
	logger        *slog.Logger
	exposeDetails bool
}

func (e errorWriter) writeError(w http.ResponseWriter, r *http.Request, err error) {
	level := slog.LevelError
	if isExpected(err) {
		level = slog.LevelInfo
	}
	e.logger.Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeFailure(w, apperror.PublicMessage(err, e.exposeDetails))
}

func isExpected(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr)
}
