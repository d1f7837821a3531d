package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/model"
)

func TestUpsertUserProfile_NewUserIsStudent(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "user_1", "Ada")

	got, err := db.GetUserByID(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Name != "Ada" {
		t.Errorf("Name = %q, want %q", got.Name, "Ada")
	}
	if got.Role != model.RoleStudent {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleStudent)
	}
	if got.EnrolledCourses == nil || len(got.EnrolledCourses) != 0 {
		t.Errorf("EnrolledCourses = %v, want empty slice", got.EnrolledCourses)
	}
}

func TestUpsertUserProfile_KeepsRole(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestUser(t, db, "user_1", "Ada")
	if err := db.SetUserRole(ctx, "user_1", model.RoleEducator); err != nil {
		t.Fatalf("SetUserRole() error = %v", err)
	}

	// profile sync after promotion
	if err := db.UpsertUserProfile(ctx, &model.User{ID: "user_1", Name: "Ada Lovelace"}); err != nil {
		t.Fatalf("UpsertUserProfile() error = %v", err)
	}

	got, err := db.GetUserByID(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Role != model.RoleEducator {
		t.Errorf("Role = %q, want %q (profile sync must not demote)", got.Role, model.RoleEducator)
	}
	if got.Name != "Ada Lovelace" {
		t.Errorf("Name = %q, want %q", got.Name, "Ada Lovelace")
	}
}

func TestSetUserRole_CreatesMissingUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SetUserRole(ctx, "user_new", model.RoleEducator); err != nil {
		t.Fatalf("SetUserRole() error = %v", err)
	}

	got, err := db.GetUserByID(ctx, "user_new")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Role != model.RoleEducator {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleEducator)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByID_EnrolledCourses(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestUser(t, db, "student_1", "Sam")
	base := time.Now().UTC()
	c1 := createTestCourse(t, db, "edu_1", "Go Basics", base)
	c2 := createTestCourse(t, db, "edu_1", "Go Advanced", base.Add(time.Second))

	for _, c := range []*model.Course{c1, c2} {
		if err := db.Enroll(ctx, c.ID, "student_1"); err != nil {
			t.Fatalf("Enroll() error = %v", err)
		}
	}

	got, err := db.GetUserByID(ctx, "student_1")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if len(got.EnrolledCourses) != 2 {
		t.Errorf("len(EnrolledCourses) = %d, want 2", len(got.EnrolledCourses))
	}
}
