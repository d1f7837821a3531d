package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/identity"
	"github.com/sakif/course-marketplace/internal/model"
)

// Hand-written in-memory fakes. Each can be told to fail so error paths are
// reachable without a database or network.

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var errBoom = errors.New("boom")

// --- identity ---

type fakeIdentity struct {
	roles     map[string]model.Role
	getErr    error
	updateErr error
	updates   int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{roles: make(map[string]model.Role)}
}

func (f *fakeIdentity) GetUser(_ context.Context, id string) (*identity.Principal, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	role, ok := f.roles[id]
	if !ok {
		role = model.RoleStudent
	}
	return &identity.Principal{ID: id, Role: role}, nil
}

func (f *fakeIdentity) UpdateRole(_ context.Context, id string, role model.Role) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	f.roles[id] = role
	return nil
}

// --- courses ---

type fakeCourseRepo struct {
	mu          sync.Mutex
	courses     map[string]*model.Course
	enrollments []model.CourseEnrollment
	nextID      int

	createErr    error
	markReadyErr error
	deleteErr    error
	listErr      error
	enrollErr    error

	deleted         []string
	enrollmentCalls int
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: make(map[string]*model.Course)}
}

func (f *fakeCourseRepo) CreateCourse(_ context.Context, c *model.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	c.ID = fmt.Sprintf("course-%d", f.nextID)
	if c.Status == "" {
		c.Status = model.CourseStatusPendingThumbnail
	}
	stored := *c
	f.courses[c.ID] = &stored
	return nil
}

func (f *fakeCourseRepo) GetOwnedCourse(_ context.Context, id, educatorID string) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok || c.EducatorID != educatorID {
		return nil, apperror.NotFound("course", id)
	}
	result := *c
	return &result, nil
}

func (f *fakeCourseRepo) ListCoursesByEducator(_ context.Context, educatorID string) ([]model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Course{}
	for _, c := range f.courses {
		if c.EducatorID == educatorID && c.Status == model.CourseStatusReady {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeCourseRepo) MarkCourseReady(_ context.Context, id, url, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markReadyErr != nil {
		return f.markReadyErr
	}
	c, ok := f.courses[id]
	if !ok {
		return apperror.NotFound("course", id)
	}
	c.ThumbnailURL, c.ThumbnailKey, c.Status = url, key, model.CourseStatusReady
	return nil
}

func (f *fakeCourseRepo) DeleteCourse(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.courses[id]; !ok {
		return apperror.NotFound("course", id)
	}
	delete(f.courses, id)
	f.deleted = append(f.deleted, id)
	kept := f.enrollments[:0]
	for _, e := range f.enrollments {
		if e.CourseID != id {
			kept = append(kept, e)
		}
	}
	f.enrollments = kept
	return nil
}

func (f *fakeCourseRepo) Enroll(_ context.Context, courseID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollments = append(f.enrollments, model.CourseEnrollment{
		CourseID: courseID,
		Student:  model.StudentSummary{ID: userID, Name: "name-" + userID},
	})
	return nil
}

func (f *fakeCourseRepo) ListEnrollments(_ context.Context, courseIDs []string) ([]model.CourseEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollmentCalls++
	if f.enrollErr != nil {
		return nil, f.enrollErr
	}
	want := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		want[id] = true
	}
	out := []model.CourseEnrollment{}
	for _, e := range f.enrollments {
		if want[e.CourseID] {
			out = append(out, e)
		}
	}
	return out, nil
}

// addReady stores a ready course directly, bypassing AddCourse.
func (f *fakeCourseRepo) addReady(id, educatorID, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses[id] = &model.Course{
		ID:           id,
		Title:        title,
		EducatorID:   educatorID,
		Status:       model.CourseStatusReady,
		ThumbnailKey: "courses/" + id + "/thumbnail.png",
	}
}

// --- purchases ---

type fakePurchaseRepo struct {
	mu        sync.Mutex
	purchases []model.PurchaseDetail
	err       error
	calls     int
}

func (f *fakePurchaseRepo) CreatePurchase(_ context.Context, p *model.Purchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purchases = append(f.purchases, model.PurchaseDetail{Purchase: *p})
	return nil
}

func (f *fakePurchaseRepo) ListCompletedPurchases(_ context.Context, courseIDs []string) ([]model.PurchaseDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		want[id] = true
	}
	out := []model.PurchaseDetail{}
	for _, p := range f.purchases {
		if want[p.CourseID] && p.Status == model.PurchaseStatusCompleted {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- media ---

type fakeMedia struct {
	objects   map[string]string
	uploadErr error
	deleteErr error
	deleted   []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: make(map[string]string)}
}

func (f *fakeMedia) Upload(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	b, _ := io.ReadAll(body)
	f.objects[key] = string(b)
	return "https://cdn.test/" + key, nil
}

func (f *fakeMedia) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

// --- users ---

type fakeUserRepo struct {
	users map[string]*model.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) UpsertUserProfile(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	existing, ok := f.users[u.ID]
	if !ok {
		stored := *u
		stored.Role = model.RoleStudent
		f.users[u.ID] = &stored
		return nil
	}
	existing.Name, existing.ImageURL = u.Name, u.ImageURL
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func (f *fakeUserRepo) SetUserRole(_ context.Context, id string, role model.Role) error {
	u, ok := f.users[id]
	if !ok {
		u = &model.User{ID: id}
		f.users[id] = u
	}
	u.Role = role
	return nil
}
