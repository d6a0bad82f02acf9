package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// Fake implementations of the handler use-case interfaces

type fakeTasks struct {
	createFn   func(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error)
	getFn      func(ctx context.Context, ownerID, id string) (task.Task, error)
	listFn     func(ctx context.Context, ownerID string, f task.ListFilter) ([]task.Task, error)
	updateFn   func(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error)
	completeFn func(ctx context.Context, ownerID, id string, completed bool) (task.Task, error)
	deleteFn   func(ctx context.Context, ownerID, id string) error
	statsFn    func(ctx context.Context, ownerID string) (task.Stats, error)
}

func (f *fakeTasks) Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
	if f.createFn != nil {
		return f.createFn(ctx, ownerID, req)
	}
	return task.Task{}, nil
}

func (f *fakeTasks) Get(ctx context.Context, ownerID, id string) (task.Task, error) {
	if f.getFn != nil {
		return f.getFn(ctx, ownerID, id)
	}
	return task.Task{}, nil
}

func (f *fakeTasks) List(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error) {
	if f.listFn != nil {
		return f.listFn(ctx, ownerID, filter)
	}
	return []task.Task{}, nil
}

func (f *fakeTasks) Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, ownerID, id, req)
	}
	return task.Task{}, nil
}

func (f *fakeTasks) SetCompleted(ctx context.Context, ownerID, id string, completed bool) (task.Task, error) {
	if f.completeFn != nil {
		return f.completeFn(ctx, ownerID, id, completed)
	}
	return task.Task{}, nil
}

func (f *fakeTasks) Delete(ctx context.Context, ownerID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, ownerID, id)
	}
	return nil
}

func (f *fakeTasks) Stats(ctx context.Context, ownerID string) (task.Stats, error) {
	if f.statsFn != nil {
		return f.statsFn(ctx, ownerID)
	}
	return task.Stats{}, nil
}

type fakeAuth struct {
	registerFn func(ctx context.Context, req user.SignUpRequest) (service.Session, error)
	signInFn   func(ctx context.Context, req user.SignInRequest) (service.Session, error)
	meFn       func(ctx context.Context, userID string) (user.User, error)
}

func (f *fakeAuth) Register(ctx context.Context, req user.SignUpRequest) (service.Session, error) {
	return f.registerFn(ctx, req)
}

func (f *fakeAuth) Authenticate(ctx context.Context, req user.SignInRequest) (service.Session, error) {
	return f.signInFn(ctx, req)
}

func (f *fakeAuth) Me(ctx context.Context, userID string) (user.User, error) {
	return f.meFn(ctx, userID)
}

// small helper which mounts one handler per test. asUser simulates the
// auth guard having resolved a caller.
func setupRouter(method, path string, h gin.HandlerFunc, asUser string) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())

	if asUser != "" {
		r.Use(func(c *gin.Context) {
			c.Set(middlewares.CtxUserID, asUser)
			c.Next()
		})
	}

	r.Handle(method, path, h)

	return r
}

func doJSON(r http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		RequestID string         `json:"requestId"`
		Details   map[string]any `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v body=%s", err, w.Body.String())
	}
	return env
}

func sampleTask(owner string) task.Task {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return task.Task{
		ID:        newUUID(),
		OwnerID:   owner,
		Title:     "Buy milk",
		Priority:  task.PriorityMedium,
		Tags:      []string{"a", "b"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
