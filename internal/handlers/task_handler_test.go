package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NaiYuk/Taskun/internal/models"
	"github.com/NaiYuk/Taskun/internal/repositories"
	"github.com/NaiYuk/Taskun/internal/services"
)

// fakeTaskService records calls and serves canned data.
type fakeTaskService struct {
	lastFilter models.TaskFilter
	listing    *models.TaskListing
	tasks      map[string]*models.Task
}

func newFakeTaskService() *fakeTaskService {
	return &fakeTaskService{
		listing: &models.TaskListing{Tasks: []models.Task{}},
		tasks:   map[string]*models.Task{},
	}
}

func (f *fakeTaskService) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	if task.ID == "" {
		task.ID = "generated-id"
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeTaskService) GetByID(_ context.Context, userID, id string) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, repositories.ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeTaskService) List(_ context.Context, _ string, filter models.TaskFilter) (*models.TaskListing, error) {
	f.lastFilter = filter
	return f.listing, nil
}

func (f *fakeTaskService) Update(_ context.Context, userID, id string, updateData *models.Task) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, repositories.ErrTaskNotFound
	}
	*t = *updateData
	return t, nil
}

func (f *fakeTaskService) Delete(_ context.Context, userID, id string) error {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return repositories.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

// testUser fakes the auth middleware by injecting the session into the
// context.
func testUser(userID, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_email", email)
		c.Next()
	}
}

func newTaskRouter(svc services.TaskService, slack *services.SlackService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(testUser("u1", "u1@example.com"))

	h := NewTaskHandler(svc, slack)
	r.POST("/tasks", h.Create)
	r.GET("/tasks", h.List)
	r.GET("/tasks/:id", h.GetByID)
	r.PUT("/tasks/:id", h.Update)
	r.DELETE("/tasks/:id", h.Delete)
	return r
}

func TestCreateTask_Returns201WithDefaults(t *testing.T) {
	svc := newFakeTaskService()
	r := newTaskRouter(svc, services.NewSlackService(""))

	body := []byte(`{"title":"買い物"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var got models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "買い物", got.Title)
	assert.Equal(t, models.StatusTodo, got.Status)
	assert.Equal(t, models.PriorityMedium, got.Priority)
	assert.Equal(t, "u1", got.UserID)
}

func TestCreateTask_SucceedsWhenNotificationFails(t *testing.T) {
	notified := make(chan struct{}, 1)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notified <- struct{}{}
		http.Error(w, "channel_not_found", http.StatusNotFound)
	}))
	defer webhook.Close()

	svc := newFakeTaskService()
	r := newTaskRouter(svc, services.NewSlackService(webhook.URL))

	body := []byte(`{"title":"notify me"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, "notification failure never affects the create")

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never dispatched")
	}
}

func TestCreateTask_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"description":"no title"}`},
		{"bad status", `{"title":"x","status":"cancelled"}`},
		{"bad priority", `{"title":"x","priority":"urgent"}`},
		{"bad due_date", `{"title":"x","due_date":"tomorrow"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTaskRouter(newFakeTaskService(), services.NewSlackService(""))
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestListTasks_ParsesFilters(t *testing.T) {
	svc := newFakeTaskService()
	r := newTaskRouter(svc, services.NewSlackService(""))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks?search=milk&statuses=todo,done&due_filters=overdue,due_soon", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "milk", svc.lastFilter.Search)
	assert.Equal(t, []models.TaskStatus{models.StatusTodo, models.StatusDone}, svc.lastFilter.Statuses)
	assert.Equal(t, []models.DueBucket{models.BucketOverdue, models.BucketDueSoon}, svc.lastFilter.DueBuckets)
}

func TestListTasks_RejectsUnknownFilterValues(t *testing.T) {
	r := newTaskRouter(newFakeTaskService(), services.NewSlackService(""))

	for _, url := range []string{
		"/tasks?statuses=archived",
		"/tasks?due_filters=someday",
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, url, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
	}
}

func TestListTasks_ResponseShape(t *testing.T) {
	svc := newFakeTaskService()
	svc.listing = &models.TaskListing{
		Tasks:        []models.Task{{ID: "a", UserID: "u1", Title: "x", Status: models.StatusDone}},
		StatusCounts: models.StatusCounts{Total: 1, Done: 1},
	}
	r := newTaskRouter(svc, services.NewSlackService(""))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got models.TaskListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Tasks, 1)
	assert.Equal(t, 1, got.StatusCounts.Total)
	assert.Equal(t, 1, got.StatusCounts.Done)
}

func TestUpdateTask_PartialUpdate(t *testing.T) {
	svc := newFakeTaskService()
	svc.tasks["a"] = &models.Task{
		ID: "a", UserID: "u1", Title: "before",
		Status: models.StatusTodo, Priority: models.PriorityLow,
	}
	r := newTaskRouter(svc, services.NewSlackService(""))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/tasks/a", bytes.NewReader([]byte(`{"status":"done"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.StatusDone, got.Status)
	assert.Equal(t, "before", got.Title, "omitted fields keep their values")
	assert.Equal(t, models.PriorityLow, got.Priority)
}

func TestTask_NotFound(t *testing.T) {
	svc := newFakeTaskService()
	svc.tasks["theirs"] = &models.Task{ID: "theirs", UserID: "u2", Title: "other"}
	r := newTaskRouter(svc, services.NewSlackService(""))

	for _, tc := range []struct {
		method, url string
		body        string
	}{
		{http.MethodGet, "/tasks/missing", ""},
		{http.MethodGet, "/tasks/theirs", ""}, // other owner's task reads as absent
		{http.MethodPut, "/tasks/missing", `{"title":"x"}`},
		{http.MethodDelete, "/tasks/theirs", ""},
	} {
		w := httptest.NewRecorder()
		var req *http.Request
		if tc.body != "" {
			req = httptest.NewRequest(tc.method, tc.url, bytes.NewReader([]byte(tc.body)))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(tc.method, tc.url, nil)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.url)
	}
}

func TestDeleteTask_NoContent(t *testing.T) {
	svc := newFakeTaskService()
	svc.tasks["a"] = &models.Task{ID: "a", UserID: "u1", Title: "gone soon"}
	r := newTaskRouter(svc, services.NewSlackService(""))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/tasks/a", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, svc.tasks)
}
