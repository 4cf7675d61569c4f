package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NaiYuk/Taskun/internal/models"
	"github.com/NaiYuk/Taskun/internal/repositories"
	"github.com/NaiYuk/Taskun/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	slack   *services.SlackService
}

func NewTaskHandler(service services.TaskService, slack *services.SlackService) *TaskHandler {
	return &TaskHandler{service: service, slack: slack}
}

// @Summary      Create a task
// @Description  Creates a task for the authenticated user and notifies the team channel
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        task  body      object  true  "Task fields"
// @Success      201   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
		DueDate     string              `json:"due_date"` // RFC3339
	}

	userID, email := getUserFromCtx(c)
	log.Printf("[task][create] call by userID=%s", userID)

	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status == "" {
		req.Status = models.StatusTodo
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !isAllowedTaskStatus(req.Status) {
		log.Printf("[task][create][err] invalid status=%q", req.Status)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	if !isAllowedTaskPriority(req.Priority) {
		log.Printf("[task][create][err] invalid priority=%q", req.Priority)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
		return
	}

	var due *time.Time
	if req.DueDate != "" {
		t, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			log.Printf("[task][create][err] invalid due_date=%q: %v", req.DueDate, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date (RFC3339)"})
			return
		}
		due = &t
	}

	task := &models.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     due,
	}

	createdTask, err := h.service.Create(c.Request.Context(), task)
	if err != nil {
		log.Printf("[task][create][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][create][ok] id=%s title=%q", createdTask.ID, createdTask.Title)
	c.JSON(http.StatusCreated, createdTask)

	// best-effort channel notification, detached from this request
	h.slack.NotifyAsync(services.TaskNotification{
		Action:    services.ActionCreated,
		Task:      *createdTask,
		UserEmail: email,
	})
}

// @Summary      List tasks
// @Description  Filtered listing with aggregate status counts
// @Tags         Tasks
// @Produce      json
// @Param        search       query  string  false  "substring over title or description"
// @Param        statuses     query  string  false  "comma-separated subset of todo,in_progress,done"
// @Param        due_filters  query  string  false  "comma-separated subset of overdue,due_soon"
// @Success      200  {object}  models.TaskListing
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	userID, _ := getUserFromCtx(c)
	log.Printf("[task][list] call by userID=%s q=%v", userID, c.Request.URL.RawQuery)

	filter := models.TaskFilter{Search: c.Query("search")}

	if v := c.Query("statuses"); v != "" {
		for _, s := range strings.Split(v, ",") {
			st := models.TaskStatus(strings.TrimSpace(s))
			if st == "" {
				continue
			}
			if !isAllowedTaskStatus(st) {
				log.Printf("[task][list][err] bad status=%q", st)
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
				return
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	if v := c.Query("due_filters"); v != "" {
		for _, s := range strings.Split(v, ",") {
			b := models.DueBucket(strings.TrimSpace(s))
			if b == "" {
				continue
			}
			if b != models.BucketOverdue && b != models.BucketDueSoon {
				log.Printf("[task][list][err] bad due_filter=%q", b)
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due filter"})
				return
			}
			filter.DueBuckets = append(filter.DueBuckets, b)
		}
	}

	listing, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		log.Printf("[task][list][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if listing.Tasks == nil {
		listing.Tasks = []models.Task{}
	}
	log.Printf("[task][list][ok] count=%d", len(listing.Tasks))
	c.JSON(http.StatusOK, listing)
}

// @Summary      Get a task
// @Tags         Tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  models.Task
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, _ := getUserFromCtx(c)
	id := c.Param("id")
	log.Printf("[task][getByID] call by userID=%s id=%s", userID, id)

	task, err := h.service.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			log.Printf("[task][getByID][404] id=%s", id)
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		log.Printf("[task][getByID][err] id=%s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Update a task
// @Description  Partial update; omitted fields keep their current values
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "Task ID"
// @Param        task  body      object  true  "Fields to update"
// @Success      200   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	userID, email := getUserFromCtx(c)
	id := c.Param("id")
	log.Printf("[task][update] call by userID=%s id=%s", userID, id)

	current, err := h.service.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			log.Printf("[task][update][404] id=%s", id)
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		log.Printf("[task][update][err] get current id=%s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task"})
		return
	}

	var req struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Status      *models.TaskStatus   `json:"status"`
		Priority    *models.TaskPriority `json:"priority"`
		DueDate     *string              `json:"due_date"` // RFC3339, "" clears
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][update][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := *current

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
			return
		}
		update.Title = *req.Title
	}
	if req.Description != nil {
		update.Description = *req.Description
	}
	if req.Status != nil {
		if !isAllowedTaskStatus(*req.Status) {
			log.Printf("[task][update][err] invalid status=%q", *req.Status)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		update.Status = *req.Status
	}
	if req.Priority != nil {
		if !isAllowedTaskPriority(*req.Priority) {
			log.Printf("[task][update][err] invalid priority=%q", *req.Priority)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
			return
		}
		update.Priority = *req.Priority
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			update.DueDate = nil
		} else {
			t, err := time.Parse(time.RFC3339, *req.DueDate)
			if err != nil {
				log.Printf("[task][update][err] invalid due_date=%q: %v", *req.DueDate, err)
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
				return
			}
			update.DueDate = &t
		}
	}

	updatedTask, err := h.service.Update(c.Request.Context(), userID, id, &update)
	if err != nil {
		log.Printf("[task][update][err] save id=%s: %v", id, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][update][ok] id=%s", id)
	c.JSON(http.StatusOK, updatedTask)

	h.slack.NotifyAsync(services.TaskNotification{
		Action:    services.ActionUpdated,
		Task:      *updatedTask,
		UserEmail: email,
	})
}

// @Summary      Delete a task
// @Tags         Tasks
// @Param        id  path  string  true  "Task ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, _ := getUserFromCtx(c)
	id := c.Param("id")
	log.Printf("[task][delete] call by userID=%s id=%s", userID, id)

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			log.Printf("[task][delete][404] id=%s", id)
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		log.Printf("[task][delete][err] id=%s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][delete][ok] id=%s", id)
	c.Status(http.StatusNoContent)
}

// ---- helpers ----
func isAllowedTaskStatus(s models.TaskStatus) bool {
	switch s {
	case models.StatusTodo, models.StatusInProgress, models.StatusDone:
		return true
	}
	return false
}

func isAllowedTaskPriority(p models.TaskPriority) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	}
	return false
}
