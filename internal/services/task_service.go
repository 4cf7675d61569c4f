// internal/services/task_service.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/NaiYuk/Taskun/internal/models"
	"github.com/NaiYuk/Taskun/internal/repositories"
)

// TaskService defines the interface for task-related business logic.
type TaskService interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, userID, id string) (*models.Task, error)
	List(ctx context.Context, userID string, filter models.TaskFilter) (*models.TaskListing, error)
	Update(ctx context.Context, userID, id string, updateData *models.Task) (*models.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

type taskService struct {
	repo repositories.TaskRepository
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(repo repositories.TaskRepository) TaskService {
	return &taskService{repo: repo}
}

func (s *taskService) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
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

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, userID, id string) (*models.Task, error) {
	return s.repo.FindByID(ctx, userID, id)
}

// List runs the filtered listing: search and status restrictions are pushed
// to the store, due buckets are applied in memory over the fetched set, and
// status counts are computed from the final result so they always reflect
// every active filter.
func (s *taskService) List(ctx context.Context, userID string, filter models.TaskFilter) (*models.TaskListing, error) {
	tasks, err := s.repo.FindAll(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	tasks = FilterByDueBuckets(tasks, filter.DueBuckets, time.Now())

	listing := &models.TaskListing{Tasks: tasks}
	listing.StatusCounts = CountByStatus(tasks)
	return listing, nil
}

func (s *taskService) Update(ctx context.Context, userID, id string, updateData *models.Task) (*models.Task, error) {
	existingTask, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	existingTask.Title = updateData.Title
	existingTask.Description = updateData.Description
	existingTask.Status = updateData.Status
	existingTask.Priority = updateData.Priority
	existingTask.DueDate = updateData.DueDate
	existingTask.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, existingTask); err != nil {
		return nil, err
	}
	return existingTask, nil
}

func (s *taskService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// FilterByDueBuckets keeps the tasks whose due date falls into at least one
// of the requested buckets. An empty bucket set passes everything through; a
// task without a due date is excluded whenever any bucket is requested.
func FilterByDueBuckets(tasks []models.Task, buckets []models.DueBucket, now time.Time) []models.Task {
	if len(buckets) == 0 {
		return tasks
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		if matchesAnyBucket(*t.DueDate, buckets, now) {
			out = append(out, t)
		}
	}
	return out
}

func matchesAnyBucket(due time.Time, buckets []models.DueBucket, now time.Time) bool {
	for _, b := range buckets {
		switch b {
		case models.BucketOverdue:
			if due.Before(now) {
				return true
			}
		case models.BucketDueSoon:
			if !due.Before(now) && !due.After(now.Add(models.DueSoonWindow)) {
				return true
			}
		}
	}
	return false
}

// CountByStatus aggregates per-status counts over an already-filtered set.
func CountByStatus(tasks []models.Task) models.StatusCounts {
	counts := models.StatusCounts{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusTodo:
			counts.Todo++
		case models.StatusInProgress:
			counts.InProgress++
		case models.StatusDone:
			counts.Done++
		}
	}
	return counts
}
