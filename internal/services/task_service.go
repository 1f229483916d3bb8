package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teamtask/teamtask-api/internal/models"
	"github.com/teamtask/teamtask-api/internal/policy"
	"github.com/teamtask/teamtask-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTitleEmpty   = errors.New("title cannot be empty")
)

// Notifier delivers a best-effort message to a user on their preferred channel.
type Notifier interface {
	Notify(user *models.User, subject, body string)
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	notifier  Notifier
	aiService *AIService
	log       *slog.Logger
	now       func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, notifier Notifier, aiService *AIService, log *slog.Logger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		aiService: aiService,
		log:       log.With("component", "task_service"),
		now:       time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    models.TaskPriority
	Status      models.TaskStatus
	CreatorID   uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *models.TaskPriority
	Status       *models.TaskStatus
}

// ListTasksInput represents filters for listing the tasks assigned to a user
type ListTasksInput struct {
	AssigneeID uint64
	Priorities []string
	Statuses   []string
	SortBy     string
	Page       int
	PageSize   int
}

// CreateTask stores a new, unassigned task
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, newValidationError("title", ErrTitleEmpty.Error())
	}

	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, newValidationError("priority", "invalid priority %q", input.Priority)
	}
	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if !input.Status.Valid() {
		return nil, newValidationError("status", "invalid status %q", input.Status)
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		DueDate:     utcPtr(input.DueDate),
		Priority:    input.Priority,
		Status:      input.Status,
		CreatedBy:   input.CreatorID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// GetTask returns a task with its assignee
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (*models.Task, error) {
	return s.findTask(ctx, taskID, "Assignee")
}

// ListTasks returns the tasks assigned to a user, filtered and sorted
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		AssignedTo: &input.AssigneeID,
		SortBy:     parseSortField(input.SortBy),
		Page:       input.Page,
		PageSize:   input.PageSize,
	}

	for _, raw := range input.Priorities {
		p := models.TaskPriority(strings.ToLower(raw))
		if !p.Valid() {
			return nil, 0, newValidationError("priority", "invalid priority %q", raw)
		}
		filter.Priorities = append(filter.Priorities, p)
	}
	for _, raw := range input.Statuses {
		st := models.TaskStatus(strings.ToLower(raw))
		if !st.Valid() {
			return nil, 0, newValidationError("status", "invalid status %q", raw)
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// ListTasksAssignedBy returns the tasks a manager has handed out, assignees preloaded
func (s *TaskService) ListTasksAssignedBy(ctx context.Context, assignerID uint64) ([]models.Task, error) {
	tasks, _, err := s.taskRepo.List(ctx, repository.TaskFilter{
		AssignedBy: &assignerID,
		Preload:    []string{"Assignee"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask merges the given fields into a task
func (s *TaskService) UpdateTask(ctx context.Context, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	fields := map[string]interface{}{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, newValidationError("title", ErrTitleEmpty.Error())
		}
		fields["title"] = title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, newValidationError("priority", "invalid priority %q", *input.Priority)
		}
		fields["priority"] = *input.Priority
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, newValidationError("status", "invalid status %q", *input.Status)
		}
		fields["status"] = *input.Status
	}
	if input.ClearDueDate {
		fields["due_date"] = nil
		fields["reminded_at"] = nil
	} else if input.DueDate != nil {
		fields["due_date"] = input.DueDate.UTC()
		fields["reminded_at"] = nil
	}

	if len(fields) == 0 {
		return s.findTask(ctx, taskID)
	}

	if err := s.taskRepo.UpdateFields(ctx, taskID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.findTask(ctx, taskID)
}

// DeleteTask permanently removes a task
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint64) error {
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// AssignTask gives an unassigned task its first assignee
func (s *TaskService) AssignTask(ctx context.Context, taskID, userID uint64, actor policy.Actor) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := policy.CanAssign(task, actor); err != nil {
		return nil, err
	}

	assignee, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	assigned, err := s.taskRepo.AssignIfUnassigned(ctx, taskID, userID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}
	if !assigned {
		// Lost to a concurrent assignment, or the task was deleted in between.
		if _, err := s.findTask(ctx, taskID); err != nil {
			return nil, err
		}
		return nil, policy.ErrAlreadyAssigned
	}

	s.notifier.Notify(assignee, "New Task Assigned", fmt.Sprintf("You have been assigned a new task: %s", task.Title))

	return s.findTask(ctx, taskID, "Assignee")
}

// ReassignTask moves a task to another user regardless of the current assignee
func (s *TaskService) ReassignTask(ctx context.Context, taskID, userID uint64, actor policy.Actor) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := policy.CanReassign(task, actor); err != nil {
		return nil, err
	}

	assignee, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.SetAssignment(ctx, taskID, userID, actor.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to reassign task: %w", err)
	}

	s.notifier.Notify(assignee, "New Task Assigned", fmt.Sprintf("You have been assigned a new task: %s", task.Title))

	return s.findTask(ctx, taskID, "Assignee")
}

// UpdateTaskStatus lets the assignee move a task through its statuses
func (s *TaskService) UpdateTaskStatus(ctx context.Context, taskID uint64, status models.TaskStatus, actor policy.Actor) (*models.Task, error) {
	if !status.Valid() {
		return nil, newValidationError("status", "invalid status %q", status)
	}

	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := policy.CanUpdateStatus(task, actor); err != nil {
		return nil, err
	}

	updated, err := s.taskRepo.UpdateStatusIfAssignee(ctx, taskID, actor.ID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	if !updated {
		// Reassigned or deleted since it was loaded.
		if _, err := s.findTask(ctx, taskID); err != nil {
			return nil, err
		}
		return nil, policy.ErrNotAuthorized
	}

	s.notifyAssigner(ctx, task, status)

	return s.findTask(ctx, taskID, "Assignee")
}

func (s *TaskService) notifyAssigner(ctx context.Context, task *models.Task, status models.TaskStatus) {
	if task.AssignedBy == nil {
		return
	}

	assigner, err := s.userRepo.FindByID(ctx, *task.AssignedBy)
	if err != nil {
		s.log.WarnContext(ctx, "skipping status notification, assigner lookup failed",
			"task_id", task.ID, "assigned_by", *task.AssignedBy, "error", err)
		return
	}

	s.notifier.Notify(assigner, "Task Status Updated", fmt.Sprintf("Status updated for: %s (%s)", task.Title, status))
}

func (s *TaskService) findTask(ctx context.Context, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) findUser(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// parseSortField falls back to the due date for unknown values.
func parseSortField(raw string) repository.TaskSortField {
	switch repository.TaskSortField(raw) {
	case repository.SortByPriority:
		return repository.SortByPriority
	case repository.SortByStatus:
		return repository.SortByStatus
	default:
		return repository.SortByDueDate
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
