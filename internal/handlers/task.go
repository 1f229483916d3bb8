package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teamtask/teamtask-api/internal/dto"
	apierrors "github.com/teamtask/teamtask-api/internal/errors"
	"github.com/teamtask/teamtask-api/internal/middleware"
	"github.com/teamtask/teamtask-api/internal/models"
	"github.com/teamtask/teamtask-api/internal/policy"
	"github.com/teamtask/teamtask-api/internal/services"
	"github.com/teamtask/teamtask-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks assigned to the current user
// Filters: priority and status as comma separated lists, sortBy, page, limit
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), services.ListTasksInput{
		AssigneeID: userID,
		Priorities: utils.SplitList(c.Query("priority")),
		Statuses:   utils.SplitList(c.Query("status")),
		SortBy:     c.Query("sortBy"),
		Page:       params.Page,
		PageSize:   params.Limit,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// ListAssignedByMe returns the tasks the current manager has assigned
func (h *TaskHandler) ListAssignedByMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.ListTasksAssignedBy(c.Request.Context(), userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
	})
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
		Priority    string     `json:"priority"`
		Status      string     `json:"status"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    models.TaskPriority(req.Priority),
		Status:      models.TaskStatus(req.Status),
		CreatorID:   userID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates the fields present in the body.
// A null due_date clears it.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := parseUpdateTaskInput(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), taskID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

func parseUpdateTaskInput(raw map[string]any) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	str := func(key string) (*string, error) {
		v, ok := raw[key]
		if !ok {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", key)
		}
		return &s, nil
	}

	var err error
	if input.Title, err = str("title"); err != nil {
		return input, err
	}
	if input.Description, err = str("description"); err != nil {
		return input, err
	}

	priority, err := str("priority")
	if err != nil {
		return input, err
	}
	if priority != nil {
		p := models.TaskPriority(*priority)
		input.Priority = &p
	}

	status, err := str("status")
	if err != nil {
		return input, err
	}
	if status != nil {
		st := models.TaskStatus(*status)
		input.Status = &st
	}

	if v, ok := raw["due_date"]; ok {
		if v == nil {
			input.ClearDueDate = true
		} else {
			s, ok := v.(string)
			if !ok {
				return input, errors.New("due_date must be an RFC3339 timestamp or null")
			}
			dueDate, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return input, errors.New("due_date must be an RFC3339 timestamp or null")
			}
			input.DueDate = &dueDate
		}
	}

	return input, nil
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

type assigneeRequest struct {
	UserID uint64 `json:"user_id" binding:"required"`
}

// AssignTask gives an unassigned task its first assignee
func (h *TaskHandler) AssignTask(c *gin.Context) {
	h.changeAssignee(c, h.taskService.AssignTask)
}

// ReassignTask moves a task to another user
func (h *TaskHandler) ReassignTask(c *gin.Context) {
	h.changeAssignee(c, h.taskService.ReassignTask)
}

func (h *TaskHandler) changeAssignee(c *gin.Context, apply func(ctx context.Context, taskID, userID uint64, actor policy.Actor) (*models.Task, error)) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req assigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := apply(c.Request.Context(), taskID, req.UserID, actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTaskStatus lets the assignee change a task's status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	type StatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTaskStatus(c.Request.Context(), taskID, models.TaskStatus(req.Status), actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// GenerateTasks generates task suggestions from text using AI
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.taskService.GenerateTaskDrafts(c.Request.Context(), req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDraftDTOs(drafts),
	})
}

func respondTaskError(c *gin.Context, err error) {
	if v, ok := services.IsValidationError(err); ok {
		apierrors.BadRequestWithDetails(c, v.Error(), gin.H{"field": v.Field})
		return
	}
	if denied, ok := policy.IsDenied(err); ok {
		if denied.Reason == policy.ReasonAlreadyAssigned {
			apierrors.Conflict(c, "Task is already assigned")
		} else {
			apierrors.Forbidden(c, "You are not allowed to perform this action")
		}
		return
	}

	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())
	default:
		c.Error(err)
		apierrors.InternalError(c, "Internal server error")
	}
}
