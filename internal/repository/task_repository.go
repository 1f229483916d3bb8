package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teamtask/teamtask-api/internal/database"
	"github.com/teamtask/teamtask-api/internal/models"
	"github.com/teamtask/teamtask-api/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering, sorting and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.AssignedTo != nil {
		query = query.Where("tasks.assigned_to = ?", *filter.AssignedTo)
	}
	if filter.AssignedBy != nil {
		query = query.Where("tasks.assigned_by = ?", *filter.AssignedBy)
	}
	if len(filter.Priorities) > 0 {
		query = query.Where("tasks.priority IN ?", filter.Priorities)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("tasks.status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order(orderClause(filter.SortBy))

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	for _, p := range filter.Preload {
		listQuery = listQuery.Preload(p)
	}

	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// orderClause sorts ascending. Priority and status sort by their ordinal, tasks
// without a due date go last, and the id breaks ties.
func orderClause(sortBy TaskSortField) string {
	switch sortBy {
	case SortByPriority:
		priorities := make([]string, len(models.TaskPriorities))
		for i, p := range models.TaskPriorities {
			priorities[i] = string(p)
		}
		return ordinalCase("tasks.priority", priorities) + ", tasks.id ASC"
	case SortByStatus:
		statuses := make([]string, len(models.TaskStatuses))
		for i, s := range models.TaskStatuses {
			statuses[i] = string(s)
		}
		return ordinalCase("tasks.status", statuses) + ", tasks.id ASC"
	default:
		return "CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC, tasks.id ASC"
	}
}

func ordinalCase(column string, values []string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for i, v := range values {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", v, i)
	}
	fmt.Fprintf(&b, " ELSE %d END ASC", len(values))
	return b.String()
}

// UpdateFields merges the given columns into a task
func (r *GormTaskRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete permanently removes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssignIfUnassigned sets the assignee with a single conditional update
func (r *GormTaskRepository) AssignIfUnassigned(ctx context.Context, taskID, assigneeID, assignerID uint64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND assigned_to IS NULL", taskID).
		Updates(map[string]interface{}{
			"assigned_to": assigneeID,
			"assigned_by": assignerID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetAssignment overwrites the assignee and assigner
func (r *GormTaskRepository) SetAssignment(ctx context.Context, taskID, assigneeID, assignerID uint64) error {
	return r.UpdateFields(ctx, taskID, map[string]interface{}{
		"assigned_to": assigneeID,
		"assigned_by": assignerID,
	})
}

// UpdateStatusIfAssignee changes the status while assigneeID holds the task
func (r *GormTaskRepository) UpdateStatusIfAssignee(ctx context.Context, taskID, assigneeID uint64, status models.TaskStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND assigned_to = ?", taskID, assigneeID).
		Updates(map[string]interface{}{"status": status})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindDueForReminder lists incomplete tasks due at or before cutoff
func (r *GormTaskRepository) FindDueForReminder(ctx context.Context, cutoff time.Time, onlyUnreminded bool) ([]models.Task, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date <= ?", cutoff.UTC()).
		Where("status <> ?", models.TaskStatusCompleted)
	if onlyUnreminded {
		query = query.Where("reminded_at IS NULL")
	}

	if err := query.Order("due_date ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarkReminded stamps the reminder time of a task
func (r *GormTaskRepository) MarkReminded(ctx context.Context, id uint64, at time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"reminded_at": at.UTC()})
}
