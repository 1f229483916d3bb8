package repository

import (
	"context"
	"time"

	"github.com/teamtask/teamtask-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering, sorting and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// UpdateFields merges the given columns into a task.
	// Returns gorm.ErrRecordNotFound when the task does not exist.
	UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error

	// Delete permanently removes a task
	Delete(ctx context.Context, id uint64) error

	// AssignIfUnassigned sets the assignee only while the task has none.
	// It reports false when another assignment won.
	AssignIfUnassigned(ctx context.Context, taskID, assigneeID, assignerID uint64) (bool, error)

	// SetAssignment overwrites the assignee and assigner unconditionally
	SetAssignment(ctx context.Context, taskID, assigneeID, assignerID uint64) error

	// UpdateStatusIfAssignee changes the status only while assigneeID still holds the task
	UpdateStatusIfAssignee(ctx context.Context, taskID, assigneeID uint64, status models.TaskStatus) (bool, error)

	// FindDueForReminder lists incomplete tasks due at or before cutoff
	FindDueForReminder(ctx context.Context, cutoff time.Time, onlyUnreminded bool) ([]models.Task, error)

	// MarkReminded stamps the reminder time of a task
	MarkReminded(ctx context.Context, id uint64, at time.Time) error
}

// TaskSortField is a column tasks can be ordered by.
type TaskSortField string

const (
	SortByDueDate  TaskSortField = "dueDate"
	SortByPriority TaskSortField = "priority"
	SortByStatus   TaskSortField = "status"
)

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	AssignedTo *uint64
	AssignedBy *uint64
	Priorities []models.TaskPriority
	Statuses   []models.TaskStatus
	SortBy     TaskSortField
	Page       int
	PageSize   int
	Preload    []string
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByPhoneNumber finds a user by phone number
	FindByPhoneNumber(ctx context.Context, phone string) (*models.User, error)

	// UpdatePreference changes the notification channel of a user
	UpdatePreference(ctx context.Context, id uint64, channel models.NotificationChannel) error

	// UpdateRoles replaces the role set of a user
	UpdateRoles(ctx context.Context, id uint64, roles models.Roles) error
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// CreateWithManager creates a team and, when the manager has no team yet,
	// the manager's membership within a single transaction.
	CreateWithManager(ctx context.Context, team *models.Team) error

	// FindByID finds a team by ID
	FindByID(ctx context.Context, id uint64) (*models.Team, error)

	// FindByName finds a team by its unique name
	FindByName(ctx context.Context, name string) (*models.Team, error)

	// AddMember adds a member to a team
	AddMember(ctx context.Context, member *models.TeamMember) error

	// FindMembershipByUser finds the team membership of a user
	FindMembershipByUser(ctx context.Context, userID uint64) (*models.TeamMember, error)

	// ListManagedWithMembers lists the teams a manager runs, members preloaded
	ListManagedWithMembers(ctx context.Context, managerID uint64) ([]models.Team, error)
}

// TokenRepository is the blacklist of logged out tokens
type TokenRepository interface {
	// Revoke blacklists a token ID until expiresAt and purges expired entries
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error

	// IsRevoked reports whether a token ID is blacklisted
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
