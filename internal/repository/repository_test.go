package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamtask/teamtask-api/internal/database"
	"github.com/teamtask/teamtask-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.Models...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, phone string, roles ...models.Role) *models.User {
	t.Helper()

	if len(roles) == 0 {
		roles = models.Roles{models.RoleUser}
	}
	user := &models.User{
		Username:               email,
		Email:                  email,
		PhoneNumber:            phone,
		PasswordHash:           "hash",
		Roles:                  roles,
		NotificationPreference: models.ChannelEmail,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTask(t *testing.T, repo TaskRepository, task models.Task) *models.Task {
	t.Helper()

	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	require.NoError(t, repo.Create(context.Background(), &task))
	return &task
}

func timePtr(t time.Time) *time.Time {
	t = t.UTC()
	return &t
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}
