package services

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamtask/teamtask-api/internal/database"
	"github.com/teamtask/teamtask-api/internal/models"
	"github.com/teamtask/teamtask-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret-key-that-is-long-enough-123"

type notification struct {
	UserID  uint64
	Email   string
	Phone   string
	Channel models.NotificationChannel
	Subject string
	Body    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recordingNotifier) Notify(user *models.User, subject, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{
		UserID:  user.ID,
		Email:   user.Email,
		Phone:   user.PhoneNumber,
		Channel: user.NotificationPreference,
		Subject: subject,
		Body:    body,
	})
}

func (r *recordingNotifier) all() []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification(nil), r.sent...)
}

type serviceTestEnv struct {
	db        *gorm.DB
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	teamRepo  repository.TeamRepository
	tokenRepo repository.TokenRepository
	notifier  *recordingNotifier
	logs      *bytes.Buffer
	log       *slog.Logger
}

func setupServiceTestEnv(t *testing.T) serviceTestEnv {
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

	logs := &bytes.Buffer{}
	return serviceTestEnv{
		db:        db,
		taskRepo:  repository.NewTaskRepository(db),
		userRepo:  repository.NewUserRepository(db),
		teamRepo:  repository.NewTeamRepository(db),
		tokenRepo: repository.NewTokenRepository(db),
		notifier:  &recordingNotifier{},
		logs:      logs,
		log:       slog.New(slog.NewTextHandler(logs, nil)),
	}
}

func (env serviceTestEnv) createUser(t *testing.T, email, phone string, pref models.NotificationChannel, roles ...models.Role) *models.User {
	t.Helper()

	if len(roles) == 0 {
		roles = models.Roles{models.RoleUser}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:               email,
		Email:                  email,
		PhoneNumber:            phone,
		PasswordHash:           string(hash),
		Roles:                  roles,
		NotificationPreference: pref,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}
