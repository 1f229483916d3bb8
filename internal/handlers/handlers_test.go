package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/teamtask/teamtask-api/internal/database"
	apierrors "github.com/teamtask/teamtask-api/internal/errors"
	"github.com/teamtask/teamtask-api/internal/logging"
	"github.com/teamtask/teamtask-api/internal/models"
	"github.com/teamtask/teamtask-api/internal/repository"
	"github.com/teamtask/teamtask-api/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret = "test-secret-key-that-is-long-enough-123"
	testPassword  = "Passw0rd!"
)

type sentMessage struct {
	UserID  uint64
	Subject string
	Body    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recordingNotifier) Notify(user *models.User, subject, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{UserID: user.ID, Subject: subject, Body: body})
}

func (r *recordingNotifier) all() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

type handlerTestEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	notifier    *recordingNotifier
	tokens      *services.TokenService
	authService *services.AuthService
	taskService *services.TaskService
	teamService *services.TeamService
}

type envOption func(*RouterConfig)

func withRateLimits(general, login int) envOption {
	return func(cfg *RouterConfig) {
		cfg.RateLimitGeneral = general
		cfg.RateLimitLogin = login
	}
}

func setupHandlerTestEnv(t *testing.T, opts ...envOption) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	tokens, err := services.NewTokenService(testJWTSecret, time.Hour)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	env := &handlerTestEnv{
		db:          db,
		notifier:    notifier,
		tokens:      tokens,
		authService: services.NewAuthService(userRepo, tokenRepo, tokens, notifier),
		taskService: services.NewTaskService(taskRepo, userRepo, notifier, nil, logging.Discard()),
		teamService: services.NewTeamService(teamRepo, userRepo),
	}

	cfg := RouterConfig{
		AuthService:      env.authService,
		TaskService:      env.taskService,
		TeamService:      env.teamService,
		Log:              logging.Discard(),
		RateLimitWindow:  15 * time.Minute,
		RateLimitGeneral: 1000,
		RateLimitLogin:   1000,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	env.router = NewRouter(cfg)

	return env
}

func (env *handlerTestEnv) createUser(t *testing.T, email, phone string, roles ...models.Role) *models.User {
	t.Helper()

	if len(roles) == 0 {
		roles = models.Roles{models.RoleUser}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:               email,
		Email:                  email,
		PhoneNumber:            phone,
		PasswordHash:           string(hash),
		Roles:                  roles,
		NotificationPreference: models.ChannelEmail,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *handlerTestEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()

	token, _, err := env.tokens.Issue(user)
	require.NoError(t, err)
	return token
}

func (env *handlerTestEnv) createTask(t *testing.T, title string, creatorID uint64, mutate ...func(*models.Task)) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:     title,
		Priority:  models.TaskPriorityMedium,
		Status:    models.TaskStatusPending,
		CreatedBy: creatorID,
	}
	for _, m := range mutate {
		m(task)
	}
	require.NoError(t, env.db.Create(task).Error)
	return task
}

func (env *handlerTestEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierrors.APIError](t, w).Code
}

func uintString(id uint64) string {
	return strconv.FormatUint(id, 10)
}
