package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/teamtask/teamtask-api/internal/config"
	"github.com/teamtask/teamtask-api/internal/database"
	"github.com/teamtask/teamtask-api/internal/handlers"
	"github.com/teamtask/teamtask-api/internal/logging"
	"github.com/teamtask/teamtask-api/internal/notify"
	"github.com/teamtask/teamtask-api/internal/reminder"
	"github.com/teamtask/teamtask-api/internal/repository"
	"github.com/teamtask/teamtask-api/internal/services"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may already be set
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.Setup(cfg.LogLevel, os.Stdout)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql.DB: %w", err)
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// Notification senders fall back to logging when a channel is not configured
	var emailSender, smsSender notify.Sender = notify.NewLogSender(log), notify.NewLogSender(log)
	if cfg.SMTPEnabled() {
		emailSender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		log.Warn("SMTP is not configured, emails will only be logged")
	}
	if cfg.TwilioEnabled() {
		smsSender = notify.NewTwilioSender(notify.TwilioConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioFromNumber,
			BaseURL:    cfg.TwilioBaseURL,
		}, log)
	} else {
		log.Warn("Twilio is not configured, SMS will only be logged")
	}
	dispatcher := notify.NewDispatcher(notify.MultiSender{Email: emailSender, SMS: smsSender}, log)

	tokenService, err := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	authService := services.NewAuthService(userRepo, tokenRepo, tokenService, dispatcher)
	taskService := services.NewTaskService(taskRepo, userRepo, dispatcher, aiService, log)
	teamService := services.NewTeamService(teamRepo, userRepo)

	scheduler, err := reminder.New(taskRepo, userRepo, dispatcher, reminder.Config{
		Schedule:   cfg.ReminderSchedule,
		Window:     cfg.ReminderWindow,
		RemindOnce: cfg.ReminderOnce,
	}, log)
	if err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		AuthService:      authService,
		TaskService:      taskService,
		TeamService:      teamService,
		Log:              log,
		RateLimitWindow:  cfg.RateLimitWindow,
		RateLimitGeneral: cfg.RateLimitGeneral,
		RateLimitLogin:   cfg.RateLimitLogin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	scheduler.Start()

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := scheduler.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
		}
		dispatcher.Wait()
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
