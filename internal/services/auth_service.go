package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/teamtask/teamtask-api/internal/constants"
	"github.com/teamtask/teamtask-api/internal/models"
	"github.com/teamtask/teamtask-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("user already exists")
	ErrPhoneNumberTaken     = errors.New("number already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrWeakPassword         = errors.New("password is not strong enough")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	tokens    *TokenService
	notifier  Notifier
	validate  *validator.Validate
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, tokens *TokenService, notifier Notifier) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
		notifier:  notifier,
		validate:  validator.New(),
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username    string `validate:"required,max=100"`
	Email       string `validate:"required,email,max=255"`
	Password    string `validate:"required"`
	PhoneNumber string `validate:"required,e164"`
}

// Register creates a new user with the default role and sends a confirmation email.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)

	if err := s.validate.Struct(input); err != nil {
		return nil, toValidationError(err)
	}
	if !isStrongPassword(input.Password) {
		return nil, ErrWeakPassword
	}

	if _, err := s.userRepo.FindByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.userRepo.FindByPhoneNumber(ctx, input.PhoneNumber); err == nil {
		return nil, ErrPhoneNumberTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check phone number: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:               input.Username,
		Email:                  input.Email,
		PhoneNumber:            input.PhoneNumber,
		PasswordHash:           string(hashedPassword),
		Roles:                  models.Roles{models.RoleUser},
		NotificationPreference: models.ChannelEmail,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.notifier.Notify(&models.User{
		ID:                     user.ID,
		Email:                  user.Email,
		NotificationPreference: models.ChannelEmail,
	}, "Confirm Email", fmt.Sprintf("Welcome %s, please confirm your email address.", user.Username))

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Authenticate validates a bearer token, rejects revoked ones and loads the current user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *TokenClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, nil, ErrTokenRevoked
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, claims, nil
}

// Logout blacklists the token until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *TokenClaims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	if err := s.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateNotificationPreference switches the channel used for a user's notifications.
func (s *AuthService) UpdateNotificationPreference(ctx context.Context, id uint64, preference string) (*models.User, error) {
	channel := models.NotificationChannel(strings.ToLower(strings.TrimSpace(preference)))
	if !channel.Valid() {
		return nil, newValidationError("preference", "invalid notification preference %q", preference)
	}

	if err := s.userRepo.UpdatePreference(ctx, id, channel); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update notification preference: %w", err)
	}

	return s.GetUser(ctx, id)
}

// UpdateRoles replaces a user's role set.
func (s *AuthService) UpdateRoles(ctx context.Context, id uint64, roles []string) (*models.User, error) {
	if len(roles) == 0 {
		return nil, newValidationError("roles", "at least one role is required")
	}

	set := make(models.Roles, 0, len(roles))
	for _, raw := range roles {
		role := models.Role(strings.ToLower(strings.TrimSpace(raw)))
		if !role.Valid() {
			return nil, newValidationError("roles", "invalid role %q", raw)
		}
		if !set.Has(role) {
			set = append(set, role)
		}
	}

	if err := s.userRepo.UpdateRoles(ctx, id, set); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update roles: %w", err)
	}

	return s.GetUser(ctx, id)
}

// isStrongPassword requires a minimum length plus a lower case letter, an
// upper case letter, a digit and a symbol.
func isStrongPassword(password string) bool {
	if len(password) < constants.MinPasswordLength {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	field := fieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return newValidationError(field, "is required")
	case "email":
		return newValidationError(field, "invalid email format")
	case "e164":
		return newValidationError(field, "invalid mobile number format, country code required e.g. +91")
	default:
		return newValidationError(field, "failed %s validation", fe.Tag())
	}
}

func fieldName(name string) string {
	switch name {
	case "PhoneNumber":
		return "phone_number"
	default:
		return strings.ToLower(name)
	}
}
