package dto

import (
	"time"

	"github.com/teamtask/teamtask-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ProfileDTO is the full view of the authenticated user
type ProfileDTO struct {
	ID                     uint64                     `json:"id"`
	Username               string                     `json:"username"`
	Email                  string                     `json:"email"`
	PhoneNumber            string                     `json:"phone_number"`
	Roles                  []string                   `json:"roles"`
	NotificationPreference models.NotificationChannel `json:"notification_preference"`
	CreatedAt              time.Time                  `json:"created_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

// ToProfileDTO converts a User model to ProfileDTO
func ToProfileDTO(user models.User) ProfileDTO {
	return ProfileDTO{
		ID:                     user.ID,
		Username:               user.Username,
		Email:                  user.Email,
		PhoneNumber:            user.PhoneNumber,
		Roles:                  user.Roles.Strings(),
		NotificationPreference: user.NotificationPreference,
		CreatedAt:              user.CreatedAt,
	}
}
