package models

import "time"

// RevokedToken blacklists a JWT by its ID until the token would have expired anyway.
type RevokedToken struct {
	TokenID   string    `gorm:"primarykey;type:varchar(64)" json:"token_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
