package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Roles is a user's role set, stored as a comma separated column.
type Roles []Role

func (r Roles) Has(role Role) bool {
	for _, v := range r {
		if v == role {
			return true
		}
	}
	return false
}

func (r Roles) Strings() []string {
	out := make([]string, len(r))
	for i, v := range r {
		out[i] = string(v)
	}
	return out
}

// Value implements driver.Valuer.
func (r Roles) Value() (driver.Value, error) {
	return strings.Join(r.Strings(), ","), nil
}

// Scan implements sql.Scanner.
func (r *Roles) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("roles: unsupported scan type %T", src)
	}

	roles := Roles{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			roles = append(roles, Role(part))
		}
	}
	*r = roles
	return nil
}

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

func (c NotificationChannel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

type User struct {
	ID                     uint64              `gorm:"primarykey" json:"id"`
	Username               string              `gorm:"type:varchar(100);not null" json:"username"`
	Email                  string              `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PhoneNumber            string              `gorm:"type:varchar(32);uniqueIndex;not null" json:"phone_number"`
	PasswordHash           string              `gorm:"type:varchar(255);not null" json:"-"`
	Roles                  Roles               `gorm:"type:varchar(100);not null" json:"roles"`
	NotificationPreference NotificationChannel `gorm:"type:varchar(10);not null;default:'email'" json:"notification_preference"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}
