package constants

import "time"

// Context keys set by the authentication middleware
const (
	ContextKeyUserID      = "user_id"
	ContextKeyUserRoles   = "user_roles"
	ContextKeyTokenClaims = "token_claims"
	ContextKeyRequestID   = "request_id"
)

// HTTP headers
const (
	HeaderRequestID = "X-Request-ID"
)

// Password policy
const (
	MinPasswordLength = 8
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Tokens
const (
	DefaultTokenTTL = 6 * time.Hour
	TokenIssuer     = "teamtask-api"
)

// AI task drafting
const (
	MaxAIGeneratedTasks = 20
)

// Notifications
const (
	NotificationTimeout = 30 * time.Second
)
