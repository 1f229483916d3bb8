package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/teamtask/teamtask-api/internal/constants"
	"github.com/teamtask/teamtask-api/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// TokenClaims are the claims carried by an access token.
type TokenClaims struct {
	UserID uint64   `json:"uid"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HMAC-SHA256 signed access tokens.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	timeFunc   func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	if ttl <= 0 {
		ttl = constants.DefaultTokenTTL
	}

	return &TokenService{
		signingKey: []byte(secret),
		ttl:        ttl,
		timeFunc:   time.Now,
	}, nil
}

// Issue signs a new token for user.
func (s *TokenService) Issue(user *models.User) (string, *TokenClaims, error) {
	now := s.timeFunc()

	claims := &TokenClaims{
		UserID: user.ID,
		Roles:  user.Roles.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constants.TokenIssuer,
			Subject:   strconv.FormatUint(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, claims, nil
}

// Parse validates a token string and returns its claims.
func (s *TokenService) Parse(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(constants.TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.timeFunc),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
