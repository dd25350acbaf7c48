package api

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JWTServiceI interface {
	GenerateToken(uid uuid.UUID) (string, error)
	ParseToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims identify the caller. Tokens are issued elsewhere; the service
// only trusts the user id they carry.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}
