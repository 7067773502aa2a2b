package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the payload of access tokens accepted by the bearer guard.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
