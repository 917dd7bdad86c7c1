package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims are the registered claims carried by admin tokens.
type JWTClaims struct {
	UserID   string    `json:"uid"`
	Email    string    `json:"email"`
	FullName string    `json:"name"`
	Role     AdminRole `json:"role"`
	jwt.RegisteredClaims
}

// Session is the server-side record pairing an admin token with its device
// token. Sessions live in Redis and are cleared at logout; the device token
// must accompany every authenticated request.
type Session struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	Role        AdminRole `json:"role"`
	DeviceToken string    `json:"deviceToken"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse carries the issued token pair.
type LoginResponse struct {
	Success     bool      `json:"success"`
	AdminToken  string    `json:"adminToken"`
	DeviceToken string    `json:"deviceToken"`
	ExpiresIn   int64     `json:"expiresIn"`
	IssuedAt    time.Time `json:"issuedAt"`
	User        AdminInfo `json:"user"`
}

// AdminInfo is the public view of an admin account.
type AdminInfo struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	Role     AdminRole `json:"role"`
}
