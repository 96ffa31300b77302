// Package auth authenticates operators and carries their identity as a signed bearer token.
package auth

import (
	"errors"
	"time"
)

// ErrInvalidCredentials indicates login failure.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken indicates a bearer token that is missing, expired or forged.
var ErrInvalidToken = errors.New("invalid bearer token")

// User represents an operator account.
type User struct {
	ID           int64
	CompanyID    int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
