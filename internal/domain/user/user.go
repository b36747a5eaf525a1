package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already taken")
)

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateUserRequest checks presence only. Email format is deliberately not
// validated here; registration has never required more than the four fields
// being present.
type CreateUserRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// UpdateUserRequest is a deliberate allow-list: only these fields are mutable.
// A supplied password is re-hashed by the handler before it reaches a store,
// so the stored hash can never be overwritten with caller-controlled text.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
}

// Patch is what actually reaches a store: the handler has already turned a
// caller-supplied password into PasswordHash by the time one is built.
type Patch struct {
	FirstName    *string
	LastName     *string
	Email        *string
	PasswordHash *string
}
