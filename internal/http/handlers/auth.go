package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/accounthub/internal/auth"
	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/security"
	"github.com/gin-gonic/gin"
)

type CredentialStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AuthHandler struct {
	users      CredentialStore
	jwt        *auth.Manager
	log        *slog.Logger
	bcryptCost int
}

func NewAuthHandler(users CredentialStore, jwtManager *auth.Manager, log *slog.Logger, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		users:      users,
		jwt:        jwtManager,
		log:        log,
		bcryptCost: bcryptCost,
	}
}

// LoginRequest carries no binding tags on purpose: a missing email or
// password walks the normal verification path and comes back as the same
// 401 an unknown email gets.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// cheap pre-check; the store's unique index still backstops the race
	// between two concurrent registrations with the same email

	_, err := h.users.GetByEmail(cctx, req.Email)

	if err == nil {
		RespondBadRequest(ctx, "email_taken", "Email already exists", nil)
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		h.log.Error("register: email lookup failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	hash, err := security.HashPassword(req.Password, h.bcryptCost)

	if err != nil {
		h.log.Error("register: password hashing failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.users.Create(cctx, user.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequest(ctx, "email_taken", "Email already exists", nil)
			return
		}

		h.log.Error("register: create failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.jwt.IssueRegistrationToken(u.Email)

	if err != nil {
		h.log.Error("register: token issue failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
		"token":     token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.log.Error("login: email lookup failed", "err", err)
			RespondInternal(ctx, "Could not log in")
			return
		}

		// same message as a wrong password so emails cannot be enumerated
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	token, err := h.jwt.IssueLoginToken(foundUser.Email, foundUser.FirstName)

	if err != nil {
		h.log.Error("login: token issue failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":     token,
		"firstName": foundUser.FirstName,
		"lastName":  foundUser.LastName,
		"email":     foundUser.Email,
	})
}
