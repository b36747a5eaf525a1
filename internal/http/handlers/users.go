package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserManager interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, id string, patch user.Patch) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	users      UserManager
	log        *slog.Logger
	bcryptCost int
}

func NewUsersHandler(users UserManager, log *slog.Logger, bcryptCost int) *UsersHandler {
	return &UsersHandler{
		users:      users,
		log:        log,
		bcryptCost: bcryptCost,
	}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	users, err := h.users.List(cctx)

	if err != nil {
		h.log.Error("list users failed", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
	})
}

func (h *UsersHandler) GetUserById(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.Error("get user failed", "id", id, "err", err)
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u,
	})
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id := ctx.Param("id")

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	patch := user.Patch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}

	// a caller-supplied password never reaches the store as-is
	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password, h.bcryptCost)

		if err != nil {
			h.log.Error("update user: password hashing failed", "id", id, "err", err)
			RespondInternal(ctx, "Could not update user")
			return
		}

		patch.PasswordHash = &hash
	}

	updated, err := h.users.Update(cctx, id, patch)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrEmailTaken):
			RespondBadRequest(ctx, "email_taken", "Email already exists", nil)
		default:
			h.log.Error("update user failed", "id", id, "err", err)
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":     true,
		"updatedUser": updated,
	})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.users.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.Error("delete user failed", "id", id, "err", err)
		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User has been deleted.",
	})
}
