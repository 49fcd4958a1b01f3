package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
	"github.com/citysafe/citysafe-backend/internal/repository"
)

// UserHandler отдаёт публичные сведения о пользователях.
type UserHandler struct {
	users *repository.UserRepository
}

// NewUserHandler создаёт хэндлер.
func NewUserHandler(users *repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// List обрабатывает GET /users.
func (h *UserHandler) List(c *gin.Context) {
	skip, limit, err := parsePagination(c, defaultListLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	if skip < 0 || limit <= 0 || limit > repository.MaxListLimit {
		respondError(c, apperror.Validation("invalid pagination bounds"))
		return
	}

	users, err := h.users.List(c.Request.Context(), skip, limit)
	if err != nil {
		respondError(c, apperror.Internal(err))
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetByID обрабатывает GET /users/:id.
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.Validation("invalid id"))
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondError(c, apperror.ErrUserNotFound)
			return
		}
		respondError(c, apperror.Internal(err))
		return
	}

	c.JSON(http.StatusOK, user)
}
