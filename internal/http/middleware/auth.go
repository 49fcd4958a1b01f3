package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
	"github.com/citysafe/citysafe-backend/internal/service"
)

// ContextUserIDKey — ключ gin.Context с идентификатором пользователя.
const ContextUserIDKey = "userID"

// AuthMiddleware проверяет JWT access токен. Любая причина отказа даёт
// один и тот же ответ 401, чтобы не раскрывать деталей проверки.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(apperror.ErrUnauthorized.HTTPStatus, gin.H{"error": apperror.ErrUnauthorized.Message})
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		userID, err := tokens.Parse(raw)
		if err != nil || userID == uuid.Nil {
			c.AbortWithStatusJSON(apperror.ErrUnauthorized.HTTPStatus, gin.H{"error": apperror.ErrUnauthorized.Message})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// CurrentUserID возвращает идентификатор пользователя из контекста.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	return userID, ok
}
