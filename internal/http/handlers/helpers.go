package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/citysafe/citysafe-backend/internal/logger"
	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
)

// respondError переводит типизированную ошибку в HTTP ответ.
// Внутренние ошибки логируются целиком, клиенту уходит общее сообщение.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatusOf(err)
	if status >= 500 && logger.Log != nil {
		logger.Log.WithFields(map[string]interface{}{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("request failed")
	}
	c.JSON(status, gin.H{"error": apperror.MessageOf(err)})
}

// parsePagination разбирает skip/limit из query с дефолтами.
// Нечисловые значения — ошибка валидации, границы проверяет сервис.
func parsePagination(c *gin.Context, defaultLimit int) (int, int, error) {
	skip := 0
	limit := defaultLimit

	if v := c.Query("skip"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, apperror.Validation("skip must be an integer")
		}
		skip = parsed
	}
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, apperror.Validation("limit must be an integer")
		}
		limit = parsed
	}

	return skip, limit, nil
}
