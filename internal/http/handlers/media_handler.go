package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
	"github.com/citysafe/citysafe-backend/internal/service"
)

// MediaHandler отдаёт и удаляет медиа-файлы обращений.
type MediaHandler struct {
	media *service.MediaService
}

// NewMediaHandler создаёт хэндлер.
func NewMediaHandler(media *service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Get обрабатывает GET /media/:id — стримит блоб с сохранённым
// content type прямо в тело ответа.
func (h *MediaHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.Validation("invalid id"))
		return
	}

	rc, media, err := h.media.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	contentType := media.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, media.FileSize, contentType, rc, map[string]string{
		"Content-Disposition": `inline; filename="` + media.FileName + `"`,
	})
}

// Delete обрабатывает DELETE /media/:id. Повторное удаление того же
// объекта возвращает 404, а не молчаливый успех.
func (h *MediaHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.Validation("invalid id"))
		return
	}

	if err := h.media.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
