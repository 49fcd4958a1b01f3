package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
	"github.com/citysafe/citysafe-backend/internal/repository"
)

// Настоящая тайловая агрегация вне рамок сервиса; плотность считается
// простой группировкой по координатной паре.
const densityBucketLimit = 1000

// StatsHandler отдаёт простую аналитику по обращениям.
type StatsHandler struct {
	reports *repository.ReportRepository
	users   *repository.UserRepository
}

// NewStatsHandler создаёт хэндлер.
func NewStatsHandler(reports *repository.ReportRepository, users *repository.UserRepository) *StatsHandler {
	return &StatsHandler{reports: reports, users: users}
}

// Counts обрабатывает GET /analytics/counts.
func (h *StatsHandler) Counts(c *gin.Context) {
	reportCount, err := h.reports.Count(c.Request.Context())
	if err != nil {
		respondError(c, apperror.Internal(err))
		return
	}

	userCount, err := h.users.Count(c.Request.Context())
	if err != nil {
		respondError(c, apperror.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reportCount,
		"users":   userCount,
	})
}

// Density обрабатывает GET /analytics/density.
func (h *StatsHandler) Density(c *gin.Context) {
	buckets, err := h.reports.Density(c.Request.Context(), densityBucketLimit)
	if err != nil {
		respondError(c, apperror.Internal(err))
		return
	}

	c.JSON(http.StatusOK, buckets)
}
