package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/citysafe/citysafe-backend/internal/geo"
	"github.com/citysafe/citysafe-backend/internal/models"
	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
	"github.com/citysafe/citysafe-backend/internal/service"
)

// Дефолтные размеры страниц для выдачи обращений.
const (
	defaultListLimit = 100
	defaultGeoLimit  = 1000
)

// ReportHandler предоставляет HTTP слой для обращений.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler создаёт хэндлер.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// reportResponse — представление обращения в ответах API. Локация
// отдаётся одним полем: GeoJSON-точка или текст; при наличии медиа
// добавляется производная ссылка на файл.
type reportResponse struct {
	models.Report
	Location interface{} `json:"location,omitempty"`
	MediaURL string      `json:"media_url,omitempty"`
}

func toReportResponse(r models.Report) reportResponse {
	resp := reportResponse{Report: r, Location: r.Location()}
	if r.MediaID != nil {
		resp.MediaURL = "/media/" + r.MediaID.String()
	}
	return resp
}

// Create обрабатывает POST /reports (multipart форма).
func (h *ReportHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, apperror.Validation("multipart form expected"))
		return
	}

	var media *service.MediaUpload
	if files := form.File["media"]; len(files) > 0 {
		header := files[0]
		src, err := header.Open()
		if err != nil {
			respondError(c, apperror.Internal(err))
			return
		}
		defer src.Close()

		media = &service.MediaUpload{
			Reader:      src,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
		}
	}

	id, err := h.reports.Submit(c.Request.Context(), service.FormFields(form.Value), media)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id.String()})
}

// List обрабатывает GET /reports.
func (h *ReportHandler) List(c *gin.Context) {
	skip, limit, err := parsePagination(c, defaultListLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	reports, err := h.reports.List(c.Request.Context(), skip, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]reportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, toReportResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

// GetByID обрабатывает GET /reports/:id. Формат id уже проверен
// middleware, поэтому здесь остаётся только отсутствие записи.
func (h *ReportHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.Validation("invalid id"))
		return
	}

	report, err := h.reports.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReportResponse(*report))
}

// GeoJSON обрабатывает GET /reports/geojson.
func (h *ReportHandler) GeoJSON(c *gin.Context) {
	skip, limit, err := parsePagination(c, defaultGeoLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	reports, err := h.reports.ListWithGeoPoint(c.Request.Context(), skip, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, geo.ToFeatureCollection(reports))
}
