package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/citysafe/citysafe-backend/internal/logger"
	"github.com/citysafe/citysafe-backend/internal/models"
	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
	"github.com/citysafe/citysafe-backend/internal/repository"
	"github.com/citysafe/citysafe-backend/internal/validation"
)

// Разрешённые типы медиа-файлов обращений.
var allowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
}

// fieldAliases задаёт принимаемые написания каждого смыслового поля
// формы в порядке приоритета: клиенты исторически шлют и snake_case,
// и camelCase.
var fieldAliases = map[string][]string{
	"incidentType": {"incident_type", "incidentType"},
	"date":         {"date"},
	"time":         {"time"},
	"location":     {"location"},
	"description":  {"description"},
	"anonymous":    {"anonymous"},
	"name":         {"name"},
	"phone":        {"phone"},
	"email":        {"email"},
	"witnesses":    {"witnesses"},
	"userId":       {"user_id", "userId"},
	"lat":          {"lat", "latitude"},
	"lng":          {"lng", "longitude"},
}

// FormFields — сырые текстовые поля multipart формы.
type FormFields map[string][]string

// resolve возвращает первое присутствующее непустое значение поля
// по списку принимаемых написаний.
func (f FormFields) resolve(field string) (string, bool) {
	for _, key := range fieldAliases[field] {
		values, ok := f[key]
		if !ok {
			continue
		}
		for _, v := range values {
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// MediaUpload описывает приложенный к обращению файл.
type MediaUpload struct {
	Reader      io.ReadSeeker
	Filename    string
	ContentType string
	Size        int64
}

// ReportStore описывает зависимости ReportService от слоя хранилища.
type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, skip, limit int) ([]models.Report, error)
	ListWithGeoPoint(ctx context.Context, skip, limit int) ([]models.Report, error)
}

// MediaPutter сохраняет блоб и возвращает идентификатор объекта.
type MediaPutter interface {
	Put(ctx context.Context, r io.Reader, filename, contentType string) (uuid.UUID, error)
}

// ReportPublisher рассылает событие о новом обращении подписчикам
// живой ленты. Рассылка best-effort и не влияет на результат запроса.
type ReportPublisher interface {
	PublishReportCreated(report *models.Report)
}

// ReportService — пайплайн приёма обращений: валидация и нормализация
// полей, выбор представления локации, сохранение медиа и запись
// итоговой записи. Порядок жёсткий: валидация → медиа → вставка,
// чтобы при отказе хранилища не оставалось полузаписанных обращений.
type ReportService struct {
	repo      ReportStore
	media     MediaPutter
	publisher ReportPublisher
	maxUpload int64
}

// NewReportService создаёт сервис. publisher может быть nil.
func NewReportService(repo ReportStore, media MediaPutter, publisher ReportPublisher, maxUploadBytes int64) *ReportService {
	return &ReportService{
		repo:      repo,
		media:     media,
		publisher: publisher,
		maxUpload: maxUploadBytes,
	}
}

// Submit валидирует и сохраняет обращение, возвращает его идентификатор.
func (s *ReportService) Submit(ctx context.Context, fields FormFields, media *MediaUpload) (uuid.UUID, error) {
	report, err := s.buildReport(fields)
	if err != nil {
		return uuid.Nil, err
	}

	if media != nil {
		if err := s.validateMedia(media); err != nil {
			return uuid.Nil, err
		}
		mediaID, err := s.media.Put(ctx, media.Reader, media.Filename, media.ContentType)
		if err != nil {
			return uuid.Nil, err
		}
		report.MediaID = &mediaID
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return uuid.Nil, apperror.Internal(err)
	}

	if s.publisher != nil {
		s.publisher.PublishReportCreated(report)
	}

	return report.ID, nil
}

// buildReport нормализует поля формы в запись обращения.
func (s *ReportService) buildReport(fields FormFields) (*models.Report, error) {
	report := &models.Report{}

	rawType, ok := fields.resolve("incidentType")
	if !ok || strings.TrimSpace(rawType) == "" {
		return nil, apperror.Validation("incident type is required")
	}
	report.IncidentType = NormalizeIncidentType(rawType)

	if v, ok := fields.resolve("date"); ok {
		report.OccurredDate = trimmed(v)
	}
	if v, ok := fields.resolve("time"); ok {
		report.OccurredTime = trimmed(v)
	}

	report.Anonymous = parseAnonymous(fields)

	if v, ok := fields.resolve("description"); ok {
		if err := validation.ValidateLength("description", strings.TrimSpace(v), validation.MaxDescriptionLength); err != nil {
			return nil, err
		}
		report.Description = trimmed(v)
	}

	if v, ok := fields.resolve("name"); ok {
		if err := validation.ValidateLength("name", strings.TrimSpace(v), validation.MaxReporterNameLength); err != nil {
			return nil, err
		}
		report.ReporterName = trimmed(v)
	}

	if v, ok := fields.resolve("witnesses"); ok {
		if err := validation.ValidateLength("witnesses", strings.TrimSpace(v), validation.MaxWitnessesLength); err != nil {
			return nil, err
		}
		report.Witnesses = trimmed(v)
	}

	if v, ok := fields.resolve("email"); ok && strings.TrimSpace(v) != "" {
		if err := validation.ValidateEmail(v); err != nil {
			return nil, err
		}
		email := strings.ToLower(strings.TrimSpace(v))
		report.Email = &email
	}

	if v, ok := fields.resolve("phone"); ok && strings.TrimSpace(v) != "" {
		if err := validation.ValidatePhone(v); err != nil {
			return nil, err
		}
		phone := validation.NormalizePhone(v)
		report.Phone = &phone
	}

	if err := s.resolveLocation(fields, report); err != nil {
		return nil, err
	}

	// Некорректный userId обращение не валит: ссылка деградирует
	// до непрозрачного текста.
	if v, ok := fields.resolve("userId"); ok && strings.TrimSpace(v) != "" {
		raw := strings.TrimSpace(v)
		if userID, err := uuid.Parse(raw); err == nil {
			report.UserID = &userID
		} else {
			report.UserRef = &raw
			if logger.Log != nil {
				logger.Log.WithField("user_id", raw).Debug("report service: userId не распарсился, сохраняем текстом")
			}
		}
	}

	return report, nil
}

// resolveLocation выбирает представление локации: координаты побеждают
// текст, при валидной паре lat/lng текстовая локация отбрасывается.
func (s *ReportService) resolveLocation(fields FormFields, report *models.Report) error {
	var lat, lng *float64

	if v, ok := fields.resolve("lat"); ok && strings.TrimSpace(v) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return apperror.Validation("invalid coordinates")
		}
		lat = &parsed
	}
	if v, ok := fields.resolve("lng"); ok && strings.TrimSpace(v) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return apperror.Validation("invalid coordinates")
		}
		lng = &parsed
	}

	if lat != nil && (*lat < validation.MinLatitude || *lat > validation.MaxLatitude) {
		return apperror.Validation("invalid coordinates")
	}
	if lng != nil && (*lng < validation.MinLongitude || *lng > validation.MaxLongitude) {
		return apperror.Validation("invalid coordinates")
	}

	if lat != nil && lng != nil {
		report.GeoLng = lng
		report.GeoLat = lat
		return nil
	}

	if v, ok := fields.resolve("location"); ok && strings.TrimSpace(v) != "" {
		text := strings.TrimSpace(v)
		if err := validation.ValidateLength("location", text, validation.MaxLocationTextLength); err != nil {
			return err
		}
		report.LocationText = &text
	}

	return nil
}

// validateMedia применяет политику размера и типа к приложенному файлу.
func (s *ReportService) validateMedia(media *MediaUpload) error {
	if media.Size > s.maxUpload {
		return apperror.Validation("file too large")
	}

	declared := strings.ToLower(strings.TrimSpace(media.ContentType))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if !allowedMediaTypes[declared] {
		return apperror.Validation(fmt.Sprintf("unsupported media type %q", declared))
	}

	// Сверяем заявленный тип с магическими байтами: заголовка в 512 байт
	// достаточно для всех поддерживаемых форматов.
	head := make([]byte, 512)
	n, err := media.Reader.Read(head)
	if err != nil && err != io.EOF {
		return apperror.Internal(err)
	}
	if _, err := media.Reader.Seek(0, io.SeekStart); err != nil {
		return apperror.Internal(err)
	}

	kind, err := filetype.Match(head[:n])
	if err == nil && kind != filetype.Unknown && !allowedMediaTypes[kind.MIME.Value] {
		return apperror.Validation(fmt.Sprintf("unsupported media type %q", kind.MIME.Value))
	}

	return nil
}

// NormalizeIncidentType приводит тип инцидента к нижнему регистру и
// обрезает пробелы; нераспознанные значения молча становятся "other".
func NormalizeIncidentType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if !models.IsAllowedIncidentType(t) {
		return models.IncidentTypeOther
	}
	return t
}

// parseAnonymous разбирает нестрогий boolean: {"true","1","yes"} → true,
// всё остальное (включая отсутствие) → значение по умолчанию true.
func parseAnonymous(fields FormFields) bool {
	v, ok := fields.resolve("anonymous")
	if !ok {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return true
	}
}

// GetByID возвращает обращение по идентификатору.
func (s *ReportService) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, apperror.Internal(err)
	}
	return report, nil
}

// List возвращает страницу обращений, новые первыми.
func (s *ReportService) List(ctx context.Context, skip, limit int) ([]models.Report, error) {
	if err := validatePagination(skip, limit, repository.MaxListLimit); err != nil {
		return nil, err
	}
	reports, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return reports, nil
}

// ListWithGeoPoint возвращает страницу обращений с координатной локацией.
func (s *ReportService) ListWithGeoPoint(ctx context.Context, skip, limit int) ([]models.Report, error) {
	if err := validatePagination(skip, limit, repository.MaxGeoLimit); err != nil {
		return nil, err
	}
	reports, err := s.repo.ListWithGeoPoint(ctx, skip, limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return reports, nil
}

func validatePagination(skip, limit, maxLimit int) error {
	if skip < 0 {
		return apperror.Validation("skip must be >= 0")
	}
	if limit <= 0 {
		return apperror.Validation("limit must be positive")
	}
	if limit > maxLimit {
		return apperror.Validation(fmt.Sprintf("limit must be at most %d", maxLimit))
	}
	return nil
}

func trimmed(v string) *string {
	t := strings.TrimSpace(v)
	if t == "" {
		return nil
	}
	return &t
}
