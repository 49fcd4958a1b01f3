package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/citysafe/citysafe-backend/internal/models"
)

var ErrReportNotFound = errors.New("report not found")

// Границы пагинации. Гео-выборка допускает больший лимит,
// потому что карта запрашивает точки одним махом.
const (
	MaxListLimit = 1000
	MaxGeoLimit  = 10000
)

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create вставляет обращение; id и created_at назначает база.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (
			incident_type, occurred_date, occurred_time, location_text,
			geo_lng, geo_lat, description, anonymous, reporter_name,
			phone, email, witnesses, user_id, user_ref, media_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		report.IncidentType, report.OccurredDate, report.OccurredTime, report.LocationText,
		report.GeoLng, report.GeoLat, report.Description, report.Anonymous, report.ReporterName,
		report.Phone, report.Email, report.Witnesses, report.UserID, report.UserRef, report.MediaID,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.db.GetContext(ctx, &report, `SELECT * FROM reports WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get by id %w", err)
	}
	return &report, nil
}

// List возвращает страницу обращений, отсортированных по created_at по убыванию.
// Границы skip/limit проверяет вызывающая сторона.
func (r *ReportRepository) List(ctx context.Context, skip, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM reports ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("report repository: list %w", err)
	}
	return reports, nil
}

// ListWithGeoPoint возвращает страницу обращений, у которых локация
// хранится координатами, а не текстом.
func (r *ReportRepository) ListWithGeoPoint(ctx context.Context, skip, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM reports
		WHERE geo_lng IS NOT NULL AND geo_lat IS NOT NULL
		ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("report repository: list with geo point %w", err)
	}
	return reports, nil
}

func (r *ReportRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reports`); err != nil {
		return 0, fmt.Errorf("report repository: count %w", err)
	}
	return count, nil
}

// Density группирует гео-обращения по координатной паре.
func (r *ReportRepository) Density(ctx context.Context, limit int) ([]models.DensityBucket, error) {
	var buckets []models.DensityBucket
	err := r.db.SelectContext(ctx, &buckets, `
		SELECT geo_lng, geo_lat, COUNT(*) AS count
		FROM reports
		WHERE geo_lng IS NOT NULL AND geo_lat IS NOT NULL
		GROUP BY geo_lng, geo_lat
		ORDER BY count DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("report repository: density %w", err)
	}
	return buckets, nil
}
