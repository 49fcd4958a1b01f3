// Пакет geo проецирует записи обращений в GeoJSON для картографических
// клиентов.
package geo

import (
	"time"

	"github.com/citysafe/citysafe-backend/internal/models"
)

// Feature — GeoJSON точка с набором свойств обращения.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   models.GeoPoint   `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// FeatureProperties переносит на карту минимум сведений об обращении.
type FeatureProperties struct {
	ID           string  `json:"id"`
	IncidentType string  `json:"incidentType"`
	CreatedAt    *string `json:"createdAt"`
}

// FeatureCollection — стандартная GeoJSON обёртка над набором точек.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// ToFeatureCollection собирает коллекцию из записей с координатной
// локацией. Записи с текстовой локацией молча пропускаются; порядок
// входа сохраняется — сортировку и пагинацию уже применил вызывающий.
func ToFeatureCollection(reports []models.Report) FeatureCollection {
	features := make([]Feature, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		if !r.HasGeoPoint() {
			continue
		}

		var createdAt *string
		if !r.CreatedAt.IsZero() {
			iso := r.CreatedAt.UTC().Format(time.RFC3339)
			createdAt = &iso
		}

		features = append(features, Feature{
			Type:     "Feature",
			Geometry: models.NewGeoPoint(*r.GeoLng, *r.GeoLat),
			Properties: FeatureProperties{
				ID:           r.ID.String(),
				IncidentType: r.IncidentType,
				CreatedAt:    createdAt,
			},
		})
	}

	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
