package geo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citysafe/citysafe-backend/internal/models"
)

func geoReport(lng, lat float64, incidentType string) models.Report {
	return models.Report{
		ID:           uuid.New(),
		IncidentType: incidentType,
		GeoLng:       &lng,
		GeoLat:       &lat,
		CreatedAt:    time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestToFeatureCollection_SkipsTextLocations(t *testing.T) {
	text := "behind the old mill"
	reports := []models.Report{
		geoReport(37.62, 55.75, models.IncidentTypeTheft),
		{ID: uuid.New(), IncidentType: models.IncidentTypeOther, LocationText: &text},
		geoReport(-0.12, 51.50, models.IncidentTypeAssault),
		geoReport(139.69, 35.69, models.IncidentTypeVandalism),
	}

	fc := ToFeatureCollection(reports)

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)

	// Порядок входа сохраняется.
	assert.Equal(t, reports[0].ID.String(), fc.Features[0].Properties.ID)
	assert.Equal(t, reports[2].ID.String(), fc.Features[1].Properties.ID)
	assert.Equal(t, reports[3].ID.String(), fc.Features[2].Properties.ID)

	first := fc.Features[0]
	assert.Equal(t, "Feature", first.Type)
	assert.Equal(t, "Point", first.Geometry.Type)
	assert.Equal(t, [2]float64{37.62, 55.75}, first.Geometry.Coordinates)
	assert.Equal(t, models.IncidentTypeTheft, first.Properties.IncidentType)
	require.NotNil(t, first.Properties.CreatedAt)
	assert.Equal(t, "2025-03-14T09:26:53Z", *first.Properties.CreatedAt)
}

func TestToFeatureCollection_EmptyInput(t *testing.T) {
	fc := ToFeatureCollection(nil)

	// features сериализуется пустым массивом, а не null.
	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(raw))
}

func TestToFeatureCollection_ZeroCreatedAtOmitted(t *testing.T) {
	lng, lat := 10.0, 20.0
	fc := ToFeatureCollection([]models.Report{{
		ID:           uuid.New(),
		IncidentType: models.IncidentTypeOther,
		GeoLng:       &lng,
		GeoLat:       &lat,
	}})

	require.Len(t, fc.Features, 1)
	assert.Nil(t, fc.Features[0].Properties.CreatedAt)
}
