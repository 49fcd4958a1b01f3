package models

import (
	"time"

	"github.com/google/uuid"
)

// Допустимые типы инцидентов. Всё, что не входит в список,
// приводится к IncidentTypeOther при приёме обращения.
const (
	IncidentTypeAssault            = "assault"
	IncidentTypeTheft              = "theft"
	IncidentTypeHarassment         = "harassment"
	IncidentTypeVandalism          = "vandalism"
	IncidentTypeAccident           = "accident"
	IncidentTypeSuspiciousActivity = "suspicious_activity"
	IncidentTypeOther              = "other"
)

var allowedIncidentTypes = map[string]bool{
	IncidentTypeAssault:            true,
	IncidentTypeTheft:              true,
	IncidentTypeHarassment:         true,
	IncidentTypeVandalism:          true,
	IncidentTypeAccident:           true,
	IncidentTypeSuspiciousActivity: true,
	IncidentTypeOther:              true,
}

// IsAllowedIncidentType сообщает, входит ли тип в фиксированный список.
func IsAllowedIncidentType(t string) bool {
	return allowedIncidentTypes[t]
}

// Report описывает обращение о происшествии — основную сущность системы.
// Локация хранится в одном из двух представлений: либо текст
// (LocationText), либо координаты (GeoLng+GeoLat), но не оба сразу.
type Report struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	IncidentType string     `db:"incident_type" json:"incident_type"`
	OccurredDate *string    `db:"occurred_date" json:"date,omitempty"`
	OccurredTime *string    `db:"occurred_time" json:"time,omitempty"`
	LocationText *string    `db:"location_text" json:"-"`
	GeoLng       *float64   `db:"geo_lng" json:"-"`
	GeoLat       *float64   `db:"geo_lat" json:"-"`
	Description  *string    `db:"description" json:"description,omitempty"`
	Anonymous    bool       `db:"anonymous" json:"anonymous"`
	ReporterName *string    `db:"reporter_name" json:"name,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Email        *string    `db:"email" json:"email,omitempty"`
	Witnesses    *string    `db:"witnesses" json:"witnesses,omitempty"`
	UserID       *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	UserRef      *string    `db:"user_ref" json:"user_ref,omitempty"`
	MediaID      *uuid.UUID `db:"media_id" json:"media_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// HasGeoPoint сообщает, хранится ли локация в координатном представлении.
func (r *Report) HasGeoPoint() bool {
	return r.GeoLng != nil && r.GeoLat != nil
}

// GeoPoint представляет точку в формате GeoJSON: координаты в порядке
// [долгота, широта].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint собирает GeoJSON-точку из долготы и широты.
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

// Location возвращает локацию обращения в том виде, в котором она
// отдаётся клиенту: GeoJSON-точка, текст или nil.
func (r *Report) Location() interface{} {
	if r.HasGeoPoint() {
		return NewGeoPoint(*r.GeoLng, *r.GeoLat)
	}
	if r.LocationText != nil {
		return *r.LocationText
	}
	return nil
}

// DensityBucket — количество обращений с одинаковой координатной парой.
type DensityBucket struct {
	Lng   float64 `db:"geo_lng" json:"lng"`
	Lat   float64 `db:"geo_lat" json:"lat"`
	Count int64   `db:"count" json:"count"`
}
