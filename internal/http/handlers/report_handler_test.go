package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citysafe/citysafe-backend/internal/http/middleware"
	"github.com/citysafe/citysafe-backend/internal/models"
	"github.com/citysafe/citysafe-backend/internal/repository"
	"github.com/citysafe/citysafe-backend/internal/service"
	"github.com/citysafe/citysafe-backend/internal/storage"
)

// memReportStore реализует service.ReportStore в памяти.
type memReportStore struct {
	reports []models.Report
}

func (m *memReportStore) Create(ctx context.Context, report *models.Report) error {
	report.ID = uuid.New()
	report.CreatedAt = time.Now().UTC()
	m.reports = append(m.reports, *report)
	return nil
}

func (m *memReportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	for i := range m.reports {
		if m.reports[i].ID == id {
			return &m.reports[i], nil
		}
	}
	return nil, repository.ErrReportNotFound
}

func (m *memReportStore) List(ctx context.Context, skip, limit int) ([]models.Report, error) {
	return m.reports, nil
}

func (m *memReportStore) ListWithGeoPoint(ctx context.Context, skip, limit int) ([]models.Report, error) {
	var out []models.Report
	for _, r := range m.reports {
		if r.HasGeoPoint() {
			out = append(out, r)
		}
	}
	return out, nil
}

// memMediaRepo реализует service.MediaMetaRepository в памяти.
type memMediaRepo struct {
	files map[uuid.UUID]*models.MediaFile
}

func (m *memMediaRepo) Create(ctx context.Context, media *models.MediaFile) error {
	m.files[media.ID] = media
	return nil
}

func (m *memMediaRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	media, ok := m.files[id]
	if !ok {
		return nil, repository.ErrMediaNotFound
	}
	return media, nil
}

func (m *memMediaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.files[id]; !ok {
		return repository.ErrMediaNotFound
	}
	delete(m.files, id)
	return nil
}

// memBlobStore реализует storage.BlobStore в памяти.
type memBlobStore struct {
	blobs map[string][]byte
}

func (m *memBlobStore) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.blobs[key] = data
	return int64(len(data)), nil
}

func (m *memBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) Delete(ctx context.Context, key string) error {
	if _, ok := m.blobs[key]; !ok {
		return storage.ErrBlobNotFound
	}
	delete(m.blobs, key)
	return nil
}

type testEnv struct {
	router *gin.Engine
	store  *memReportStore
	blobs  *memBlobStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memReportStore{}
	blobs := &memBlobStore{blobs: make(map[string][]byte)}
	mediaRepo := &memMediaRepo{files: make(map[uuid.UUID]*models.MediaFile)}

	mediaService := service.NewMediaService(mediaRepo, blobs)
	reportService := service.NewReportService(store, mediaService, nil, 10*1024*1024)

	reportHandler := NewReportHandler(reportService)
	mediaHandler := NewMediaHandler(mediaService)

	r := gin.New()
	reports := r.Group("/reports")
	{
		reports.POST("", reportHandler.Create)
		reports.GET("", reportHandler.List)
		reports.GET("/geojson", reportHandler.GeoJSON)
		reports.GET("/:id", middleware.UUIDValidator("id"), reportHandler.GetByID)
	}
	media := r.Group("/media")
	{
		media.GET("/:id", middleware.UUIDValidator("id"), mediaHandler.Get)
		media.DELETE("/:id", middleware.UUIDValidator("id"), mediaHandler.Delete)
	}

	return &testEnv{router: r, store: store, blobs: blobs}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, fileBytes []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		// CreateFormFile жёстко ставит octet-stream, поэтому часть
		// собирается вручную с настоящим типом файла.
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, fileName))
		header.Set("Content-Type", "image/jpeg")
		fw, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = fw.Write(fileBytes)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}

func TestReportCreate_WithMediaAndGeo(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{
		"incident_type": "theft",
		"lat":           "55.75",
		"lng":           "37.62",
		"description":   "bike stolen",
	}, "media", "photo.jpg", jpegBytes)

	req := httptest.NewRequest(http.MethodPost, "/reports", body)
	req.Header.Set("Content-Type", contentType)
	w := env.do(req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	reportID, err := uuid.Parse(created.ID)
	require.NoError(t, err)

	// Чтение обратно: локация как GeoJSON точка, ссылка на медиа производная.
	w = env.do(httptest.NewRequest(http.MethodGet, "/reports/"+reportID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		IncidentType string `json:"incident_type"`
		Location     struct {
			Type        string     `json:"type"`
			Coordinates [2]float64 `json:"coordinates"`
		} `json:"location"`
		MediaURL string `json:"media_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "theft", got.IncidentType)
	assert.Equal(t, "Point", got.Location.Type)
	assert.Equal(t, [2]float64{37.62, 55.75}, got.Location.Coordinates)
	require.NotEmpty(t, got.MediaURL)

	// Файл доступен по производной ссылке.
	w = env.do(httptest.NewRequest(http.MethodGet, got.MediaURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, jpegBytes, w.Body.Bytes())
}

func TestReportCreate_InvalidCoordinates(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{
		"incident_type": "theft",
		"lat":           "91",
		"lng":           "0",
	}, "", "", nil)

	req := httptest.NewRequest(http.MethodPost, "/reports", body)
	req.Header.Set("Content-Type", contentType)
	w := env.do(req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid coordinates")
	assert.Empty(t, env.store.reports)
}

func TestReportCreate_OversizedFileRejected(t *testing.T) {
	env := newTestEnv(t)

	big := make([]byte, 10*1024*1024+1)
	copy(big, jpegBytes)
	body, contentType := multipartBody(t, map[string]string{
		"incident_type": "theft",
	}, "media", "huge.jpg", big)

	req := httptest.NewRequest(http.MethodPost, "/reports", body)
	req.Header.Set("Content-Type", contentType)
	w := env.do(req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file too large")
	assert.Empty(t, env.blobs.blobs)
	assert.Empty(t, env.store.reports)
}

func TestReportList_BadPagination(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/reports?limit=abc", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/reports?skip=-1", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/reports?limit=1001", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportGet_MalformedVersusMissing(t *testing.T) {
	env := newTestEnv(t)

	// Битый формат идентификатора и отсутствующая запись различимы.
	w := env.do(httptest.NewRequest(http.MethodGet, "/reports/not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid id")

	w = env.do(httptest.NewRequest(http.MethodGet, "/reports/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "report not found")
}

func TestReportGeoJSON(t *testing.T) {
	env := newTestEnv(t)

	submit := func(fields map[string]string) {
		body, contentType := multipartBody(t, fields, "", "", nil)
		req := httptest.NewRequest(http.MethodPost, "/reports", body)
		req.Header.Set("Content-Type", contentType)
		w := env.do(req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	submit(map[string]string{"incident_type": "theft", "lat": "55.75", "lng": "37.62"})
	submit(map[string]string{"incident_type": "assault", "location": "dark alley"})
	submit(map[string]string{"incident_type": "vandalism", "lat": "51.50", "lng": "-0.12"})

	w := env.do(httptest.NewRequest(http.MethodGet, "/reports/geojson", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Coordinates [2]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties struct {
				IncidentType string `json:"incidentType"`
			} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, [2]float64{37.62, 55.75}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "vandalism", fc.Features[1].Properties.IncidentType)
}

func TestMediaDelete_TwiceReturnsNotFound(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{
		"incident_type": "theft",
	}, "media", "photo.jpg", jpegBytes)
	req := httptest.NewRequest(http.MethodPost, "/reports", body)
	req.Header.Set("Content-Type", contentType)
	require.Equal(t, http.StatusCreated, env.do(req).Code)

	require.Len(t, env.store.reports, 1)
	mediaID := env.store.reports[0].MediaID
	require.NotNil(t, mediaID)

	w := env.do(httptest.NewRequest(http.MethodDelete, "/media/"+mediaID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted")

	w = env.do(httptest.NewRequest(http.MethodDelete, "/media/"+mediaID.String(), nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "file not found")
}
