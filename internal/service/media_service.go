package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/citysafe/citysafe-backend/internal/logger"
	"github.com/citysafe/citysafe-backend/internal/models"
	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
	"github.com/citysafe/citysafe-backend/internal/repository"
	"github.com/citysafe/citysafe-backend/internal/storage"
)

// MediaMetaRepository описывает зависимость MediaService от слоя метаданных.
type MediaMetaRepository interface {
	Create(ctx context.Context, media *models.MediaFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MediaService — адаптер объектного хранилища: байты живут в BlobStore,
// метаданные (имя, заявленный content type) — в базе. Политику размера
// и типа файла сервис не навязывает, она живёт в пайплайне приёма.
type MediaService struct {
	repo  MediaMetaRepository
	blobs storage.BlobStore
}

// NewMediaService создаёт сервис.
func NewMediaService(repo MediaMetaRepository, blobs storage.BlobStore) *MediaService {
	return &MediaService{repo: repo, blobs: blobs}
}

// Put сохраняет блоб и метаданные, возвращает идентификатор объекта.
func (s *MediaService) Put(ctx context.Context, r io.Reader, filename, contentType string) (uuid.UUID, error) {
	id := uuid.New()
	key := id.String() + strings.ToLower(filepath.Ext(sanitizeFilename(filename)))

	size, err := s.blobs.Save(ctx, key, r)
	if err != nil {
		return uuid.Nil, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to store file")
	}

	media := &models.MediaFile{
		ID:          id,
		StorageKey:  key,
		FileName:    sanitizeFilename(filename),
		ContentType: contentType,
		FileSize:    size,
	}

	if err := s.repo.Create(ctx, media); err != nil {
		// Блоб уже записан; запись метаданных не удалась — блоб осиротел,
		// пробуем прибрать, но ошибку наружу не каскадируем.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil && !errors.Is(delErr, storage.ErrBlobNotFound) {
			if logger.Log != nil {
				logger.Log.WithField("key", key).Warn("media service: не удалось удалить осиротевший блоб")
			}
		}
		return uuid.Nil, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to store file")
	}

	return id, nil
}

// Get открывает поток блоба вместе с метаданными.
// Вызывающая сторона обязана закрыть поток.
func (s *MediaService) Get(ctx context.Context, id uuid.UUID) (io.ReadCloser, *models.MediaFile, error) {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			return nil, nil, apperror.ErrMediaNotFound
		}
		return nil, nil, apperror.Internal(err)
	}

	rc, err := s.blobs.Open(ctx, media.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, apperror.ErrMediaNotFound
		}
		return nil, nil, apperror.Internal(err)
	}

	return rc, media, nil
}

// Delete удаляет объект. Повторное удаление возвращает not found,
// а не молчаливый успех.
func (s *MediaService) Delete(ctx context.Context, id uuid.UUID) error {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			return apperror.ErrMediaNotFound
		}
		return apperror.Internal(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			return apperror.ErrMediaNotFound
		}
		return apperror.Internal(err)
	}

	if err := s.blobs.Delete(ctx, media.StorageKey); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		return apperror.Internal(fmt.Errorf("delete blob %s: %w", media.StorageKey, err))
	}

	return nil
}

// sanitizeFilename удаляет потенциально опасные символы из имени файла.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
