package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaFile описывает загруженный медиа-файл обращения.
// Сами байты лежат в блоб-хранилище под ключом StorageKey,
// здесь хранятся только метаданные.
type MediaFile struct {
	ID          uuid.UUID `db:"id" json:"id"`
	StorageKey  string    `db:"storage_key" json:"-"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentType string    `db:"content_type" json:"content_type"`
	FileSize    int64     `db:"file_size" json:"file_size"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
