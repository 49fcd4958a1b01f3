// Пакет storage отвечает за хранение бинарных блобов медиа-файлов.
// Политика размера и типа файла живёт уровнем выше, в пайплайне приёма.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound сигнализирует об отсутствии блоба в хранилище.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore абстрагирует хранилище блобов: локальный диск или S3.
type BlobStore interface {
	// Save записывает содержимое r под ключом key.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	// Open открывает блоб на чтение; поток можно отдавать напрямую
	// в тело HTTP ответа.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete удаляет блоб; отсутствие блоба — ErrBlobNotFound.
	Delete(ctx context.Context, key string) error
}
