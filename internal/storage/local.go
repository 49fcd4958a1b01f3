package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore хранит блобы на локальном диске.
type LocalStore struct {
	rootPath string
}

// NewLocalStore создаёт файловое хранилище.
func NewLocalStore(rootPath string) (*LocalStore, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	return &LocalStore{rootPath: rootPath}, nil
}

// Save записывает блоб во временный файл и атомарно переименовывает.
func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	targetPath := filepath.Join(s.rootPath, sanitizeKey(key))
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return written, nil
}

// Open открывает блоб на чтение.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.rootPath, sanitizeKey(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("storage: не удалось открыть файл: %w", err)
	}
	return f, nil
}

// Delete удаляет блоб.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.rootPath, sanitizeKey(key))); err != nil {
		if os.IsNotExist(err) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// sanitizeKey вырезает из ключа потенциально опасные символы путей.
func sanitizeKey(key string) string {
	key = filepath.Base(key)
	key = strings.ReplaceAll(key, "..", "")
	if key == "" || key == "." {
		key = "blob"
	}
	return key
}
