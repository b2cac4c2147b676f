package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore хранит значения в JSON файле с правами 0600.
// Каждая операция перечитывает файл: его может изменить другой процесс.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore создает файловое хранилище по указанному пути
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("путь к файлу хранилища не указан")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", filepath.Dir(path), err)
	}

	return &FileStore{path: path}, nil
}

// Path возвращает путь к файлу хранилища
func (fs *FileStore) Path() string {
	return fs.path
}

// Get возвращает значение по ключу
func (fs *FileStore) Get(_ context.Context, key string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	values, err := fs.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set сохраняет значение
func (fs *FileStore) Set(_ context.Context, key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	values, err := fs.load()
	if err != nil {
		return err
	}
	values[key] = value
	return fs.save(values)
}

// Delete удаляет значение; пустой файл удаляется целиком
func (fs *FileStore) Delete(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	values, err := fs.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)

	if len(values) == 0 {
		if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("ошибка удаления файла хранилища: %w", err)
		}
		return nil
	}
	return fs.save(values)
}

func (fs *FileStore) load() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла хранилища: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("ошибка десериализации хранилища: %w", err)
	}
	return values, nil
}

// save пишет во временный файл и переименовывает его, чтобы файл
// никогда не оставался наполовину записанным.
func (fs *FileStore) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации хранилища: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка установки прав: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи хранилища: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи хранилища: %w", err)
	}

	if err := os.Rename(tmpName, fs.path); err != nil {
		return fmt.Errorf("ошибка сохранения хранилища: %w", err)
	}
	return nil
}
