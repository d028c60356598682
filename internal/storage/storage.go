package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound — файла нет на диске.
var ErrNotFound = errors.New("stored file not found")

// Local хранит файлы в каталоге на локальном диске.
type Local struct {
	root string
}

// NewLocal создаёт хранилище с корнем root, создавая каталог
// при необходимости.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

// Save записывает содержимое r в каталог пользователя под новым
// UUID-именем и возвращает имя на диске и полный путь.
func (s *Local) Save(userID int64, originalName string, r io.Reader) (filename, path string, err error) {
	dir := s.userDir(userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create user dir %s: %w", dir, err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	filename = uuid.NewString() + ext
	path = filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("write %s: %w", path, err)
	}
	return filename, path, nil
}

// Delete удаляет файл пользователя с диска.
// Отсутствующий файл — ErrNotFound: вызывающий решает, фатально ли это.
func (s *Local) Delete(userID int64, filename string) error {
	path := s.Path(userID, filename)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Path возвращает полный путь файла пользователя.
func (s *Local) Path(userID int64, filename string) string {
	return filepath.Join(s.userDir(userID), filename)
}

// Size возвращает размер файла на диске.
func (s *Local) Size(userID int64, filename string) (int64, error) {
	info, err := os.Stat(s.Path(userID, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return 0, err
	}
	return info.Size(), nil
}

func (s *Local) userDir(userID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(userID, 10))
}
