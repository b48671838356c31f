// Package covers содержит локальное хранилище обложек
package covers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Placeholder ссылка на обложку-заглушку для песен без собственной
const Placeholder = "unknown.png"

// Store хранит обложки в локальной директории, по одной на ID
type Store struct {
	dir string
}

// NewStore создает хранилище обложек в указанной директории
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Open открывает обложку по ID. Если обложки нет, возвращается
// заглушка: отсутствие обложки не считается ошибкой.
func (s *Store) Open(id string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(id))
	if err == nil {
		return f, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка открытия обложки: %w", err)
	}
	f, err = os.Open(filepath.Join(s.dir, Placeholder))
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия заглушки обложки: %w", err)
	}
	return f, nil
}

// Ref возвращает ссылку на обложку для записи в каталог:
// путь к файлу либо заглушка, если файла нет.
func (s *Store) Ref(id string) string {
	if _, err := os.Stat(s.path(id)); err != nil {
		return Placeholder
	}
	return s.path(id)
}

// Put сохраняет обложку по ID
func (s *Store) Put(id string, r io.Reader) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}
	f, err := os.Create(s.path(id))
	if err != nil {
		return fmt.Errorf("ошибка создания файла обложки: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("ошибка записи обложки: %w", err)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".png")
}
