package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local хранит аудиофайлы в локальной директории: по одному файлу
// на песню, имя файла — ID песни плюс расширение формата.
type Local struct {
	dir string
}

// NewLocal создает локальное хранилище в указанной директории
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// Open открывает аудиофайл песни. Если файла в предпочтительном формате
// нет, пробуется второй формат; если нет и его — ErrMediaNotFound.
func (l *Local) Open(_ context.Context, songID string, lossless bool) (io.ReadCloser, string, error) {
	ext, mime := formatFor(lossless)
	f, err := os.Open(l.path(songID, ext))
	if err == nil {
		return f, mime, nil
	}
	if !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("ошибка открытия аудиофайла: %w", err)
	}

	ext, mime = formatFor(!lossless)
	f, err = os.Open(l.path(songID, ext))
	if err == nil {
		return f, mime, nil
	}
	if os.IsNotExist(err) {
		return nil, "", fmt.Errorf("песня %q: %w", songID, ErrMediaNotFound)
	}
	return nil, "", fmt.Errorf("ошибка открытия аудиофайла: %w", err)
}

// Put сохраняет аудиофайл песни в хранилище
func (l *Local) Put(songID, ext string, r io.Reader) error {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}
	f, err := os.Create(l.path(songID, ext))
	if err != nil {
		return fmt.Errorf("ошибка создания файла: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("ошибка записи файла: %w", err)
	}
	return nil
}

// Remove удаляет все файлы песни из хранилища
func (l *Local) Remove(songID string) error {
	var firstErr error
	for _, ext := range []string{"mp3", "flac"} {
		err := os.Remove(l.path(songID, ext))
		if err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("ошибка удаления файла: %w", err)
		}
	}
	return firstErr
}

func (l *Local) path(songID, ext string) string {
	return filepath.Join(l.dir, songID+"."+ext)
}
