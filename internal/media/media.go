// Package media содержит хранилища аудиофайлов библиотеки
package media

import (
	"context"
	"errors"
	"io"
)

// ErrMediaNotFound возвращается, когда у песни нет воспроизводимого файла
var ErrMediaNotFound = errors.New("аудиофайл песни не найден")

// Storage разрешает ID песни в поток закодированного аудио.
// Второй результат — подсказка MIME-типа для декодера.
// Отсутствие файла — восстановимая ситуация, а не сбой.
type Storage interface {
	Open(ctx context.Context, songID string, lossless bool) (io.ReadCloser, string, error)
}

// расширения и MIME-типы по предпочтению качества
func formatFor(lossless bool) (ext, mime string) {
	if lossless {
		return "flac", "audio/flac"
	}
	return "mp3", "audio/mpeg"
}
