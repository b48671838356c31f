// Package ingest добавляет аудиофайлы в библиотеку: метаданные,
// обложка, локальное хранилище и, при наличии, загрузка в S3
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/covers"
	"github.com/hazadus/go-melody/internal/media"
	"github.com/hazadus/go-melody/internal/metadata"
)

// Service управляет процессом добавления файлов в библиотеку
type Service struct {
	local     *media.Local
	remote    *media.S3 // nil когда S3 не настроен
	covers    *covers.Store
	catalog   *catalog.Store
	extractor *metadata.Extractor
	log       zerolog.Logger
}

// NewService создает новый сервис добавления файлов
func NewService(local *media.Local, remote *media.S3, cov *covers.Store, cat *catalog.Store, log zerolog.Logger) *Service {
	return &Service{
		local:     local,
		remote:    remote,
		covers:    cov,
		catalog:   cat,
		extractor: metadata.NewExtractor(),
		log:       log,
	}
}

// Result содержит результат добавления файла
type Result struct {
	Song      catalog.Song
	RemoteURL string
	Size      int64
}

// IngestFile добавляет аудиофайл в библиотеку. Файл копируется в
// локальное хранилище медиа; если настроен S3, копия выгружается и туда.
// progressCallback, если задан, получает число выгруженных в S3 байт.
func (s *Service) IngestFile(ctx context.Context, filePath string, progressCallback func(int64)) (*Result, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("файл не найден: %s", filePath)
	}

	info, err := s.extractor.Probe(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения метаданных: %w", err)
	}

	ext := "mp3"
	if strings.EqualFold(filepath.Ext(filePath), ".flac") {
		ext = "flac"
	}
	songID := uuid.NewString()

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	if err := s.local.Put(songID, ext, file); err != nil {
		file.Close()
		return nil, fmt.Errorf("ошибка сохранения в локальное хранилище: %w", err)
	}
	file.Close()

	song := catalog.Song{
		ID:        songID,
		Title:     info.Title,
		Artist:    info.Artist,
		Album:     info.Album,
		Duration:  int(info.Duration.Seconds()),
		DateAdded: time.Now(),
	}

	// Обложка из тегов не обязательна
	if len(info.Picture) > 0 {
		if err := s.covers.Put(songID, bytes.NewReader(info.Picture)); err != nil {
			s.log.Warn().Err(err).Str("song", songID).Msg("не удалось сохранить обложку")
		} else {
			song.Cover = s.covers.Ref(songID)
		}
	}

	result := &Result{Song: song, Size: info.Size}

	if s.remote != nil {
		url, err := s.uploadRemote(ctx, filePath, songID, ext, info.Size, progressCallback)
		if err != nil {
			// Локальная копия уже на месте, файл останется доступен офлайн
			s.log.Warn().Err(err).Str("song", songID).Msg("не удалось выгрузить файл в S3")
		} else {
			result.RemoteURL = url
		}
	}

	if err := s.catalog.AddSong(song); err != nil {
		if rmErr := s.local.Remove(songID); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("song", songID).Msg("не удалось удалить медиафайл")
		}
		return nil, fmt.Errorf("ошибка добавления песни в каталог: %w", err)
	}

	return result, nil
}

// uploadRemote выгружает файл в S3 с отслеживанием прогресса
func (s *Service) uploadRemote(ctx context.Context, filePath, songID, ext string, size int64, progressCallback func(int64)) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if progressCallback != nil {
		reader = &ProgressReader{
			Reader:     file,
			Size:       size,
			OnProgress: progressCallback,
		}
	}

	return s.remote.Upload(ctx, songID, ext, reader)
}

// ProgressReader структура для отслеживания прогресса чтения
type ProgressReader struct {
	io.Reader
	Size       int64
	OnProgress func(int64)
	bytesRead  int64
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.Reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.OnProgress != nil {
		pr.OnProgress(pr.bytesRead)
	}
	return n, err
}

// FormatFileSize форматирует размер файла в читаемом виде
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
