// Package fetch скачивает аудио из YouTube и добавляет его в библиотеку
package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/media"
)

// Fetcher скачивает аудиодорожки из YouTube, складывает их в локальное
// хранилище медиа и регистрирует песню в каталоге
type Fetcher struct {
	client  youtube.Client
	media   *media.Local
	catalog *catalog.Store
	log     zerolog.Logger
}

// NewFetcher создает новый загрузчик
func NewFetcher(local *media.Local, cat *catalog.Store, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		media:   local,
		catalog: cat,
		log:     log,
	}
}

// Fetch скачивает аудио по YouTube URL и возвращает добавленную песню
func (f *Fetcher) Fetch(ctx context.Context, url string) (catalog.Song, error) {
	videoID, err := ExtractVideoID(url)
	if err != nil {
		return catalog.Song{}, err
	}

	f.log.Info().Str("video_id", videoID).Msg("получаем информацию о видео")

	video, err := f.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return catalog.Song{}, fmt.Errorf("ошибка получения информации о видео: %w", err)
	}

	format := bestAudioFormat(video.Formats)
	if format == nil {
		return catalog.Song{}, fmt.Errorf("аудио формат не найден для видео %s", videoID)
	}

	f.log.Info().
		Str("title", video.Title).
		Str("author", video.Author).
		Int("itag", format.ItagNo).
		Msg("скачиваем аудио")

	stream, _, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return catalog.Song{}, fmt.Errorf("ошибка получения потока: %w", err)
	}
	defer stream.Close()

	// ID видео служит ID песни: повторное скачивание того же трека
	// упрется в ErrDuplicateID каталога
	songID := videoID
	if err := f.media.Put(songID, "mp3", stream); err != nil {
		return catalog.Song{}, fmt.Errorf("ошибка сохранения аудио: %w", err)
	}

	song := catalog.Song{
		ID:        songID,
		Title:     video.Title,
		Artist:    video.Author,
		Duration:  int(video.Duration.Seconds()),
		DateAdded: time.Now(),
	}
	if err := f.catalog.AddSong(song); err != nil {
		// Каталог не принял песню: не оставляем осиротевший файл
		if rmErr := f.media.Remove(songID); rmErr != nil {
			f.log.Warn().Err(rmErr).Str("song", songID).Msg("не удалось удалить медиафайл")
		}
		return catalog.Song{}, fmt.Errorf("ошибка добавления песни в каталог: %w", err)
	}

	return song, nil
}

// ExtractVideoID извлекает ID видео из различных форматов YouTube URL
func ExtractVideoID(url string) (string, error) {
	patterns := []string{
		`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`,
		`(?:youtube\.com/embed/)([a-zA-Z0-9_-]{11})`,
		`(?:youtube\.com/v/)([a-zA-Z0-9_-]{11})`,
	}

	for _, pattern := range patterns {
		re := regexp.MustCompile(pattern)
		matches := re.FindStringSubmatch(url)
		if len(matches) > 1 {
			return matches[1], nil
		}
	}

	// Голый ID видео тоже принимается
	if len(url) == 11 && regexp.MustCompile(`^[a-zA-Z0-9_-]+$`).MatchString(url) {
		return url, nil
	}

	return "", fmt.Errorf("не удалось извлечь ID видео из URL: %s", url)
}

// bestAudioFormat выбирает аудиоформат с наибольшим битрейтом,
// предпочитая MP4/M4A контейнеры
func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	audioFormats := formats.WithAudioChannels()

	if len(audioFormats) == 0 {
		videoAudioFormats := formats.Type("video")
		for i := range videoAudioFormats {
			if videoAudioFormats[i].AudioChannels > 0 {
				return &videoAudioFormats[i]
			}
		}
		return nil
	}

	bestFormat := &audioFormats[0]
	for i := range audioFormats {
		format := &audioFormats[i]

		if format.Bitrate > bestFormat.Bitrate {
			bestFormat = format
		}

		if strings.Contains(format.MimeType, "mp4") || strings.Contains(format.MimeType, "m4a") {
			if !strings.Contains(bestFormat.MimeType, "mp4") && !strings.Contains(bestFormat.MimeType, "m4a") {
				bestFormat = format
			}
		}
	}

	return bestFormat
}
