// Package metadata извлекает теги, длительность и обложку из аудиофайлов
package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
)

// Info метаданные аудиофайла, подготовленные для каталога
type Info struct {
	Artist   string
	Title    string
	Album    string
	Duration time.Duration
	Size     int64
	// Picture встроенная обложка, nil если ее нет в тегах
	Picture []byte
}

// Extractor извлекает метаданные из аудиофайлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Probe собирает метаданные файла: теги и обложка извлекаются по
// возможности, длительность обязательна — без нее файл не годится
// для каталога
func (e *Extractor) Probe(filePath string) (Info, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return Info{}, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	duration, err := e.Duration(filePath)
	if err != nil {
		return Info{}, err
	}

	info := e.extractTags(filePath)
	info.Duration = duration
	info.Size = stat.Size()
	return info, nil
}

// extractTags читает теги файла; при ошибке метаданные выводятся
// из имени файла
func (e *Extractor) extractTags(filePath string) Info {
	file, err := os.Open(filePath)
	if err != nil {
		return e.fromFileName(filePath)
	}
	defer file.Close()

	return e.TagsFromReader(file, filePath)
}

// TagsFromReader извлекает теги из io.ReadSeeker. Источник используется
// как запасной вариант для имени трека.
func (e *Extractor) TagsFromReader(reader io.ReadSeeker, source string) Info {
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return e.fromFileName(source)
	}

	md, err := tag.ReadFrom(reader)
	if err != nil {
		return e.fromFileName(source)
	}

	info := Info{
		Artist: md.Artist(),
		Title:  md.Title(),
		Album:  md.Album(),
	}
	if pic := md.Picture(); pic != nil {
		info.Picture = pic.Data
	}
	if info.Title == "" {
		fallback := e.fromFileName(source)
		info.Title = fallback.Title
		if info.Artist == "" {
			info.Artist = fallback.Artist
		}
	}
	return info
}

// Duration декодирует файл и возвращает его длительность.
// Формат определяется по расширению: .flac или MP3.
func (e *Extractor) Duration(filePath string) (time.Duration, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(filePath), ".flac") {
		streamer, format, err := flac.Decode(file)
		if err != nil {
			return 0, fmt.Errorf("ошибка декодирования FLAC: %w", err)
		}
		defer streamer.Close()
		return format.SampleRate.D(streamer.Len()), nil
	}

	streamer, format, err := mp3.Decode(file)
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования MP3: %w", err)
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}

// fromFileName выводит метаданные из имени файла в формате "Artist - Title"
func (e *Extractor) fromFileName(source string) Info {
	fileName := filepath.Base(source)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return Info{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}

	return Info{
		Artist: "Unknown Artist",
		Title:  nameWithoutExt,
	}
}
