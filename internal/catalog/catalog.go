// Package catalog содержит долговременный каталог песен и плейлистов
package catalog

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Ошибки каталога
var (
	// ErrNotFound возвращается, когда запись с указанным ID отсутствует
	ErrNotFound = errors.New("запись не найдена в каталоге")
	// ErrDuplicateID возвращается при попытке добавить запись с занятым ID
	ErrDuplicateID = errors.New("запись с таким ID уже существует")
)

// Song хранит метаданные песни в каталоге
type Song struct {
	ID         string     `yaml:"id"`
	Title      string     `yaml:"title"`
	Artist     string     `yaml:"artist"`
	Album      string     `yaml:"album"`
	Cover      string     `yaml:"cover"`       // Ссылка на обложку
	Duration   int        `yaml:"duration"`    // Длина трека в секундах
	DateAdded  time.Time  `yaml:"date_added"`  // Когда песня добавлена в библиотеку
	LastPlayed *time.Time `yaml:"last_played,omitempty"`
}

// Playlist хранит плейлист: песни ссылаются по ID, порядок значим
type Playlist struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Cover       string    `yaml:"cover"`
	DateCreated time.Time `yaml:"date_created"`
	Songs       []string  `yaml:"songs"`
}

// NewPlaylist создает пустой плейлист с новым ID
func NewPlaylist(name string) Playlist {
	return Playlist{
		ID:          uuid.NewString(),
		Name:        name,
		DateCreated: time.Now(),
		Songs:       []string{},
	}
}

// library сериализуемая форма каталога
type library struct {
	Songs     []Song     `yaml:"songs"`
	Playlists []Playlist `yaml:"playlists"`
}

// Store управляет каталогом и сохраняет его в YAML-файл.
// Каждая мутация записывается на диск до возврата из метода.
type Store struct {
	mu   sync.RWMutex
	path string
	lib  library
}

// NewStore создает хранилище каталога с указанным путем к файлу
func NewStore(filePath string) (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	s := &Store{path: strings.Replace(filePath, "~", home, 1)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load читает каталог из файла. Отсутствующий или пустой файл
// инициализирует пустой каталог.
func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.lib = library{}
			return nil
		}
		return fmt.Errorf("ошибка чтения файла каталога: %w", err)
	}
	if len(raw) == 0 {
		s.lib = library{}
		return nil
	}
	if err := yaml.Unmarshal(raw, &s.lib); err != nil {
		return fmt.Errorf("ошибка разбора каталога: %w", err)
	}
	return nil
}

// persist записывает каталог на диск. Повторяет запись один раз при сбое.
// Должен вызываться под мьютексом.
func (s *Store) persist() error {
	raw, err := yaml.Marshal(&s.lib)
	if err != nil {
		return fmt.Errorf("ошибка сериализации каталога: %w", err)
	}
	write := func() error {
		return os.WriteFile(s.path, raw, 0644)
	}
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 1)
	if err := backoff.Retry(write, bo); err != nil {
		return fmt.Errorf("ошибка записи файла каталога: %w", err)
	}
	return nil
}

// AddSong добавляет песню в каталог
func (s *Store) AddSong(song Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.songIndex(song.ID) >= 0 {
		return fmt.Errorf("песня %q: %w", song.ID, ErrDuplicateID)
	}
	if song.DateAdded.IsZero() {
		song.DateAdded = time.Now()
	}
	s.lib.Songs = append(s.lib.Songs, song)
	return s.persist()
}

// Song возвращает песню по ID
func (s *Store) Song(id string) (Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.songIndex(id); i >= 0 {
		return s.lib.Songs[i], nil
	}
	return Song{}, fmt.Errorf("песня %q: %w", id, ErrNotFound)
}

// Songs возвращает все песни каталога. Порядок не определен,
// вызывающая сторона сортирует сама.
func (s *Store) Songs() []Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Song, len(s.lib.Songs))
	copy(out, s.lib.Songs)
	return out
}

// RemoveSong удаляет песню из каталога. Плейлисты при этом не чистятся:
// ссылка на отсутствующую песню разрешается в ErrNotFound при поиске.
func (s *Store) RemoveSong(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.songIndex(id)
	if i < 0 {
		return fmt.Errorf("песня %q: %w", id, ErrNotFound)
	}
	s.lib.Songs = append(s.lib.Songs[:i], s.lib.Songs[i+1:]...)
	return s.persist()
}

// UpdateSong обновляет редактируемые метаданные песни: название,
// исполнителя, альбом и обложку. Служебные поля (ID, даты) не трогаются.
func (s *Store) UpdateSong(song Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.songIndex(song.ID)
	if i < 0 {
		return fmt.Errorf("песня %q: %w", song.ID, ErrNotFound)
	}
	s.lib.Songs[i].Title = song.Title
	s.lib.Songs[i].Artist = song.Artist
	s.lib.Songs[i].Album = song.Album
	s.lib.Songs[i].Cover = song.Cover
	return s.persist()
}

// UpdateLastPlayed отмечает время последнего воспроизведения песни.
// Отсутствующий ID не считается ошибкой: телеметрия не должна
// прерывать воспроизведение.
func (s *Store) UpdateLastPlayed(id string, playedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.songIndex(id)
	if i < 0 {
		return nil
	}
	s.lib.Songs[i].LastPlayed = &playedAt
	return s.persist()
}

// RecentlyPlayed возвращает ленивую последовательность песен,
// отсортированных по времени последнего воспроизведения (новые первыми).
// Песни, которые ни разу не игрались, идут в конце в порядке каталога.
func (s *Store) RecentlyPlayed(limit int) iter.Seq[Song] {
	s.mu.RLock()
	played := make([]Song, 0, len(s.lib.Songs))
	never := make([]Song, 0)
	for _, song := range s.lib.Songs {
		if song.LastPlayed != nil {
			played = append(played, song)
		} else {
			never = append(never, song)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(played, func(i, j int) bool {
		return played[i].LastPlayed.After(*played[j].LastPlayed)
	})
	out := append(played, never...)
	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}

	return func(yield func(Song) bool) {
		for _, song := range out {
			if !yield(song) {
				return
			}
		}
	}
}

// AddPlaylist добавляет плейлист в каталог
func (s *Store) AddPlaylist(p Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playlistIndex(p.ID) >= 0 {
		return fmt.Errorf("плейлист %q: %w", p.ID, ErrDuplicateID)
	}
	if p.DateCreated.IsZero() {
		p.DateCreated = time.Now()
	}
	s.lib.Playlists = append(s.lib.Playlists, p)
	return s.persist()
}

// Playlist возвращает плейлист по ID
func (s *Store) Playlist(id string) (Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.playlistIndex(id); i >= 0 {
		return s.lib.Playlists[i], nil
	}
	return Playlist{}, fmt.Errorf("плейлист %q: %w", id, ErrNotFound)
}

// Playlists возвращает все плейлисты каталога
func (s *Store) Playlists() []Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Playlist, len(s.lib.Playlists))
	copy(out, s.lib.Playlists)
	return out
}

// RenamePlaylist переименовывает плейлист
func (s *Store) RenamePlaylist(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.playlistIndex(id)
	if i < 0 {
		return fmt.Errorf("плейлист %q: %w", id, ErrNotFound)
	}
	s.lib.Playlists[i].Name = name
	return s.persist()
}

// UpdatePlaylistCover обновляет обложку плейлиста
func (s *Store) UpdatePlaylistCover(id, cover string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.playlistIndex(id)
	if i < 0 {
		return fmt.Errorf("плейлист %q: %w", id, ErrNotFound)
	}
	s.lib.Playlists[i].Cover = cover
	return s.persist()
}

// AddSongToPlaylist добавляет песню в конец плейлиста.
// И плейлист, и песня должны существовать в каталоге.
func (s *Store) AddSongToPlaylist(playlistID, songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.playlistIndex(playlistID)
	if i < 0 {
		return fmt.Errorf("плейлист %q: %w", playlistID, ErrNotFound)
	}
	if s.songIndex(songID) < 0 {
		return fmt.Errorf("песня %q: %w", songID, ErrNotFound)
	}
	s.lib.Playlists[i].Songs = append(s.lib.Playlists[i].Songs, songID)
	return s.persist()
}

// RemoveSongFromPlaylist удаляет первое вхождение песни из плейлиста
func (s *Store) RemoveSongFromPlaylist(playlistID, songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.playlistIndex(playlistID)
	if i < 0 {
		return fmt.Errorf("плейлист %q: %w", playlistID, ErrNotFound)
	}
	songs := s.lib.Playlists[i].Songs
	for j, id := range songs {
		if id == songID {
			s.lib.Playlists[i].Songs = append(songs[:j], songs[j+1:]...)
			return s.persist()
		}
	}
	return fmt.Errorf("песня %q в плейлисте %q: %w", songID, playlistID, ErrNotFound)
}

// RemovePlaylist удаляет плейлист из каталога
func (s *Store) RemovePlaylist(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.playlistIndex(id)
	if i < 0 {
		return fmt.Errorf("плейлист %q: %w", id, ErrNotFound)
	}
	s.lib.Playlists = append(s.lib.Playlists[:i], s.lib.Playlists[i+1:]...)
	return s.persist()
}

// songIndex возвращает индекс песни или -1 (вызывать под мьютексом)
func (s *Store) songIndex(id string) int {
	for i := range s.lib.Songs {
		if s.lib.Songs[i].ID == id {
			return i
		}
	}
	return -1
}

// playlistIndex возвращает индекс плейлиста или -1 (вызывать под мьютексом)
func (s *Store) playlistIndex(id string) int {
	for i := range s.lib.Playlists {
		if s.lib.Playlists[i].ID == id {
			return i
		}
	}
	return -1
}
