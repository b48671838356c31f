// Package settings содержит хранилище пользовательских настроек плеера
package settings

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/yaml.v3"
)

// Playback объединяет все сохраняемые настройки воспроизведения.
// Единственный экземпляр на процесс, читается при старте для
// восстановления прошлой сессии.
type Playback struct {
	Volume      int               `yaml:"volume"` // Громкость 0..100
	CurrentSong string            `yaml:"current_song"`
	EQ          map[string]string `yaml:"eq"` // Частота -> усиление в дБ, строкой
	Loop        bool              `yaml:"loop"`
	Shuffle     bool              `yaml:"shuffle"`
	Muted       bool              `yaml:"muted"`
	Streaming   bool              `yaml:"streaming"`
	Lossless    bool              `yaml:"lossless"`
	Queue       []string          `yaml:"queue"` // Очередь воспроизведения, ID песен
	APIURL      string            `yaml:"api_url"`
}

// eqKeys фиксированный набор частот эквалайзера
var eqKeys = []string{"32", "64", "125", "250", "500", "1000", "2000", "4000", "8000", "16000"}

// defaultPlayback возвращает настройки по умолчанию
func defaultPlayback() Playback {
	eq := make(map[string]string, len(eqKeys))
	for _, k := range eqKeys {
		eq[k] = "0.0"
	}
	return Playback{
		Volume:    50,
		EQ:        eq,
		Streaming: true,
		Queue:     []string{},
	}
}

// Store управляет настройками и сохраняет их в YAML-файл.
// Чтение до явного Load прозрачно загружает файл; изменение сразу видно
// последующим чтениям, долговременная запись выполняется под тем же
// мьютексом, поэтому записи никогда не перемешиваются.
type Store struct {
	mu     sync.Mutex
	path   string
	loaded bool
	pb     Playback
}

// NewStore создает хранилище настроек с указанным путем к файлу
func NewStore(filePath string) (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Store{path: strings.Replace(filePath, "~", home, 1)}, nil
}

// Load читает настройки из файла. Отсутствующий файл или испорченные
// поля заменяются значениями по умолчанию.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.pb = defaultPlayback()
	s.loaded = true

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("ошибка чтения файла настроек: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s.pb); err != nil {
		// Испорченный файл не фатален: остаются значения по умолчанию
		s.pb = defaultPlayback()
		return nil
	}
	s.sanitizeLocked()
	return nil
}

// sanitizeLocked приводит загруженные поля к допустимым значениям
func (s *Store) sanitizeLocked() {
	if s.pb.Volume < 0 {
		s.pb.Volume = 0
	}
	if s.pb.Volume > 100 {
		s.pb.Volume = 100
	}
	if s.pb.Queue == nil {
		s.pb.Queue = []string{}
	}
	// Набор ключей эквалайзера фиксирован: лишние отбрасываются,
	// недостающие получают 0.0
	eq := make(map[string]string, len(eqKeys))
	for _, k := range eqKeys {
		if v, ok := s.pb.EQ[k]; ok {
			eq[k] = v
		} else {
			eq[k] = "0.0"
		}
	}
	s.pb.EQ = eq
}

// persistLocked записывает настройки на диск с одним повтором при сбое
func (s *Store) persistLocked() error {
	raw, err := yaml.Marshal(&s.pb)
	if err != nil {
		return fmt.Errorf("ошибка сериализации настроек: %w", err)
	}
	write := func() error {
		return os.WriteFile(s.path, raw, 0644)
	}
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 1)
	if err := backoff.Retry(write, bo); err != nil {
		return fmt.Errorf("ошибка записи файла настроек: %w", err)
	}
	return nil
}

// Snapshot возвращает копию всех текущих настроек
func (s *Store) Snapshot() Playback {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	return s.copyLocked()
}

func (s *Store) copyLocked() Playback {
	out := s.pb
	out.Queue = append([]string{}, s.pb.Queue...)
	out.EQ = make(map[string]string, len(s.pb.EQ))
	for k, v := range s.pb.EQ {
		out.EQ[k] = v
	}
	return out
}

// Volume возвращает громкость 0..100
func (s *Store) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	return s.pb.Volume
}

// SetVolume сохраняет громкость 0..100
func (s *Store) SetVolume(v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	s.pb.Volume = v
	return s.persistLocked()
}

// CurrentSong возвращает ID последней игравшей песни, пустая строка — нет
func (s *Store) CurrentSong() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	return s.pb.CurrentSong
}

// SetCurrentSong сохраняет ID текущей песни
func (s *Store) SetCurrentSong(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	s.pb.CurrentSong = id
	return s.persistLocked()
}

// EQ возвращает копию настроек эквалайзера
func (s *Store) EQ() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	out := make(map[string]string, len(s.pb.EQ))
	for k, v := range s.pb.EQ {
		out[k] = v
	}
	return out
}

// SetEQ сохраняет настройки эквалайзера. Значения с ключами вне
// фиксированного набора частот игнорируются.
func (s *Store) SetEQ(eq map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	for _, k := range eqKeys {
		if v, ok := eq[k]; ok {
			s.pb.EQ[k] = v
		}
	}
	return s.persistLocked()
}

// Queue возвращает копию сохраненной очереди воспроизведения
func (s *Store) Queue() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	return append([]string{}, s.pb.Queue...)
}

// SetQueue сохраняет очередь воспроизведения
func (s *Store) SetQueue(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	s.pb.Queue = append([]string{}, ids...)
	return s.persistLocked()
}

// Loop возвращает флаг повтора
func (s *Store) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	return s.pb.Loop
}

// SetLoop сохраняет флаг повтора
func (s *Store) SetLoop(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	s.pb.Loop = v
	return s.persistLocked()
}

// Shuffle возвращает флаг перемешивания
func (s *Store) Shuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	return s.pb.Shuffle
}

// SetShuffle сохраняет флаг перемешивания
func (s *Store) SetShuffle(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	s.pb.Shuffle = v
	return s.persistLocked()
}

// Muted возвращает флаг выключенного звука
func (s *Store) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	return s.pb.Muted
}

// SetMuted сохраняет флаг выключенного звука
func (s *Store) SetMuted(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	s.pb.Muted = v
	return s.persistLocked()
}

// Streaming возвращает флаг потокового воспроизведения
func (s *Store) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	return s.pb.Streaming
}

// SetStreaming сохраняет флаг потокового воспроизведения
func (s *Store) SetStreaming(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	s.pb.Streaming = v
	return s.persistLocked()
}

// Lossless возвращает предпочтение формата без потерь
func (s *Store) Lossless() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	return s.pb.Lossless
}

// SetLossless сохраняет предпочтение формата без потерь
func (s *Store) SetLossless(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	s.pb.Lossless = v
	return s.persistLocked()
}

// APIURL возвращает адрес внешнего API
func (s *Store) APIURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	return s.pb.APIURL
}

// SetAPIURL сохраняет адрес внешнего API
func (s *Store) SetAPIURL(u string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	s.pb.APIURL = u
	return s.persistLocked()
}
