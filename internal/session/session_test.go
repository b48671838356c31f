package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/equalizer"
	"github.com/hazadus/go-melody/internal/media"
	"github.com/hazadus/go-melody/internal/settings"
)

// fakeEngine подменяет аудиодвижок в тестах контроллера
type fakeEngine struct {
	mu          sync.Mutex
	loaded      bool
	playing     bool
	muted       bool
	gain        float64
	seekPos     time.Duration
	seekCount   int
	loadCount   int
	unloadCount int
	loadErr     error
	done        chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{done: make(chan struct{}, 1)}
}

func (e *fakeEngine) Load(rc io.ReadCloser, mimeHint string) (time.Duration, error) {
	defer rc.Close()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadErr != nil {
		return 0, e.loadErr
	}
	e.loaded = true
	e.playing = false
	e.loadCount++
	return 3 * time.Minute, nil
}

func (e *fakeEngine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	e.playing = false
	e.unloadCount++
}

func (e *fakeEngine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		e.playing = true
	}
}

func (e *fakeEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
}

func (e *fakeEngine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *fakeEngine) Seek(pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seekPos = pos
	e.seekCount++
	return nil
}

func (e *fakeEngine) Position() time.Duration { return 0 }
func (e *fakeEngine) Duration() time.Duration { return 3 * time.Minute }

func (e *fakeEngine) SetGain(gain float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gain = gain
}

func (e *fakeEngine) SetMuted(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
}

func (e *fakeEngine) Done() <-chan struct{} { return e.done }

// finish имитирует естественное завершение трека
func (e *fakeEngine) finish() {
	e.done <- struct{}{}
}

// fakeMedia хранит медиафайлы в памяти
type fakeMedia struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeMedia(ids ...string) *fakeMedia {
	m := &fakeMedia{files: map[string][]byte{}}
	for _, id := range ids {
		m.files[id] = []byte("audio")
	}
	return m
}

func (m *fakeMedia) Open(_ context.Context, songID string, _ bool) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[songID]
	if !ok {
		return nil, "", media.ErrMediaNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "audio/mpeg", nil
}

// trackedCloser запоминает, был ли поток закрыт
type trackedCloser struct {
	io.Reader
	mu     sync.Mutex
	closed bool
}

func (t *trackedCloser) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *trackedCloser) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// blockingMedia задерживает Open указанной песни до явного освобождения,
// остальные песни отдает сразу
type blockingMedia struct {
	inner   *fakeMedia
	blockID string
	entered chan struct{}
	release chan struct{}

	mu sync.Mutex
	rc *trackedCloser
}

func newBlockingMedia(blockID string, ids ...string) *blockingMedia {
	return &blockingMedia{
		inner:   newFakeMedia(ids...),
		blockID: blockID,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (m *blockingMedia) Open(ctx context.Context, songID string, lossless bool) (io.ReadCloser, string, error) {
	if songID != m.blockID {
		return m.inner.Open(ctx, songID, lossless)
	}
	rc := &trackedCloser{Reader: bytes.NewReader([]byte("audio"))}
	m.mu.Lock()
	m.rc = rc
	m.mu.Unlock()

	m.entered <- struct{}{}
	<-m.release
	return rc, "audio/mpeg", nil
}

func (m *blockingMedia) blockedReader() *trackedCloser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rc
}

// newTestController собирает контроллер с подменными движком и хранилищем
// медиа и настоящими каталогом и настройками во временной директории
func newTestController(t *testing.T, songIDs ...string) (*Controller, *fakeEngine, *fakeMedia, *settings.Store) {
	t.Helper()
	dir := t.TempDir()

	cat, err := catalog.NewStore(filepath.Join(dir, "library.yaml"))
	if err != nil {
		t.Fatalf("не удалось создать каталог: %v", err)
	}
	for _, id := range songIDs {
		if err := cat.AddSong(catalog.Song{ID: id, Title: "Трек " + id, Artist: "Артист"}); err != nil {
			t.Fatalf("не удалось добавить песню: %v", err)
		}
	}

	sett, err := settings.NewStore(filepath.Join(dir, "settings.yaml"))
	if err != nil {
		t.Fatalf("не удалось создать настройки: %v", err)
	}

	engine := newFakeEngine()
	md := newFakeMedia(songIDs...)

	c := NewController(Deps{
		Catalog:  cat,
		Settings: sett,
		Engine:   engine,
		EQ:       equalizer.NewChain(),
		Media:    md,
		Log:      zerolog.Nop(),
	})
	t.Cleanup(func() { c.Close() })
	return c, engine, md, sett
}

// waitFor ждет выполнения условия или проваливает тест по таймауту
func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSetQueuePlaysFirstTrack(t *testing.T) {
	c, engine, _, sett := newTestController(t, "a", "b")

	if err := c.SetQueue(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}

	if c.State() != StatePlaying {
		t.Errorf("ожидалось состояние playing, получено %v", c.State())
	}
	if song := c.CurrentSong(); song == nil || song.ID != "a" {
		t.Errorf("ожидалась текущая песня a, получено %+v", song)
	}
	if !engine.IsPlaying() {
		t.Error("движок должен воспроизводить трек")
	}
	if got := sett.CurrentSong(); got != "a" {
		t.Errorf("в настройках ожидалась текущая песня a, получено %q", got)
	}
	if got := sett.Queue(); len(got) != 2 {
		t.Errorf("в настройках ожидалась очередь из 2 песен, получено %d", len(got))
	}
}

func TestSetQueueEmptyGoesIdle(t *testing.T) {
	c, engine, _, _ := newTestController(t, "a")

	if err := c.SetQueue(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}
	if err := c.SetQueue(context.Background(), nil); err != nil {
		t.Fatalf("пустая очередь должна быть допустима: %v", err)
	}

	if c.State() != StateIdle {
		t.Errorf("ожидалось состояние idle, получено %v", c.State())
	}
	if engine.unloadCount == 0 {
		t.Error("движок должен быть выгружен")
	}
}

func TestPlayTrackAtOutOfRange(t *testing.T) {
	c, _, _, _ := newTestController(t, "a")

	if err := c.SetQueue(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}

	if err := c.PlayTrackAt(context.Background(), 5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("ожидалась ошибка ErrIndexOutOfRange, получено %v", err)
	}
	if err := c.PlayTrackAt(context.Background(), -1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("ожидалась ошибка ErrIndexOutOfRange, получено %v", err)
	}
	// Неудачный вызов не должен ломать текущее воспроизведение
	if c.State() != StatePlaying {
		t.Errorf("ожидалось состояние playing, получено %v", c.State())
	}
}

func TestPlayTrackAtLatestWins(t *testing.T) {
	dir := t.TempDir()

	cat, err := catalog.NewStore(filepath.Join(dir, "library.yaml"))
	if err != nil {
		t.Fatalf("не удалось создать каталог: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if err := cat.AddSong(catalog.Song{ID: id, Title: "Трек " + id, Artist: "Артист"}); err != nil {
			t.Fatalf("не удалось добавить песню: %v", err)
		}
	}
	sett, err := settings.NewStore(filepath.Join(dir, "settings.yaml"))
	if err != nil {
		t.Fatalf("не удалось создать настройки: %v", err)
	}
	engine := newFakeEngine()
	md := newBlockingMedia("a", "a", "b")

	c := NewController(Deps{
		Catalog:  cat,
		Settings: sett,
		Engine:   engine,
		EQ:       equalizer.NewChain(),
		Media:    md,
		Log:      zerolog.Nop(),
	})
	t.Cleanup(func() { c.Close() })

	// Первая загрузка зависает в хранилище медиа
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.SetQueue(context.Background(), []string{"a", "b"})
	}()
	<-md.entered

	// Более новый запрос вытесняет зависшую загрузку
	if err := c.PlayTrackAt(context.Background(), 1); err != nil {
		t.Fatalf("не удалось запустить второй трек: %v", err)
	}
	if song := c.CurrentSong(); song == nil || song.ID != "b" {
		t.Fatalf("ожидалась текущая песня b, получено %+v", song)
	}

	// Зависшая загрузка завершается: ее результат отбрасывается молча
	close(md.release)
	if err := <-errCh; err != nil {
		t.Fatalf("устаревшая загрузка не должна возвращать ошибку: %v", err)
	}

	if song := c.CurrentSong(); song == nil || song.ID != "b" {
		t.Errorf("текущей должна остаться песня b, получено %+v", song)
	}
	if c.State() != StatePlaying {
		t.Errorf("ожидалось состояние playing, получено %v", c.State())
	}
	engine.mu.Lock()
	loads := engine.loadCount
	engine.mu.Unlock()
	if loads != 1 {
		t.Errorf("движок должен загрузиться ровно один раз, загрузок: %d", loads)
	}
	if rc := md.blockedReader(); rc == nil || !rc.isClosed() {
		t.Error("поток устаревшей загрузки должен быть закрыт")
	}
	if got := sett.CurrentSong(); got != "b" {
		t.Errorf("в настройках ожидалась текущая песня b, получено %q", got)
	}
}

func TestSkipAdvancesAndStopsAtEnd(t *testing.T) {
	c, _, _, _ := newTestController(t, "a", "b")
	ctx := context.Background()

	if err := c.SetQueue(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}
	if err := c.Skip(ctx); err != nil {
		t.Fatalf("не удалось перейти к следующему треку: %v", err)
	}
	if song := c.CurrentSong(); song == nil || song.ID != "b" {
		t.Errorf("ожидалась текущая песня b, получено %+v", song)
	}

	if err := c.Skip(ctx); err != nil {
		t.Fatalf("конец очереди не должен быть ошибкой: %v", err)
	}
	if c.State() != StateIdle {
		t.Errorf("ожидалось состояние idle, получено %v", c.State())
	}
	// Последняя игравшая песня остается видна
	if song := c.CurrentSong(); song == nil || song.ID != "b" {
		t.Errorf("ожидалась последняя известная песня b, получено %+v", song)
	}
}

func TestSkipWrapsWithLoop(t *testing.T) {
	c, _, _, sett := newTestController(t, "a", "b")
	ctx := context.Background()

	if err := sett.SetLoop(true); err != nil {
		t.Fatalf("не удалось включить повтор: %v", err)
	}
	if err := c.SetQueue(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}
	if err := c.PlayTrackAt(ctx, 1); err != nil {
		t.Fatalf("не удалось запустить последний трек: %v", err)
	}

	if err := c.Skip(ctx); err != nil {
		t.Fatalf("не удалось перейти к следующему треку: %v", err)
	}
	if song := c.CurrentSong(); song == nil || song.ID != "a" {
		t.Errorf("с повтором очередь должна начаться заново с a, получено %+v", song)
	}
}

func TestRewind(t *testing.T) {
	c, engine, _, _ := newTestController(t, "a", "b")
	ctx := context.Background()

	if err := c.SetQueue(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}
	if err := c.PlayTrackAt(ctx, 1); err != nil {
		t.Fatalf("не удалось запустить второй трек: %v", err)
	}

	if err := c.Rewind(ctx); err != nil {
		t.Fatalf("не удалось вернуться назад: %v", err)
	}
	if song := c.CurrentSong(); song == nil || song.ID != "a" {
		t.Errorf("ожидалась текущая песня a, получено %+v", song)
	}

	// На нулевой позиции трек перезапускается с начала
	if err := c.Rewind(ctx); err != nil {
		t.Fatalf("перемотка в начало не должна быть ошибкой: %v", err)
	}
	if engine.seekCount == 0 {
		t.Error("ожидалась перемотка движка в начало")
	}
	if c.State() != StatePlaying {
		t.Errorf("ожидалось состояние playing, получено %v", c.State())
	}
}

func TestRewindAfterQueueEndReloadsTrack(t *testing.T) {
	c, engine, _, _ := newTestController(t, "a")
	ctx := context.Background()

	if err := c.SetQueue(ctx, []string{"a"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}
	// Конец очереди: движок выгружен, последний трек остается виден
	if err := c.Skip(ctx); err != nil {
		t.Fatalf("конец очереди не должен быть ошибкой: %v", err)
	}
	if c.State() != StateIdle {
		t.Fatalf("ожидалось состояние idle, получено %v", c.State())
	}
	if engine.IsPlaying() {
		t.Fatal("движок не должен воспроизводить после конца очереди")
	}

	// Rewind без живого обработчика загружает трек заново,
	// а не объявляет воспроизведение на пустом движке
	if err := c.Rewind(ctx); err != nil {
		t.Fatalf("не удалось перезапустить трек: %v", err)
	}
	if c.State() != StatePlaying {
		t.Errorf("ожидалось состояние playing, получено %v", c.State())
	}
	if !engine.IsPlaying() {
		t.Error("движок должен воспроизводить трек после перезапуска")
	}
	engine.mu.Lock()
	loads := engine.loadCount
	engine.mu.Unlock()
	if loads != 2 {
		t.Errorf("ожидалась повторная загрузка трека, загрузок: %d", loads)
	}
}

func TestMediaNotFoundClearsCurrentSong(t *testing.T) {
	c, _, md, sett := newTestController(t, "a")
	ctx := context.Background()

	if err := c.SetQueue(ctx, []string{"a"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}

	// Файл исчез между запусками
	md.mu.Lock()
	delete(md.files, "a")
	md.mu.Unlock()

	err := c.PlayTrackAt(ctx, 0)
	if !errors.Is(err, media.ErrMediaNotFound) {
		t.Fatalf("ожидалась ошибка ErrMediaNotFound, получено %v", err)
	}
	if c.State() != StateIdle {
		t.Errorf("ожидалось состояние idle, получено %v", c.State())
	}
	if got := sett.CurrentSong(); got != "" {
		t.Errorf("указатель текущей песни должен быть очищен, получено %q", got)
	}
	// Очередь при этом не трогается
	if got := c.Queue(); len(got) != 1 {
		t.Errorf("очередь должна сохраниться, получено %d элементов", len(got))
	}
}

func TestPauseAndPlayIdempotent(t *testing.T) {
	c, engine, _, _ := newTestController(t, "a")
	ctx := context.Background()

	if err := c.SetQueue(ctx, []string{"a"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}

	c.Pause()
	c.Pause()
	if c.State() != StatePaused {
		t.Errorf("ожидалось состояние paused, получено %v", c.State())
	}
	if engine.IsPlaying() {
		t.Error("движок должен стоять на паузе")
	}

	c.Play()
	c.Play()
	if c.State() != StatePlaying {
		t.Errorf("ожидалось состояние playing, получено %v", c.State())
	}
	if !engine.IsPlaying() {
		t.Error("движок должен воспроизводить трек")
	}
	if engine.loadCount != 1 {
		t.Errorf("повторный Play не должен перезагружать трек, загрузок: %d", engine.loadCount)
	}
}

func TestPlayInIdleDoesNothing(t *testing.T) {
	c, engine, _, _ := newTestController(t, "a")

	c.Play()
	if c.State() != StateIdle {
		t.Errorf("ожидалось состояние idle, получено %v", c.State())
	}
	if engine.IsPlaying() {
		t.Error("движок не должен воспроизводить без загруженного трека")
	}
}

func TestEndedAdvancesToNextTrack(t *testing.T) {
	c, engine, _, _ := newTestController(t, "a", "b")

	if err := c.SetQueue(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}

	engine.finish()

	waitFor(t, "ожидался переход к треку b", func() bool {
		song := c.CurrentSong()
		return song != nil && song.ID == "b" && c.State() == StatePlaying
	})
}

func TestEndedWithLoopReplaysSameTrack(t *testing.T) {
	c, engine, _, sett := newTestController(t, "a", "b")

	if err := sett.SetLoop(true); err != nil {
		t.Fatalf("не удалось включить повтор: %v", err)
	}
	if err := c.SetQueue(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("не удалось установить очередь: %v", err)
	}

	engine.finish()

	waitFor(t, "ожидался повтор трека a", func() bool {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		return engine.loadCount >= 2
	})
	if song := c.CurrentSong(); song == nil || song.ID != "a" {
		t.Errorf("ожидался тот же трек a, получено %+v", song)
	}
}

func TestSetVolumeAppliesGain(t *testing.T) {
	c, engine, _, sett := newTestController(t, "a")

	if err := c.SetVolume(100); err != nil {
		t.Fatalf("не удалось установить громкость: %v", err)
	}
	if engine.gain != 1.0 {
		t.Errorf("на громкости 100 ожидалось усиление 1.0, получено %v", engine.gain)
	}
	if got := sett.Volume(); got != 100 {
		t.Errorf("в настройках ожидалась громкость 100, получено %d", got)
	}

	if err := c.SetVolume(0); err != nil {
		t.Fatalf("не удалось установить громкость: %v", err)
	}
	if engine.gain != 0 {
		t.Errorf("на громкости 0 ожидалось усиление 0, получено %v", engine.gain)
	}
}

func TestToggleMute(t *testing.T) {
	c, engine, _, sett := newTestController(t, "a")

	if !c.ToggleMute() {
		t.Error("первое переключение должно включить режим без звука")
	}
	if !engine.muted {
		t.Error("движок должен быть без звука")
	}
	if !sett.Muted() {
		t.Error("режим без звука должен быть сохранен")
	}

	if c.ToggleMute() {
		t.Error("второе переключение должно выключить режим без звука")
	}
	if engine.muted {
		t.Error("звук движка должен вернуться")
	}
}

func TestSetEqGainPersists(t *testing.T) {
	c, _, _, sett := newTestController(t, "a")

	if err := c.SetEqGain(3, -2.5); err != nil {
		t.Fatalf("не удалось установить полосу эквалайзера: %v", err)
	}
	if got := sett.EQ()["250"]; got != "-2.5" {
		t.Errorf("ожидалось сохраненное значение -2.5 для полосы 250, получено %q", got)
	}

	if err := c.SetEqGain(equalizer.NumBands, 1.0); !errors.Is(err, equalizer.ErrBandIndex) {
		t.Errorf("ожидалась ошибка ErrBandIndex, получено %v", err)
	}
}

func TestRestoreAppliesSettings(t *testing.T) {
	c, engine, _, sett := newTestController(t, "a", "b")

	if err := sett.SetVolume(100); err != nil {
		t.Fatalf("не удалось сохранить громкость: %v", err)
	}
	if err := sett.SetQueue([]string{"a", "b"}); err != nil {
		t.Fatalf("не удалось сохранить очередь: %v", err)
	}

	if err := c.Restore(); err != nil {
		t.Fatalf("не удалось восстановить сессию: %v", err)
	}

	if engine.gain != 1.0 {
		t.Errorf("после восстановления ожидалось усиление 1.0, получено %v", engine.gain)
	}
	if got := c.Queue(); len(got) != 2 {
		t.Errorf("после восстановления ожидалась очередь из 2 песен, получено %d", len(got))
	}
	if c.State() != StateIdle {
		t.Errorf("восстановление не должно запускать воспроизведение, получено %v", c.State())
	}
	if c.Index() != 0 {
		t.Errorf("курсор должен быть на нулевой позиции, получено %d", c.Index())
	}
}

func TestRestoreHydratesCurrentSong(t *testing.T) {
	c, engine, _, sett := newTestController(t, "a", "b")

	if err := sett.SetQueue([]string{"a", "b"}); err != nil {
		t.Fatalf("не удалось сохранить очередь: %v", err)
	}
	if err := sett.SetCurrentSong("b"); err != nil {
		t.Fatalf("не удалось сохранить текущую песню: %v", err)
	}

	if err := c.Restore(); err != nil {
		t.Fatalf("не удалось восстановить сессию: %v", err)
	}

	// Последняя игравшая песня видна сразу после запуска,
	// но воспроизведение не начинается само
	if song := c.CurrentSong(); song == nil || song.ID != "b" {
		t.Errorf("ожидалась текущая песня b, получено %+v", song)
	}
	if c.Index() != 1 {
		t.Errorf("курсор должен встать на позицию текущей песни, получено %d", c.Index())
	}
	if c.State() != StateIdle {
		t.Errorf("восстановление не должно запускать воспроизведение, получено %v", c.State())
	}
	if engine.IsPlaying() {
		t.Error("движок не должен воспроизводить после восстановления")
	}
}

func TestRestoreMissingCurrentSong(t *testing.T) {
	c, _, _, sett := newTestController(t, "a")

	// Сохраненная песня удалена из каталога между запусками
	if err := sett.SetCurrentSong("ghost"); err != nil {
		t.Fatalf("не удалось сохранить текущую песню: %v", err)
	}

	if err := c.Restore(); err != nil {
		t.Fatalf("отсутствие песни не должно ломать восстановление: %v", err)
	}
	if song := c.CurrentSong(); song != nil {
		t.Errorf("текущая песня должна остаться пустой, получено %+v", song)
	}
}

func TestToggleLoopAndShuffle(t *testing.T) {
	c, _, _, sett := newTestController(t, "a")

	if !c.ToggleLoop() {
		t.Error("первое переключение должно включить повтор")
	}
	if !sett.Loop() {
		t.Error("режим повтора должен быть сохранен")
	}
	if !c.ToggleShuffle() {
		t.Error("первое переключение должно включить перемешивание")
	}
	if !sett.Shuffle() {
		t.Error("перемешивание должно быть сохранено")
	}
}
