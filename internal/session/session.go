// Package session содержит контроллер воспроизведения и очереди —
// единственного владельца состояния "сейчас играет"
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hazadus/go-melody/internal/audio"
	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/equalizer"
	"github.com/hazadus/go-melody/internal/media"
	"github.com/hazadus/go-melody/internal/presence"
	"github.com/hazadus/go-melody/internal/settings"
)

// ErrIndexOutOfRange возвращается при обращении к позиции вне очереди
var ErrIndexOutOfRange = errors.New("индекс вне очереди")

// State состояние контроллера воспроизведения
type State int

// Состояния контроллера
const (
	// StateIdle трек не загружен
	StateIdle State = iota
	// StateLoading идет загрузка и декодирование трека
	StateLoading
	// StatePaused трек загружен и стоит на паузе
	StatePaused
	// StatePlaying трек воспроизводится
	StatePlaying
)

// String возвращает человекочитаемое имя состояния
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Engine интерфейс аудиодвижка, которым управляет контроллер.
// Живой обработчик аудио принадлежит контроллеру: остальные части
// приложения движок напрямую не трогают.
type Engine interface {
	Load(rc io.ReadCloser, mimeHint string) (time.Duration, error)
	Unload()
	Play()
	Pause()
	IsPlaying() bool
	Seek(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	SetGain(gain float64)
	SetMuted(muted bool)
	Done() <-chan struct{}
}

// EventKind тип события контроллера
type EventKind int

// Виды событий
const (
	// EventState изменилось состояние контроллера
	EventState EventKind = iota
	// EventTrack сменился текущий трек
	EventTrack
	// EventProgress продвинулась позиция воспроизведения
	EventProgress
	// EventError произошла ошибка воспроизведения
	EventError
)

// Event событие контроллера для подписчиков (UI)
type Event struct {
	Kind     EventKind
	State    State
	Song     *catalog.Song
	Position time.Duration
	Duration time.Duration
	Err      error
}

// Deps собирает зависимости контроллера. Все коллабораторы передаются
// явно, чтобы в тестах их можно было подменить.
type Deps struct {
	Catalog  *catalog.Store
	Settings *settings.Store
	Engine   Engine
	EQ       *equalizer.Chain
	Media    media.Storage
	Reporter presence.Reporter
	Log      zerolog.Logger
}

// Controller оркестрирует воспроизведение: владеет очередью, курсором
// и текущим треком, связывает каталог, настройки и аудиодвижок
type Controller struct {
	catalog  *catalog.Store
	settings *settings.Store
	engine   Engine
	eq       *equalizer.Chain
	media    media.Storage
	reporter presence.Reporter
	log      zerolog.Logger

	mu      sync.Mutex
	state   State
	queue   []string
	index   int
	current *catalog.Song
	// Поколение запроса загрузки: завершение устаревшей загрузки
	// отбрасывается, побеждает последний запрос
	loadGen int

	// loadMu сериализует обращения к движку во время загрузки
	loadMu sync.Mutex

	events    chan Event
	stop      chan struct{}
	closeOnce sync.Once
}

// NewController создает контроллер и запускает обработку событий движка
func NewController(deps Deps) *Controller {
	c := &Controller{
		catalog:  deps.Catalog,
		settings: deps.Settings,
		engine:   deps.Engine,
		eq:       deps.EQ,
		media:    deps.Media,
		reporter: deps.Reporter,
		log:      deps.Log,
		state:    StateIdle,
		queue:    []string{},
		events:   make(chan Event, 16),
		stop:     make(chan struct{}),
	}
	if c.reporter == nil {
		c.reporter = presence.Noop{}
	}
	go c.loop()
	return c
}

// Restore восстанавливает прошлую сессию: громкость, эквалайзер,
// очередь и последнюю игравшую песню из сохраненных настроек.
// Воспроизведение не запускается. Ошибка загрузки настроек здесь
// критична — это старт процесса.
func (c *Controller) Restore() error {
	if err := c.settings.Load(); err != nil {
		return fmt.Errorf("ошибка загрузки настроек: %w", err)
	}

	c.engine.SetGain(audio.Gain(c.settings.Volume()))
	c.engine.SetMuted(c.settings.Muted())
	c.eq.ApplyStored(c.settings.EQ())

	queue := c.settings.Queue()
	c.mu.Lock()
	c.queue = queue
	c.index = 0
	c.state = StateIdle
	c.mu.Unlock()

	// Последняя игравшая песня снова видна как текущая; курсор встает
	// на ее позицию в очереди
	if id := c.settings.CurrentSong(); id != "" {
		song, err := c.catalog.Song(id)
		if err != nil {
			c.log.Warn().Err(err).Str("song", id).Msg("сохраненная текущая песня не найдена в каталоге")
			return nil
		}
		c.mu.Lock()
		c.current = &song
		if i := lo.IndexOf(c.queue, id); i >= 0 {
			c.index = i
		}
		c.mu.Unlock()
	}
	return nil
}

// Events возвращает канал событий контроллера. UI подписывается на него
// и отрисовывает состояние; обратного влияния UI на контроллер нет.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// loop реагирует на завершение треков и рассылает прогресс
func (c *Controller) loop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-c.engine.Done():
			c.onEnded()
		case <-ticker.C:
			c.emitProgress()
		}
	}
}

// emit отправляет событие, не блокируясь на медленном подписчике
func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}

func (c *Controller) emitProgress() {
	c.mu.Lock()
	state := c.state
	song := c.current
	c.mu.Unlock()

	if state != StatePlaying {
		return
	}
	c.emit(Event{
		Kind:     EventProgress,
		State:    state,
		Song:     song,
		Position: c.engine.Position(),
		Duration: c.engine.Duration(),
	})
}

// SetQueue заменяет очередь воспроизведения и сбрасывает курсор.
// Непустая очередь сразу начинает играть с первой позиции; пустая
// очередь допустима и переводит контроллер в StateIdle.
// При включенном перемешивании порядок очереди перемешивается при
// установке и в таком виде сохраняется.
func (c *Controller) SetQueue(ctx context.Context, songIDs []string) error {
	ids := append([]string{}, songIDs...)
	if c.settings.Shuffle() {
		ids = lo.Shuffle(ids)
	}

	c.mu.Lock()
	c.queue = ids
	c.index = 0
	c.mu.Unlock()

	if err := c.settings.SetQueue(ids); err != nil {
		c.log.Warn().Err(err).Msg("не удалось сохранить очередь")
	}

	if len(ids) == 0 {
		c.toIdle(true)
		return nil
	}
	return c.PlayTrackAt(ctx, 0)
}

// PlayTrackAt загружает и запускает трек на указанной позиции очереди.
// Пока загрузка в полете, более новый запрос вытесняет ее: результат
// устаревшей загрузки отбрасывается.
func (c *Controller) PlayTrackAt(ctx context.Context, index int) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.queue) {
		c.mu.Unlock()
		return fmt.Errorf("позиция %d: %w", index, ErrIndexOutOfRange)
	}
	id := c.queue[index]
	c.loadGen++
	gen := c.loadGen
	c.state = StateLoading
	c.mu.Unlock()

	c.emit(Event{Kind: EventState, State: StateLoading})

	song, err := c.catalog.Song(id)
	if err != nil {
		c.failLoad(gen, false)
		return err
	}

	rc, mime, err := c.media.Open(ctx, id, c.settings.Lossless())
	if err != nil {
		// Отсутствие файла чистит сохраненный указатель текущей песни,
		// чтобы протухшая ссылка не всплыла при следующем запуске
		c.failLoad(gen, true)
		return err
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	c.mu.Lock()
	stale := gen != c.loadGen
	c.mu.Unlock()
	if stale {
		rc.Close()
		return nil
	}

	dur, err := c.engine.Load(rc, mime)
	if err != nil {
		// Ошибка декодирования обрабатывается как отсутствие файла
		c.failLoad(gen, true)
		return err
	}

	c.mu.Lock()
	if gen != c.loadGen {
		c.mu.Unlock()
		return nil
	}
	c.index = index
	c.current = &song
	c.state = StatePlaying
	c.mu.Unlock()

	c.persistCursor(song.ID)

	// Телеметрия не должна мешать воспроизведению
	if err := c.catalog.UpdateLastPlayed(song.ID, time.Now()); err != nil {
		c.log.Warn().Err(err).Str("song", song.ID).Msg("не удалось обновить время воспроизведения")
	}

	c.engine.Play()
	c.reporter.NowPlaying(presence.Track{Title: song.Title, Artist: song.Artist, Cover: song.Cover})

	c.emit(Event{Kind: EventTrack, State: StatePlaying, Song: &song, Duration: dur})
	return nil
}

// failLoad переводит контроллер в StateIdle после неудачной загрузки,
// если запрос все еще актуален. Очередь при этом не трогается.
func (c *Controller) failLoad(gen int, clearCurrent bool) {
	c.mu.Lock()
	if gen != c.loadGen {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.current = nil
	c.mu.Unlock()

	if clearCurrent {
		if err := c.settings.SetCurrentSong(""); err != nil {
			c.log.Warn().Err(err).Msg("не удалось очистить текущую песню")
		}
	}
	c.emit(Event{Kind: EventState, State: StateIdle})
}

// persistCursor сохраняет очередь и текущую песню
func (c *Controller) persistCursor(songID string) {
	c.mu.Lock()
	queue := append([]string{}, c.queue...)
	c.mu.Unlock()

	if err := c.settings.SetQueue(queue); err != nil {
		c.log.Warn().Err(err).Msg("не удалось сохранить очередь")
	}
	if err := c.settings.SetCurrentSong(songID); err != nil {
		c.log.Warn().Err(err).Msg("не удалось сохранить текущую песню")
	}
}

// Skip переходит к следующему треку очереди. На последней позиции при
// включенном повторе очередь начинается заново, иначе контроллер
// переходит в StateIdle: конец очереди — нормальное состояние,
// а не ошибка.
func (c *Controller) Skip(ctx context.Context) error {
	c.mu.Lock()
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return nil
	}
	next := c.index + 1
	c.mu.Unlock()

	if next < c.queueLen() {
		return c.PlayTrackAt(ctx, next)
	}
	if c.settings.Loop() {
		return c.PlayTrackAt(ctx, 0)
	}

	// Конец очереди: курсор остается на последней позиции, последний
	// трек остается виден как "последний известный"
	c.toIdle(false)
	return nil
}

// Rewind возвращается к предыдущему треку очереди. На нулевой позиции
// текущий трек перезапускается с начала — Rewind никогда не ошибается.
func (c *Controller) Rewind(ctx context.Context) error {
	c.mu.Lock()
	index := c.index
	hasQueue := len(c.queue) > 0
	current := c.current
	state := c.state
	c.mu.Unlock()

	if hasQueue && index > 0 {
		return c.PlayTrackAt(ctx, index-1)
	}
	if current == nil {
		return nil
	}
	// После конца очереди движок выгружен: перемотка по живому
	// обработчику невозможна, трек надо загрузить заново
	if state == StateIdle || state == StateLoading {
		if hasQueue {
			return c.PlayTrackAt(ctx, index)
		}
		return nil
	}
	if err := c.engine.Seek(0); err != nil {
		c.log.Warn().Err(err).Msg("не удалось перемотать в начало")
	}
	c.engine.Play()

	c.mu.Lock()
	c.state = StatePlaying
	c.mu.Unlock()
	c.emit(Event{Kind: EventState, State: StatePlaying, Song: current})
	return nil
}

// onEnded реагирует на естественное завершение трека
func (c *Controller) onEnded() {
	c.mu.Lock()
	index := c.index
	hasCurrent := c.current != nil
	c.mu.Unlock()

	if !hasCurrent {
		return
	}

	ctx := context.Background()
	if c.settings.Loop() {
		// Повтор трека: загружаем ту же позицию заново
		if err := c.PlayTrackAt(ctx, index); err != nil {
			c.log.Error().Err(err).Msg("не удалось повторить трек")
		}
		return
	}
	if err := c.Skip(ctx); err != nil {
		c.log.Error().Err(err).Msg("не удалось перейти к следующему треку")
	}
}

// toIdle останавливает воспроизведение и переводит контроллер в StateIdle
func (c *Controller) toIdle(clearCurrent bool) {
	c.engine.Unload()

	c.mu.Lock()
	c.state = StateIdle
	if clearCurrent {
		c.current = nil
	}
	c.mu.Unlock()

	if clearCurrent {
		if err := c.settings.SetCurrentSong(""); err != nil {
			c.log.Warn().Err(err).Msg("не удалось очистить текущую песню")
		}
	}
	c.reporter.Clear()
	c.emit(Event{Kind: EventState, State: StateIdle})
}

// Play возобновляет воспроизведение после паузы. На играющем треке
// ничего не делает: повторного запуска не происходит.
func (c *Controller) Play() {
	c.mu.Lock()
	if c.state != StatePaused || c.current == nil {
		c.mu.Unlock()
		return
	}
	c.state = StatePlaying
	song := c.current
	c.mu.Unlock()

	c.engine.Play()
	c.reporter.NowPlaying(presence.Track{Title: song.Title, Artist: song.Artist, Cover: song.Cover})
	c.emit(Event{Kind: EventState, State: StatePlaying, Song: song})
}

// Pause ставит воспроизведение на паузу. Повторный вызов ничего
// не меняет.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.state = StatePaused
	song := c.current
	c.mu.Unlock()

	c.engine.Pause()
	c.reporter.Paused()
	c.emit(Event{Kind: EventState, State: StatePaused, Song: song})
}

// TogglePlayPause переключает паузу и воспроизведение
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch state {
	case StatePlaying:
		c.Pause()
	case StatePaused:
		c.Play()
	}
}

// SeekTo перематывает текущий трек на указанную позицию
func (c *Controller) SeekTo(pos time.Duration) error {
	return c.engine.Seek(pos)
}

// SetVolume сохраняет громкость 0..100 и применяет ее к живому звуку
func (c *Controller) SetVolume(volume int) error {
	if err := c.settings.SetVolume(volume); err != nil {
		c.log.Warn().Err(err).Msg("не удалось сохранить громкость")
	}
	c.engine.SetGain(audio.Gain(c.settings.Volume()))
	return nil
}

// Volume возвращает текущую громкость 0..100
func (c *Controller) Volume() int {
	return c.settings.Volume()
}

// SetEqGain выставляет усиление полосы эквалайзера в децибелах,
// сохраняет его в настройках и применяет к живому потоку
func (c *Controller) SetEqGain(band int, gainDB float64) error {
	if err := c.eq.SetGain(band, gainDB); err != nil {
		return err
	}
	key := strconv.Itoa(equalizer.Frequencies[band])
	value := strconv.FormatFloat(gainDB, 'g', -1, 64)
	if err := c.settings.SetEQ(map[string]string{key: value}); err != nil {
		c.log.Warn().Err(err).Msg("не удалось сохранить эквалайзер")
	}
	return nil
}

// ToggleLoop переключает режим повтора и возвращает новое значение
func (c *Controller) ToggleLoop() bool {
	v := !c.settings.Loop()
	if err := c.settings.SetLoop(v); err != nil {
		c.log.Warn().Err(err).Msg("не удалось сохранить режим повтора")
	}
	return v
}

// ToggleShuffle переключает перемешивание и возвращает новое значение.
// Уже установленная очередь не перемешивается: флаг действует при
// следующей установке очереди.
func (c *Controller) ToggleShuffle() bool {
	v := !c.settings.Shuffle()
	if err := c.settings.SetShuffle(v); err != nil {
		c.log.Warn().Err(err).Msg("не удалось сохранить перемешивание")
	}
	return v
}

// ToggleMute переключает звук и возвращает новое значение
func (c *Controller) ToggleMute() bool {
	v := !c.settings.Muted()
	if err := c.settings.SetMuted(v); err != nil {
		c.log.Warn().Err(err).Msg("не удалось сохранить режим без звука")
	}
	c.engine.SetMuted(v)
	return v
}

// CurrentSong возвращает текущую песню или nil в StateIdle.
// После исчерпания очереди остается видна последняя игравшая песня.
func (c *Controller) CurrentSong() *catalog.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	song := *c.current
	return &song
}

// State возвращает текущее состояние контроллера
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Queue возвращает копию текущей очереди
func (c *Controller) Queue() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.queue...)
}

// Index возвращает позицию курсора в очереди
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

func (c *Controller) queueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Status сводка текущего состояния для отображения
type Status struct {
	State    State
	Song     *catalog.Song
	Position time.Duration
	Duration time.Duration
	Volume   int
	Loop     bool
	Shuffle  bool
	Muted    bool
}

// Status возвращает сводку состояния контроллера
func (c *Controller) Status() Status {
	c.mu.Lock()
	state := c.state
	var song *catalog.Song
	if c.current != nil {
		s := *c.current
		song = &s
	}
	c.mu.Unlock()

	return Status{
		State:    state,
		Song:     song,
		Position: c.engine.Position(),
		Duration: c.engine.Duration(),
		Volume:   c.settings.Volume(),
		Loop:     c.settings.Loop(),
		Shuffle:  c.settings.Shuffle(),
		Muted:    c.settings.Muted(),
	}
}

// Close останавливает контроллер и освобождает ресурсы движка
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.engine.Unload()
		c.reporter.Clear()
	})
	return nil
}
