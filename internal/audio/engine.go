// Package audio содержит обертку над звуковым движком beep
package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"

	"github.com/hazadus/go-melody/internal/equalizer"
)

// ErrDecode возвращается, когда входные данные не удалось декодировать
var ErrDecode = errors.New("не удалось декодировать аудио")

// minGain минимальный ненулевой коэффициент громкости
const minGain = 0.001

// Gain переводит громкость UI (0..100) в линейный коэффициент усиления
// по логарифмической кривой. Ноль дает строгую тишину, а не предел кривой.
func Gain(volume int) float64 {
	if volume <= 0 {
		return 0
	}
	if volume >= 100 {
		return 1.0
	}
	return math.Exp(math.Log(minGain) + (0-math.Log(minGain))*float64(volume)/100)
}

// Engine управляет единственным живым экземпляром декодированного аудио.
// Загрузка нового трека сначала освобождает ресурсы предыдущего, поэтому
// перекрывающееся воспроизведение невозможно.
type Engine struct {
	mu          sync.Mutex
	chain       *equalizer.Chain
	initialized bool
	baseRate    beep.SampleRate
	streamer    beep.StreamSeekCloser
	source      io.Closer
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	gain        float64
	muted       bool
	// Поколение текущего обработчика: завершение устаревшего
	// обработчика не должно порождать событие. Атомарное, потому что
	// читается из колбэка динамиков без захвата e.mu.
	gen  atomic.Int64
	done chan struct{}
}

// NewEngine создает движок с подключенной цепочкой эквалайзера
func NewEngine(chain *equalizer.Chain) *Engine {
	return &Engine{
		chain: chain,
		gain:  1.0,
		done:  make(chan struct{}, 1),
	}
}

// Done возвращает канал, сигнализирующий о естественном завершении трека.
// После Unload или загрузки нового трека событий по старому треку не будет.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Load декодирует аудио и готовит его к воспроизведению. Предыдущий
// обработчик освобождается до создания нового. Возвращает длительность
// трека. Трек остается на паузе до вызова Play.
func (e *Engine) Load(rc io.ReadCloser, mimeHint string) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.unloadLocked()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	if strings.Contains(mimeHint, "flac") {
		streamer, format, err = flac.Decode(rc)
	} else {
		streamer, format, err = mp3.Decode(rc)
	}
	if err != nil {
		rc.Close()
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// Динамики инициализируются один раз; треки с другой частотой
	// дискретизации приводятся к базовой ресемплером
	if !e.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			rc.Close()
			return 0, fmt.Errorf("ошибка инициализации динамиков: %w", err)
		}
		e.baseRate = format.SampleRate
		e.initialized = true
	}

	e.streamer = streamer
	e.source = rc
	e.format = format

	e.chain.Attach(streamer, format.SampleRate)

	var src beep.Streamer = e.chain
	if format.SampleRate != e.baseRate {
		src = beep.Resample(4, format.SampleRate, e.baseRate, src)
	}

	e.ctrl = &beep.Ctrl{Streamer: src, Paused: true}
	e.volume = &effects.Volume{Streamer: e.ctrl, Base: 2}
	e.applyVolumeLocked()

	gen := e.gen.Load()
	speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
		e.finished(gen)
	})))

	return format.SampleRate.D(streamer.Len()), nil
}

// finished отправляет событие завершения, если обработчик еще актуален.
// Колбэк динамиков вызывает его под мьютексом динамиков, поэтому здесь
// нельзя брать e.mu: остальные методы движка берут мьютексы в обратном
// порядке, и встречный захват заблокировал бы обе стороны навсегда.
func (e *Engine) finished(gen int64) {
	if gen != e.gen.Load() {
		return
	}
	select {
	case e.done <- struct{}{}:
	default:
	}
}

// Unload освобождает ресурсы текущего обработчика
func (e *Engine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unloadLocked()
}

// unloadLocked должен вызываться под мьютексом
func (e *Engine) unloadLocked() {
	e.gen.Add(1)

	if e.ctrl != nil {
		speaker.Clear()
		e.ctrl = nil
		e.volume = nil
	}
	e.chain.Detach()
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	if e.source != nil {
		e.source.Close()
		e.source = nil
	}
}

// Play запускает воспроизведение. Без загруженного трека ничего не делает.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
}

// Pause приостанавливает воспроизведение. Без загруженного трека
// ничего не делает.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
}

// IsPlaying возвращает true, если трек загружен и не на паузе
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return false
	}
	speaker.Lock()
	paused := e.ctrl.Paused
	speaker.Unlock()
	return !paused
}

// Seek перематывает трек на указанную позицию. Позиция ограничивается
// отрезком [0, длительность], выход за границы ошибкой не считается.
func (e *Engine) Seek(pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()

	n := e.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if total := e.streamer.Len(); n > total {
		n = total
	}
	if err := e.streamer.Seek(n); err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	return nil
}

// Position возвращает текущую позицию воспроизведения
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return e.format.SampleRate.D(e.streamer.Position())
}

// Duration возвращает длительность загруженного трека
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return e.format.SampleRate.D(e.streamer.Len())
}

// SetGain выставляет линейный коэффициент громкости 0.0..1.0.
// Значение запоминается и применяется к следующему треку, если
// сейчас ничего не загружено.
func (e *Engine) SetGain(gain float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}
	e.gain = gain
	e.applyVolumeLocked()
}

// SetMuted включает или выключает звук, не трогая сохраненную громкость
func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
	e.applyVolumeLocked()
}

// applyVolumeLocked применяет громкость к живому узлу (под мьютексом)
func (e *Engine) applyVolumeLocked() {
	if e.volume == nil {
		return
	}
	speaker.Lock()
	defer speaker.Unlock()
	if e.muted || e.gain == 0 {
		e.volume.Silent = true
		return
	}
	e.volume.Silent = false
	e.volume.Volume = math.Log2(e.gain)
}

// Close освобождает все ресурсы движка
func (e *Engine) Close() error {
	e.Unload()
	return nil
}
