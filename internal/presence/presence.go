// Package presence содержит уведомления внешних сервисов о воспроизведении
package presence

import (
	"github.com/rs/zerolog"
)

// Track данные трека для отчета о воспроизведении
type Track struct {
	Title  string
	Artist string
	Cover  string
}

// Reporter уведомляет внешний сервис о состоянии плеера.
// Все вызовы fire-and-forget: сбои здесь никогда не доходят
// до логики воспроизведения.
type Reporter interface {
	NowPlaying(track Track)
	Paused()
	Clear()
}

// LogReporter пишет уведомления в журнал вместо внешнего сервиса
type LogReporter struct {
	log zerolog.Logger
}

// NewLogReporter создает журнальный репортер
func NewLogReporter(log zerolog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

// NowPlaying сообщает о начале воспроизведения трека
func (r *LogReporter) NowPlaying(track Track) {
	r.log.Info().
		Str("title", track.Title).
		Str("artist", track.Artist).
		Msg("сейчас играет")
}

// Paused сообщает о паузе
func (r *LogReporter) Paused() {
	r.log.Info().Msg("воспроизведение на паузе")
}

// Clear сообщает об остановке воспроизведения
func (r *LogReporter) Clear() {
	r.log.Info().Msg("воспроизведение остановлено")
}

// Noop отключает уведомления полностью
type Noop struct{}

// NowPlaying реализует Reporter
func (Noop) NowPlaying(Track) {}

// Paused реализует Reporter
func (Noop) Paused() {}

// Clear реализует Reporter
func (Noop) Clear() {}
