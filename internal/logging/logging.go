// Package logging содержит настройку журналирования приложения
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New создает журнал с человекочитаемым выводом
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(writer).With().Timestamp().Logger().Level(level)
}

// ParseLevel разбирает уровень журналирования из конфигурации.
// Нечитаемое значение дает уровень info.
func ParseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(raw)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
