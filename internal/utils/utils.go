// Package utils содержит утилитарные функции, используемые в разных частях приложения
package utils

import (
	"fmt"
	"time"
)

// FormatDuration форматирует длительность в привычный для плеера вид:
// M:SS для треков короче часа, H:MM:SS для более длинных
func FormatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatDurationFromSeconds форматирует длительность в секундах
func FormatDurationFromSeconds(seconds int) string {
	return FormatDuration(time.Duration(seconds) * time.Second)
}

// FormatGain форматирует усиление полосы эквалайзера в децибелах
// со знаком: "+4.0 dB", "-2.5 dB", "0.0 dB"
func FormatGain(gainDB float64) string {
	if gainDB > 0 {
		return fmt.Sprintf("+%.1f dB", gainDB)
	}
	return fmt.Sprintf("%.1f dB", gainDB)
}

// FormatFrequency форматирует частоту полосы эквалайзера: "32 Hz", "1 kHz"
func FormatFrequency(hz int) string {
	if hz >= 1000 {
		return fmt.Sprintf("%d kHz", hz/1000)
	}
	return fmt.Sprintf("%d Hz", hz)
}

// TruncateString обрезает строку до указанной длины, добавляя "..." если строка длиннее
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
