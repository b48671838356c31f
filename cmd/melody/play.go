package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/session"
	"github.com/hazadus/go-melody/internal/utils"
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [song id...]",
		Short: "Play songs by their IDs",
		Long:  `Play the given songs as a queue. Without arguments the whole library is queued.`,
		Args:  cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return app.playQueue(ctx, args)
		},
	}
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// readSingleChar читает одиночный символ без ожидания Enter
func readSingleChar() (byte, error) {
	buffer := make([]byte, 1)
	_, err := os.Stdin.Read(buffer)
	return buffer[0], err
}

func (app *Application) playQueue(ctx context.Context, songIDs []string) error {
	if len(songIDs) == 0 {
		songs := app.Catalog.Songs()
		if len(songs) == 0 {
			fmt.Println("📚 Библиотека пуста. Добавьте песни с помощью команды 'add'.")
			return nil
		}
		sort.Slice(songs, func(i, j int) bool {
			if songs[i].Artist != songs[j].Artist {
				return songs[i].Artist < songs[j].Artist
			}
			return songs[i].Title < songs[j].Title
		})
		for _, song := range songs {
			songIDs = append(songIDs, song.ID)
		}
	}

	if err := app.Controller.SetQueue(ctx, songIDs); err != nil {
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [n] - следующий трек, [b] - предыдущий\n")
	fmt.Printf("   [l] - повтор, [s] - перемешивание, [m] - без звука\n")
	fmt.Printf("   [Ctrl+C] - остановить и выйти\n")
	fmt.Println()

	enableRawMode()
	defer disableRawMode()

	// Горутина для обработки клавиш
	keys := make(chan byte)
	go func() {
		for {
			char, err := readSingleChar()
			if err != nil {
				return
			}
			keys <- char
		}
	}()

	for {
		select {
		case char := <-keys:
			app.handlePlaybackKey(ctx, char)

		case ev := <-app.Controller.Events():
			app.displayPlaybackEvent(ev)
			if ev.Kind == session.EventState && ev.State == session.StateIdle {
				fmt.Println("\n✅ Очередь закончилась")
				return nil
			}

		case <-ctx.Done():
			fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
			app.Controller.Pause()
			return nil
		}
	}
}

// handlePlaybackKey обрабатывает клавишу управления воспроизведением
func (app *Application) handlePlaybackKey(ctx context.Context, char byte) {
	switch char {
	case ' ', '\n', '\r':
		app.Controller.TogglePlayPause()
		fmt.Printf("\r\033[K")
		if app.Controller.State() == session.StatePlaying {
			fmt.Printf("▶️  Воспроизведение\n")
		} else {
			fmt.Printf("⏸️  Пауза\n")
		}

	case 'n':
		if err := app.Controller.Skip(ctx); err != nil {
			app.Log.Warn().Err(err).Msg("не удалось перейти к следующему треку")
		}

	case 'b':
		if err := app.Controller.Rewind(ctx); err != nil {
			app.Log.Warn().Err(err).Msg("не удалось вернуться назад")
		}

	case 'l':
		if app.Controller.ToggleLoop() {
			fmt.Printf("\r\033[K🔁 Повтор включен\n")
		} else {
			fmt.Printf("\r\033[K🔁 Повтор выключен\n")
		}

	case 's':
		if app.Controller.ToggleShuffle() {
			fmt.Printf("\r\033[K🔀 Перемешивание включено\n")
		} else {
			fmt.Printf("\r\033[K🔀 Перемешивание выключено\n")
		}

	case 'm':
		if app.Controller.ToggleMute() {
			fmt.Printf("\r\033[K🔇 Без звука\n")
		} else {
			fmt.Printf("\r\033[K🔊 Звук включен\n")
		}
	}
}

// displayPlaybackEvent отображает событие воспроизведения
func (app *Application) displayPlaybackEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventTrack:
		if ev.Song != nil {
			fmt.Printf("\r\033[K🎵 Сейчас играет: %s - %s (%s)\n",
				ev.Song.Artist, ev.Song.Title, utils.FormatDuration(ev.Duration))
		}

	case session.EventProgress:
		if ev.Duration > 0 {
			percent := float64(ev.Position) / float64(ev.Duration) * 100
			fmt.Printf("\r⏱️  %.1f%% | %s / %s",
				percent,
				utils.FormatDuration(ev.Position),
				utils.FormatDuration(ev.Duration))
		} else {
			fmt.Printf("\r⏱️  %s", utils.FormatDuration(ev.Position))
		}

	case session.EventError:
		if ev.Err != nil {
			fmt.Printf("\r\033[K❌ Ошибка воспроизведения: %v\n", ev.Err)
		}
	}
}
