package app

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/hazadus/go-melody/internal/audio"
	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/equalizer"
	"github.com/hazadus/go-melody/internal/media"
	"github.com/hazadus/go-melody/internal/session"
	"github.com/hazadus/go-melody/internal/settings"
	"github.com/hazadus/go-melody/internal/tui/editor"
	tuiPlayer "github.com/hazadus/go-melody/internal/tui/player"
	"github.com/hazadus/go-melody/internal/tui/tracklist"
)

// newTestMainModel собирает главную модель с каталогом из одной песни
func newTestMainModel(t *testing.T) (*MainModel, catalog.Song) {
	t.Helper()
	dir := t.TempDir()

	cat, err := catalog.NewStore(filepath.Join(dir, "library.yaml"))
	if err != nil {
		t.Fatalf("не удалось создать каталог: %v", err)
	}
	song := catalog.Song{ID: "s1", Title: "Тестовый трек", Artist: "Тестовый артист"}
	if err := cat.AddSong(song); err != nil {
		t.Fatalf("не удалось добавить песню: %v", err)
	}

	sett, err := settings.NewStore(filepath.Join(dir, "settings.yaml"))
	if err != nil {
		t.Fatalf("не удалось создать настройки: %v", err)
	}

	chain := equalizer.NewChain()
	controller := session.NewController(session.Deps{
		Catalog:  cat,
		Settings: sett,
		Engine:   audio.NewEngine(chain),
		EQ:       chain,
		Media:    media.NewLocal(dir),
		Log:      zerolog.Nop(),
	})
	t.Cleanup(func() { controller.Close() })

	return NewMainModel(controller, cat), song
}

func TestMainModelRouting(t *testing.T) {
	model, song := newTestMainModel(t)

	if model.currentScreen != TracklistScreen {
		t.Errorf("ожидался начальный экран библиотеки, получено %v", model.currentScreen)
	}
	if model.tracklistModel == nil {
		t.Error("модель библиотеки должна быть инициализирована")
	}
	if model.playerModel != nil {
		t.Error("модель плеера не должна существовать до выбора песни")
	}

	// Выбор песни переключает на экран плеера
	updatedModel, _ := model.Update(tracklist.SongSelectedMsg{Queue: []string{song.ID}, Index: 0})
	model = updatedModel.(*MainModel)

	if model.currentScreen != PlayerScreen {
		t.Errorf("ожидался экран плеера, получено %v", model.currentScreen)
	}
	if model.playerModel == nil {
		t.Error("модель плеера должна быть инициализирована")
	}

	// Возврат к библиотеке
	updatedModel, _ = model.Update(tuiPlayer.GoBackMsg{})
	model = updatedModel.(*MainModel)

	if model.currentScreen != TracklistScreen {
		t.Errorf("ожидался экран библиотеки, получено %v", model.currentScreen)
	}
	if model.playerModel != nil {
		t.Error("модель плеера должна быть сброшена")
	}

	// Редактирование песни
	updatedModel, _ = model.Update(tracklist.SongEditMsg{Song: song})
	model = updatedModel.(*MainModel)

	if model.currentScreen != EditorScreen {
		t.Errorf("ожидался экран редактора, получено %v", model.currentScreen)
	}
	if model.editorModel == nil {
		t.Error("модель редактора должна быть инициализирована")
	}

	// Возврат из редактора
	updatedModel, _ = model.Update(editor.GoBackMsg{})
	model = updatedModel.(*MainModel)

	if model.currentScreen != TracklistScreen {
		t.Errorf("ожидался экран библиотеки, получено %v", model.currentScreen)
	}

	// Глобальный выход
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("ожидалась команда выхода после Ctrl+C")
	}
}

func TestMainModelView(t *testing.T) {
	model, _ := newTestMainModel(t)

	if view := model.View(); view == "" {
		t.Error("ожидалось непустое отображение экрана библиотеки")
	}

	model.currentScreen = ScreenType(999)
	if view := model.View(); view != "Неизвестный экран" {
		t.Errorf("ожидалось 'Неизвестный экран', получено %q", view)
	}
}
