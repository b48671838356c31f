// Package app содержит основную логику TUI приложения
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/session"
	"github.com/hazadus/go-melody/internal/tui/editor"
	tuiPlayer "github.com/hazadus/go-melody/internal/tui/player"
	"github.com/hazadus/go-melody/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// TracklistScreen - экран библиотеки
	TracklistScreen ScreenType = iota
	// PlayerScreen - экран воспроизведения
	PlayerScreen
	// EditorScreen - экран редактирования
	EditorScreen
)

// MainModel представляет главную модель TUI
type MainModel struct {
	controller     *session.Controller
	catalog        *catalog.Store
	currentScreen  ScreenType
	tracklistModel *tracklist.Model
	playerModel    *tuiPlayer.Model
	editorModel    *editor.Model
}

// NewMainModel создает новую главную модель
func NewMainModel(controller *session.Controller, cat *catalog.Store) *MainModel {
	return &MainModel{
		controller:     controller,
		catalog:        cat,
		currentScreen:  TracklistScreen,
		tracklistModel: tracklist.NewModel(cat),
	}
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return m.tracklistModel.Init()
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Глобальные горячие клавиши
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}

	case tracklist.SongSelectedMsg:
		// Выбранный список становится очередью, играем с выбранной позиции
		m.currentScreen = PlayerScreen
		m.playerModel = tuiPlayer.NewModel(m.controller)
		return m, tea.Batch(
			m.playerModel.Init(),
			m.startPlayback(msg.Queue, msg.Index),
		)

	case tracklist.SongEditMsg:
		m.currentScreen = EditorScreen
		m.editorModel = editor.NewModel(m.catalog, msg.Song)
		return m, m.editorModel.Init()

	case tuiPlayer.GoBackMsg:
		// Возвращаемся к библиотеке, воспроизведение продолжается
		m.currentScreen = TracklistScreen
		m.playerModel = nil
		return m, nil

	case editor.GoBackMsg:
		m.currentScreen = TracklistScreen
		m.editorModel = nil
		m.tracklistModel.RefreshData()
		return m, nil

	case editor.SongSavedMsg:
		return m, nil

	case tea.WindowSizeMsg:
		// Передаем размеры окна активной модели
		switch m.currentScreen {
		case TracklistScreen:
			var tracklistCmd tea.Cmd
			m.tracklistModel, tracklistCmd = m.tracklistModel.Update(msg)
			return m, tracklistCmd
		case PlayerScreen:
			if m.playerModel != nil {
				updatedModel, playerCmd := m.playerModel.Update(msg)
				if playerModel, ok := updatedModel.(*tuiPlayer.Model); ok {
					m.playerModel = playerModel
				}
				return m, playerCmd
			}
		case EditorScreen:
			if m.editorModel != nil {
				var editorCmd tea.Cmd
				m.editorModel, editorCmd = m.editorModel.Update(msg)
				return m, editorCmd
			}
		}
		return m, nil
	}

	// Передаем сообщение активной модели
	switch m.currentScreen {
	case TracklistScreen:
		var tracklistCmd tea.Cmd
		m.tracklistModel, tracklistCmd = m.tracklistModel.Update(msg)
		cmd = tracklistCmd

	case PlayerScreen:
		if m.playerModel != nil {
			updatedModel, playerCmd := m.playerModel.Update(msg)
			if playerModel, ok := updatedModel.(*tuiPlayer.Model); ok {
				m.playerModel = playerModel
			}
			cmd = playerCmd
		}

	case EditorScreen:
		if m.editorModel != nil {
			var editorCmd tea.Cmd
			m.editorModel, editorCmd = m.editorModel.Update(msg)
			cmd = editorCmd
		}
	}

	return m, cmd
}

// startPlayback устанавливает очередь и запускает выбранную песню
func (m *MainModel) startPlayback(queue []string, index int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.controller.SetQueue(ctx, queue); err != nil {
			return tuiPlayer.EventMsg{Event: session.Event{Kind: session.EventError, Err: err}}
		}
		// При перемешивании порядок очереди уже другой, остаемся на первой позиции
		if index > 0 && !m.controller.Status().Shuffle {
			if err := m.controller.PlayTrackAt(ctx, index); err != nil {
				return tuiPlayer.EventMsg{Event: session.Event{Kind: session.EventError, Err: err}}
			}
		}
		return tuiPlayer.StatusMsg{Status: m.controller.Status()}
	}
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case TracklistScreen:
		return m.tracklistModel.View()

	case PlayerScreen:
		if m.playerModel != nil {
			return m.playerModel.View()
		}
		return "Ошибка: модель плеера не инициализирована"

	case EditorScreen:
		if m.editorModel != nil {
			return m.editorModel.View()
		}
		return "Ошибка: модель редактора не инициализирована"

	default:
		return "Неизвестный экран"
	}
}
