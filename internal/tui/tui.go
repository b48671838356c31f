// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/session"
	"github.com/hazadus/go-melody/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	controller *session.Controller
	catalog    *catalog.Store
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(controller *session.Controller, cat *catalog.Store) *App {
	return &App{
		controller: controller,
		catalog:    cat,
	}
}

// Run запускает TUI приложение и блокируется до выхода пользователя
func (tuiApp *App) Run() error {
	model := app.NewMainModel(tuiApp.controller, tuiApp.catalog)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
