package main

import (
	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch the interactive terminal interface for browsing the library and controlling playback.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			tuiApp := tui.NewApp(app.Controller, app.Catalog)
			return tuiApp.Run()
		},
	}
}
