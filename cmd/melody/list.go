package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all songs from the library",
		Long:  `Display a table of all songs stored in the library.`,
		Run: func(_ *cobra.Command, _ []string) {
			app.listSongs()
		},
	}
}

func (app *Application) listSongs() {
	songs := app.Catalog.Songs()
	if len(songs) == 0 {
		fmt.Println("📚 Библиотека пуста. Добавьте песни с помощью команды 'add'.")
		return
	}

	sort.Slice(songs, func(i, j int) bool {
		if songs[i].Artist != songs[j].Artist {
			return songs[i].Artist < songs[j].Artist
		}
		return songs[i].Title < songs[j].Title
	})

	fmt.Printf("📚 Найдено песен: %d\n\n", len(songs))

	fmt.Printf("%-38s %-25s %-35s %-20s %s\n",
		"ID", "Исполнитель", "Название", "Альбом", "Длительность")
	fmt.Println(strings.Repeat("-", 130))

	for _, song := range songs {
		duration := utils.FormatDurationFromSeconds(song.Duration)
		if song.Duration == 0 {
			duration = "N/A"
		}

		fmt.Printf("%-38s %-25s %-35s %-20s %s\n",
			song.ID,
			utils.TruncateString(song.Artist, 23),
			utils.TruncateString(song.Title, 33),
			utils.TruncateString(song.Album, 18),
			duration)
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'melody play [ID]' для воспроизведения песни")
}
