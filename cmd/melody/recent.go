package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/utils"
)

// createRecentCommand создает команду recent с привязкой к экземпляру приложения
func (app *Application) createRecentCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently played songs",
		Long:  `Display songs ordered by the time they were last played, most recent first.`,
		Run: func(_ *cobra.Command, _ []string) {
			app.listRecent(limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "максимальное число песен")
	return cmd
}

func (app *Application) listRecent(limit int) {
	fmt.Printf("%-38s %-25s %-35s %s\n", "ID", "Исполнитель", "Название", "Последнее воспроизведение")
	fmt.Println(strings.Repeat("-", 125))

	count := 0
	for song := range app.Catalog.RecentlyPlayed(limit) {
		count++
		lastPlayed := "никогда"
		if song.LastPlayed != nil {
			lastPlayed = song.LastPlayed.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-38s %-25s %-35s %s\n",
			song.ID,
			utils.TruncateString(song.Artist, 23),
			utils.TruncateString(song.Title, 33),
			lastPlayed)
	}

	if count == 0 {
		fmt.Println("🕒 История воспроизведения пуста.")
	}
}
