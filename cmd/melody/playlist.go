package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/utils"
)

// createPlaylistCommand создает команду playlist с подкомандами
func (app *Application) createPlaylistCommand(ctx context.Context) *cobra.Command {
	playlistCmd := &cobra.Command{
		Use:   "playlist",
		Short: "Manage playlists",
		Long:  `Create, inspect and play playlists of library songs.`,
	}

	playlistCmd.AddCommand(&cobra.Command{
		Use:   "create [name]",
		Short: "Create a new playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p := catalog.NewPlaylist(args[0])
			if err := app.Catalog.AddPlaylist(p); err != nil {
				return fmt.Errorf("ошибка создания плейлиста: %w", err)
			}
			fmt.Printf("✅ Плейлист создан: %s (ID: %s)\n", p.Name, p.ID)
			return nil
		},
	})

	playlistCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all playlists",
		Run: func(_ *cobra.Command, _ []string) {
			app.listPlaylists()
		},
	})

	playlistCmd.AddCommand(&cobra.Command{
		Use:   "show [playlist id]",
		Short: "Show playlist songs",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.showPlaylist(args[0])
		},
	})

	playlistCmd.AddCommand(&cobra.Command{
		Use:   "rename [playlist id] [new name]",
		Short: "Rename a playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := app.Catalog.RenamePlaylist(args[0], args[1]); err != nil {
				return fmt.Errorf("ошибка переименования плейлиста: %w", err)
			}
			fmt.Println("✅ Плейлист переименован")
			return nil
		},
	})

	playlistCmd.AddCommand(&cobra.Command{
		Use:   "add [playlist id] [song id]",
		Short: "Add a song to a playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := app.Catalog.AddSongToPlaylist(args[0], args[1]); err != nil {
				return fmt.Errorf("ошибка добавления песни в плейлист: %w", err)
			}
			fmt.Println("✅ Песня добавлена в плейлист")
			return nil
		},
	})

	playlistCmd.AddCommand(&cobra.Command{
		Use:   "remove [playlist id] [song id]",
		Short: "Remove a song from a playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := app.Catalog.RemoveSongFromPlaylist(args[0], args[1]); err != nil {
				return fmt.Errorf("ошибка удаления песни из плейлиста: %w", err)
			}
			fmt.Println("✅ Песня удалена из плейлиста")
			return nil
		},
	})

	playlistCmd.AddCommand(&cobra.Command{
		Use:   "delete [playlist id]",
		Short: "Delete a playlist",
		Long:  `Delete a playlist. The songs themselves stay in the library.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := app.Catalog.RemovePlaylist(args[0]); err != nil {
				return fmt.Errorf("ошибка удаления плейлиста: %w", err)
			}
			fmt.Println("✅ Плейлист удален")
			return nil
		},
	})

	playlistCmd.AddCommand(&cobra.Command{
		Use:   "play [playlist id]",
		Short: "Play a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := app.Catalog.Playlist(args[0])
			if err != nil {
				return fmt.Errorf("ошибка поиска плейлиста: %w", err)
			}
			if len(p.Songs) == 0 {
				fmt.Println("📂 Плейлист пуст.")
				return nil
			}
			fmt.Printf("📂 Играем плейлист: %s\n", p.Name)
			return app.playQueue(ctx, p.Songs)
		},
	})

	return playlistCmd
}

func (app *Application) listPlaylists() {
	playlists := app.Catalog.Playlists()
	if len(playlists) == 0 {
		fmt.Println("📂 Плейлистов пока нет. Создайте один с помощью 'playlist create'.")
		return
	}

	fmt.Printf("%-38s %-30s %-8s %s\n", "ID", "Название", "Песен", "Создан")
	fmt.Println(strings.Repeat("-", 95))
	for _, p := range playlists {
		fmt.Printf("%-38s %-30s %-8d %s\n",
			p.ID,
			utils.TruncateString(p.Name, 28),
			len(p.Songs),
			p.DateCreated.Format("2006-01-02"))
	}
}

func (app *Application) showPlaylist(id string) error {
	p, err := app.Catalog.Playlist(id)
	if err != nil {
		return fmt.Errorf("ошибка поиска плейлиста: %w", err)
	}

	fmt.Printf("📂 Плейлист: %s (%d песен)\n\n", p.Name, len(p.Songs))
	for i, songID := range p.Songs {
		song, err := app.Catalog.Song(songID)
		if err != nil {
			// Песня могла быть удалена из библиотеки после добавления
			fmt.Printf("%3d. [отсутствует в библиотеке: %s]\n", i+1, songID)
			continue
		}
		fmt.Printf("%3d. %s - %s (%s)\n",
			i+1, song.Artist, song.Title, utils.FormatDurationFromSeconds(song.Duration))
	}
	return nil
}
