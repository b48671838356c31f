package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// createDeleteCommand создает команду delete с привязкой к экземпляру приложения
func (app *Application) createDeleteCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [song id]",
		Short: "Delete a song by ID",
		Long:  `Delete a song from the library along with its local media file and the S3 copy when configured.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.deleteSong(ctx, args[0])
		},
	}
}

func (app *Application) deleteSong(ctx context.Context, id string) error {
	song, err := app.Catalog.Song(id)
	if err != nil {
		return fmt.Errorf("ошибка поиска песни: %w", err)
	}

	fmt.Printf("🗑️  Удаляем песню: %s - %s\n", song.Artist, song.Title)

	// Медиафайлы удаляются по возможности: запись каталога важнее
	if err := app.Local.Remove(id); err != nil {
		fmt.Printf("⚠️  Предупреждение: не удалось удалить локальный файл: %v\n", err)
	}
	if app.Remote != nil {
		if err := app.Remote.Remove(ctx, id); err != nil {
			fmt.Printf("⚠️  Предупреждение: не удалось удалить файл из S3: %v\n", err)
		} else {
			fmt.Println("✅ Файл удален из S3")
		}
	}

	if err := app.Catalog.RemoveSong(id); err != nil {
		return fmt.Errorf("ошибка удаления песни из каталога: %w", err)
	}

	fmt.Println("✅ Песня удалена из библиотеки")
	return nil
}
