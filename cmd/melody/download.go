package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/fetch"
	"github.com/hazadus/go-melody/internal/utils"
)

// createDownloadCommand создает команду download с привязкой к экземпляру приложения
func (app *Application) createDownloadCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "download [YouTube URL]",
		Short: "Download audio from a YouTube video into the library",
		Long:  `Download the audio track of a YouTube video, save it to local storage and register it in the library.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			downloadCtx, cancel := context.WithTimeout(ctx, 15*time.Minute)
			defer cancel()
			return app.downloadAudio(downloadCtx, args[0])
		},
	}
}

func (app *Application) downloadAudio(ctx context.Context, url string) error {
	fetcher := fetch.NewFetcher(app.Local, app.Catalog, app.Log)

	fmt.Printf("🌐 Скачиваем аудио: %s\n", url)

	song, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("ошибка скачивания: %w", err)
	}

	fmt.Printf("✅ Аудио добавлено в библиотеку!\n")
	fmt.Printf("   ID: %s\n", song.ID)
	fmt.Printf("   Исполнитель: %s\n", song.Artist)
	fmt.Printf("   Название: %s\n", song.Title)
	fmt.Printf("   Длительность: %s\n", utils.FormatDurationFromSeconds(song.Duration))
	return nil
}
