package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/ingest"
	"github.com/hazadus/go-melody/internal/utils"
)

// createAddCommand создает команду add с привязкой к экземпляру приложения
func (app *Application) createAddCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "add [file path]",
		Short: "Add an mp3 or flac file to the library",
		Long:  `Add an audio file to the library: extract metadata and cover, copy it to local storage and upload to S3 when configured.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			addCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			return app.addFile(addCtx, args[0])
		},
	}
}

// addFile добавляет файл в библиотеку с отображением прогресса выгрузки
func (app *Application) addFile(ctx context.Context, filePath string) error {
	service := ingest.NewService(app.Local, app.Remote, app.Covers, app.Catalog, app.Log)

	fmt.Printf("📥 Добавляем файл в библиотеку:\n")
	fmt.Printf("   Файл: %s\n", filePath)
	if app.Remote != nil {
		fmt.Printf("   Бакет: %s\n", app.Config.AwsBucketName)
	}
	fmt.Println()

	var progressCallback func(int64)
	progressChan := make(chan int64)
	done := make(chan struct{})

	if app.Remote != nil {
		progressCallback = func(bytesRead int64) {
			progressChan <- bytesRead
		}

		go func() {
			defer close(done)
			startTime := time.Now()

			for {
				select {
				case progress, ok := <-progressChan:
					if !ok {
						return
					}
					if progress > 0 {
						elapsed := time.Since(startTime)
						speed := float64(progress) / elapsed.Seconds()
						fmt.Printf("\r📊 Выгружено: %s | Скорость: %s/s | Прошло: %s",
							ingest.FormatFileSize(progress),
							ingest.FormatFileSize(int64(speed)),
							utils.FormatDuration(elapsed))
					}
				case <-ctx.Done():
					fmt.Printf("\n🚫 Выгрузка отменена\n")
					return
				}
			}
		}()
	} else {
		close(done)
	}

	result, err := service.IngestFile(ctx, filePath, progressCallback)
	close(progressChan)
	<-done

	if err != nil {
		return fmt.Errorf("ошибка добавления файла: %w", err)
	}

	fmt.Printf("\n✅ Песня добавлена в библиотеку!\n")
	fmt.Printf("   ID: %s\n", result.Song.ID)
	fmt.Printf("   Исполнитель: %s\n", result.Song.Artist)
	fmt.Printf("   Название: %s\n", result.Song.Title)
	fmt.Printf("   Длительность: %s\n", utils.FormatDurationFromSeconds(result.Song.Duration))
	fmt.Printf("   Размер: %s\n", ingest.FormatFileSize(result.Size))
	if result.RemoteURL != "" {
		fmt.Printf("   URL: %s\n", result.RemoteURL)
	}
	return nil
}
