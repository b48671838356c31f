package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/hazadus/go-melody/internal/audio"
	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/config"
	"github.com/hazadus/go-melody/internal/covers"
	"github.com/hazadus/go-melody/internal/equalizer"
	"github.com/hazadus/go-melody/internal/logging"
	"github.com/hazadus/go-melody/internal/media"
	"github.com/hazadus/go-melody/internal/presence"
	"github.com/hazadus/go-melody/internal/session"
	"github.com/hazadus/go-melody/internal/settings"
)

// Application связывает все компоненты плеера
type Application struct {
	Config     *config.Config
	Log        zerolog.Logger
	Catalog    *catalog.Store
	Settings   *settings.Store
	Chain      *equalizer.Chain
	Engine     *audio.Engine
	Local      *media.Local
	Remote     *media.S3 // nil когда S3 не настроен
	Covers     *covers.Store
	Controller *session.Controller
}

// NewApplication собирает приложение из конфигурации
func NewApplication(cfg *config.Config) (*Application, error) {
	log := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("ошибка создания директорий данных: %w", err)
	}

	cat, err := catalog.NewStore(cfg.LibraryFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия каталога: %w", err)
	}

	sett, err := settings.NewStore(cfg.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия настроек: %w", err)
	}

	chain := equalizer.NewChain()
	engine := audio.NewEngine(chain)
	local := media.NewLocal(cfg.SongsDir)

	var remote *media.S3
	if cfg.AwsBucketName != "" {
		remote, err = media.NewS3(&media.S3Config{
			Region:     cfg.AwsRegion,
			AccessKey:  cfg.AwsAccessKey,
			SecretKey:  cfg.AwsSecretKey,
			Endpoint:   cfg.AwsEndpoint,
			BucketName: cfg.AwsBucketName,
		})
		if err != nil {
			// Без S3 плеер работает с локальными файлами
			log.Warn().Err(err).Msg("не удалось подключить S3, работаем локально")
			remote = nil
		}
	}

	// Источник воспроизведения: поток из S3 когда он настроен и
	// включен режим стриминга, иначе локальные файлы
	var storage media.Storage = local
	if remote != nil && sett.Streaming() {
		storage = remote
	}

	controller := session.NewController(session.Deps{
		Catalog:  cat,
		Settings: sett,
		Engine:   engine,
		EQ:       chain,
		Media:    storage,
		Reporter: presence.NewLogReporter(log),
		Log:      log,
	})

	if err := controller.Restore(); err != nil {
		controller.Close()
		return nil, fmt.Errorf("ошибка восстановления сессии: %w", err)
	}

	return &Application{
		Config:     cfg,
		Log:        log,
		Catalog:    cat,
		Settings:   sett,
		Chain:      chain,
		Engine:     engine,
		Local:      local,
		Remote:     remote,
		Covers:     covers.NewStore(cfg.CoversDir),
		Controller: controller,
	}, nil
}

// Close освобождает ресурсы приложения
func (app *Application) Close() {
	if app.Controller != nil {
		_ = app.Controller.Close()
	}
	if app.Engine != nil {
		_ = app.Engine.Close()
	}
}
