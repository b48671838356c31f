// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config структура для хранения конфигурации приложения
type Config struct {
	DataDir      string `yaml:"data_dir"`      // Корневая директория данных
	SongsDir     string `yaml:"songs_dir"`     // Директория аудиофайлов
	CoversDir    string `yaml:"covers_dir"`    // Директория обложек
	LibraryFile  string `yaml:"library_file"`  // Файл каталога
	SettingsFile string `yaml:"settings_file"` // Файл настроек плеера
	LogLevel     string `yaml:"log_level"`

	// Настройки S3 для сетевого хранилища аудио
	AwsBucketName string `yaml:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint"`
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не ошибка: используются значения по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := strings.Replace(filePath, "~", home, 1)

	config := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	// Устанавливаем значения по умолчанию, если они не заданы
	if config.DataDir == "" {
		config.DataDir = "~/.melody"
	}
	config.DataDir = strings.Replace(config.DataDir, "~", home, 1)

	if config.SongsDir == "" {
		config.SongsDir = filepath.Join(config.DataDir, "songs")
	}
	if config.CoversDir == "" {
		config.CoversDir = filepath.Join(config.DataDir, "covers")
	}
	if config.LibraryFile == "" {
		config.LibraryFile = filepath.Join(config.DataDir, "library.yaml")
	}
	if config.SettingsFile == "" {
		config.SettingsFile = filepath.Join(config.DataDir, "settings.yaml")
	}
	config.SongsDir = strings.Replace(config.SongsDir, "~", home, 1)
	config.CoversDir = strings.Replace(config.CoversDir, "~", home, 1)
	config.LibraryFile = strings.Replace(config.LibraryFile, "~", home, 1)
	config.SettingsFile = strings.Replace(config.SettingsFile, "~", home, 1)

	return config, nil
}

// EnsureDirs создает директории данных, если их еще нет
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.SongsDir, c.CoversDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
