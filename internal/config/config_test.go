package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoadConfigFromFile(t *testing.T) {
	// Создаем временный файл конфигурации
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	// Создаем тестовую конфигурацию
	testConfig := Config{
		DataDir:       filepath.Join(tempDir, "data"),
		AwsBucketName: "test-bucket",
		AwsAccessKey:  "test-access-key",
		AwsSecretKey:  "test-secret-key",
		AwsRegion:     "us-east-1",
		AwsEndpoint:   "https://s3.amazonaws.com",
	}

	// Сериализуем конфигурацию в YAML
	data, err := yaml.Marshal(testConfig)
	if err != nil {
		t.Fatalf("Ошибка сериализации конфигурации: %v", err)
	}

	// Записываем в файл
	err = os.WriteFile(configPath, data, 0644)
	if err != nil {
		t.Fatalf("Ошибка записи файла конфигурации: %v", err)
	}

	// Загружаем конфигурацию
	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Проверяем, что конфигурация загружена корректно
	if loadedConfig.DataDir != testConfig.DataDir {
		t.Errorf("Ожидался DataDir: %s, получено: %s", testConfig.DataDir, loadedConfig.DataDir)
	}
	if loadedConfig.AwsBucketName != testConfig.AwsBucketName {
		t.Errorf("Ожидался AwsBucketName: %s, получено: %s", testConfig.AwsBucketName, loadedConfig.AwsBucketName)
	}
	if loadedConfig.AwsAccessKey != testConfig.AwsAccessKey {
		t.Errorf("Ожидался AwsAccessKey: %s, получено: %s", testConfig.AwsAccessKey, loadedConfig.AwsAccessKey)
	}
	if loadedConfig.AwsSecretKey != testConfig.AwsSecretKey {
		t.Errorf("Ожидался AwsSecretKey: %s, получено: %s", testConfig.AwsSecretKey, loadedConfig.AwsSecretKey)
	}
	if loadedConfig.AwsRegion != testConfig.AwsRegion {
		t.Errorf("Ожидался AwsRegion: %s, получено: %s", testConfig.AwsRegion, loadedConfig.AwsRegion)
	}
	if loadedConfig.AwsEndpoint != testConfig.AwsEndpoint {
		t.Errorf("Ожидался AwsEndpoint: %s, получено: %s", testConfig.AwsEndpoint, loadedConfig.AwsEndpoint)
	}

	// Производные пути строятся от DataDir
	expectedSongsDir := filepath.Join(testConfig.DataDir, "songs")
	if loadedConfig.SongsDir != expectedSongsDir {
		t.Errorf("Ожидался SongsDir: %s, получено: %s", expectedSongsDir, loadedConfig.SongsDir)
	}
	expectedLibraryFile := filepath.Join(testConfig.DataDir, "library.yaml")
	if loadedConfig.LibraryFile != expectedLibraryFile {
		t.Errorf("Ожидался LibraryFile: %s, получено: %s", expectedLibraryFile, loadedConfig.LibraryFile)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Отсутствующий файл конфигурации не ошибка: действуют значения по умолчанию
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "missing.yaml")

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	home, _ := os.UserHomeDir()
	expectedDataDir := filepath.Join(home, ".melody")
	if loadedConfig.DataDir != expectedDataDir {
		t.Errorf("Ожидался DataDir по умолчанию: %s, получено: %s", expectedDataDir, loadedConfig.DataDir)
	}
	if loadedConfig.SongsDir != filepath.Join(expectedDataDir, "songs") {
		t.Errorf("Ожидался SongsDir по умолчанию, получено: %s", loadedConfig.SongsDir)
	}
	if loadedConfig.CoversDir != filepath.Join(expectedDataDir, "covers") {
		t.Errorf("Ожидался CoversDir по умолчанию, получено: %s", loadedConfig.CoversDir)
	}
	if loadedConfig.SettingsFile != filepath.Join(expectedDataDir, "settings.yaml") {
		t.Errorf("Ожидался SettingsFile по умолчанию, получено: %s", loadedConfig.SettingsFile)
	}
	if loadedConfig.AwsBucketName != "" {
		t.Errorf("Ожидался пустой AwsBucketName, получено: %s", loadedConfig.AwsBucketName)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	// Создаем временный файл с некорректным YAML
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid_config.yaml")

	invalidYAML := `data_dir: "test"
aws_bucket_name: "test-bucket"
invalid_field: [unclosed array
`
	err := os.WriteFile(configPath, []byte(invalidYAML), 0644)
	if err != nil {
		t.Fatalf("Ошибка записи файла конфигурации: %v", err)
	}

	// Пытаемся загрузить некорректный файл
	_, err = LoadConfig(configPath)

	if err == nil {
		t.Error("Ожидалась ошибка при загрузке некорректного YAML")
	}

	if !strings.Contains(err.Error(), "yaml") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

func TestLoadConfigWithTilde(t *testing.T) {
	// Создаем конфигурацию с тильдой в путях
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	testConfig := Config{
		DataDir:  "~/custom-melody",
		SongsDir: "~/custom-songs",
	}

	data, err := yaml.Marshal(testConfig)
	if err != nil {
		t.Fatalf("Ошибка сериализации конфигурации: %v", err)
	}

	err = os.WriteFile(configPath, data, 0644)
	if err != nil {
		t.Fatalf("Ошибка записи файла конфигурации: %v", err)
	}

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Проверяем, что тильда раскрывается корректно
	home, _ := os.UserHomeDir()
	if loadedConfig.DataDir != filepath.Join(home, "custom-melody") {
		t.Errorf("Ожидался DataDir с раскрытой тильдой, получено: %s", loadedConfig.DataDir)
	}
	if loadedConfig.SongsDir != filepath.Join(home, "custom-songs") {
		t.Errorf("Ожидался SongsDir с раскрытой тильдой, получено: %s", loadedConfig.SongsDir)
	}
}

func TestEnsureDirs(t *testing.T) {
	tempDir := t.TempDir()

	cfg := &Config{
		DataDir:   filepath.Join(tempDir, "data"),
		SongsDir:  filepath.Join(tempDir, "data", "songs"),
		CoversDir: filepath.Join(tempDir, "data", "covers"),
	}

	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("Ошибка создания директорий: %v", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.SongsDir, cfg.CoversDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("Директория не создана: %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("Ожидалась директория: %s", dir)
		}
	}
}
