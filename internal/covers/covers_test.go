package covers

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPutAndOpen(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Put("song-1", strings.NewReader("png-данные")); err != nil {
		t.Fatalf("Ошибка сохранения обложки: %v", err)
	}

	rc, err := store.Open("song-1")
	if err != nil {
		t.Fatalf("Ошибка открытия обложки: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("Ошибка чтения обложки: %v", err)
	}
	if string(data) != "png-данные" {
		t.Errorf("Содержимое обложки не совпадает: %s", data)
	}
}

func TestOpenFallsBackToPlaceholder(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	// Готовим заглушку
	if err := os.WriteFile(filepath.Join(dir, Placeholder), []byte("заглушка"), 0644); err != nil {
		t.Fatalf("Ошибка записи заглушки: %v", err)
	}

	rc, err := store.Open("missing")
	if err != nil {
		t.Fatalf("Ошибка открытия обложки: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "заглушка" {
		t.Errorf("Ожидалась заглушка, получено: %s", data)
	}
}

func TestOpenWithoutPlaceholder(t *testing.T) {
	store := NewStore(t.TempDir())

	// Ни обложки, ни заглушки
	if _, err := store.Open("missing"); err == nil {
		t.Error("Ожидалась ошибка при отсутствии обложки и заглушки")
	}
}

func TestRef(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	// Без файла ссылка указывает на заглушку
	if ref := store.Ref("missing"); ref != Placeholder {
		t.Errorf("Ожидалась ссылка на заглушку, получено: %s", ref)
	}

	if err := store.Put("song-1", strings.NewReader("png")); err != nil {
		t.Fatalf("Ошибка сохранения обложки: %v", err)
	}
	expected := filepath.Join(dir, "song-1.png")
	if ref := store.Ref("song-1"); ref != expected {
		t.Errorf("Ожидалась ссылка %s, получено: %s", expected, ref)
	}
}
