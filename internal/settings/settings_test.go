package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("Ошибка создания хранилища настроек: %v", err)
	}
	return store
}

func TestDefaults(t *testing.T) {
	store := newTestStore(t)

	// Файла еще нет: действуют значения по умолчанию
	if v := store.Volume(); v != 50 {
		t.Errorf("Ожидалась громкость по умолчанию 50, получено: %d", v)
	}
	if !store.Streaming() {
		t.Error("Ожидался включенный Streaming по умолчанию")
	}
	if store.Loop() || store.Shuffle() || store.Muted() || store.Lossless() {
		t.Error("Ожидались выключенные флаги Loop/Shuffle/Muted/Lossless по умолчанию")
	}
	if store.CurrentSong() != "" {
		t.Errorf("Ожидалась пустая CurrentSong, получено: %s", store.CurrentSong())
	}
	if len(store.Queue()) != 0 {
		t.Errorf("Ожидалась пустая очередь, получено: %v", store.Queue())
	}

	eq := store.EQ()
	if len(eq) != 10 {
		t.Fatalf("Ожидалось 10 полос эквалайзера, получено: %d", len(eq))
	}
	for k, v := range eq {
		if v != "0.0" {
			t.Errorf("Ожидалось усиление 0.0 для полосы %s, получено: %s", k, v)
		}
	}
}

func TestVolumeClamping(t *testing.T) {
	store := newTestStore(t)

	if err := store.SetVolume(150); err != nil {
		t.Fatalf("Ошибка сохранения громкости: %v", err)
	}
	if v := store.Volume(); v != 100 {
		t.Errorf("Ожидалась громкость 100 после выхода за верхнюю границу, получено: %d", v)
	}

	if err := store.SetVolume(-10); err != nil {
		t.Fatalf("Ошибка сохранения громкости: %v", err)
	}
	if v := store.Volume(); v != 0 {
		t.Errorf("Ожидалась громкость 0 после выхода за нижнюю границу, получено: %d", v)
	}
}

func TestPersistenceAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("Ошибка создания хранилища настроек: %v", err)
	}
	if err := store.SetVolume(75); err != nil {
		t.Fatalf("Ошибка сохранения громкости: %v", err)
	}
	if err := store.SetCurrentSong("song-1"); err != nil {
		t.Fatalf("Ошибка сохранения текущей песни: %v", err)
	}
	if err := store.SetQueue([]string{"song-1", "song-2"}); err != nil {
		t.Fatalf("Ошибка сохранения очереди: %v", err)
	}
	if err := store.SetLoop(true); err != nil {
		t.Fatalf("Ошибка сохранения флага повтора: %v", err)
	}
	if err := store.SetEQ(map[string]string{"1000": "3.5"}); err != nil {
		t.Fatalf("Ошибка сохранения эквалайзера: %v", err)
	}

	// Открываем хранилище заново с того же файла
	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("Ошибка повторного открытия хранилища: %v", err)
	}
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Ошибка загрузки настроек: %v", err)
	}

	if v := reloaded.Volume(); v != 75 {
		t.Errorf("Ожидалась громкость 75 после перезагрузки, получено: %d", v)
	}
	if id := reloaded.CurrentSong(); id != "song-1" {
		t.Errorf("Ожидалась текущая песня song-1, получено: %s", id)
	}
	queue := reloaded.Queue()
	if len(queue) != 2 || queue[0] != "song-1" || queue[1] != "song-2" {
		t.Errorf("Очередь не сохранилась: %v", queue)
	}
	if !reloaded.Loop() {
		t.Error("Флаг повтора не сохранился")
	}
	if g := reloaded.EQ()["1000"]; g != "3.5" {
		t.Errorf("Ожидалось усиление 3.5 для полосы 1000, получено: %s", g)
	}
	// Нетронутые полосы остаются нулевыми
	if g := reloaded.EQ()["32"]; g != "0.0" {
		t.Errorf("Ожидалось усиление 0.0 для полосы 32, получено: %s", g)
	}
}

func TestSetEQIgnoresUnknownKeys(t *testing.T) {
	store := newTestStore(t)

	err := store.SetEQ(map[string]string{
		"1000":  "2.0",
		"99999": "6.0", // вне фиксированного набора частот
	})
	if err != nil {
		t.Fatalf("Ошибка сохранения эквалайзера: %v", err)
	}

	eq := store.EQ()
	if len(eq) != 10 {
		t.Fatalf("Ожидалось 10 полос, получено: %d", len(eq))
	}
	if _, ok := eq["99999"]; ok {
		t.Error("Неизвестная полоса не должна сохраняться")
	}
	if eq["1000"] != "2.0" {
		t.Errorf("Ожидалось усиление 2.0 для полосы 1000, получено: %s", eq["1000"])
	}
}

func TestCorruptedFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("{{{ not yaml"), 0644); err != nil {
		t.Fatalf("Ошибка записи файла: %v", err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("Ошибка создания хранилища настроек: %v", err)
	}
	// Испорченный файл не фатален
	if err := store.Load(); err != nil {
		t.Fatalf("Не ожидалась ошибка загрузки испорченного файла: %v", err)
	}
	if v := store.Volume(); v != 50 {
		t.Errorf("Ожидалась громкость по умолчанию 50, получено: %d", v)
	}
}

func TestSanitizeLoadedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	raw := `volume: 999
eq:
  "1000": "1.5"
  "12345": "9.0"
`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("Ошибка записи файла: %v", err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("Ошибка создания хранилища настроек: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("Ошибка загрузки настроек: %v", err)
	}

	if v := store.Volume(); v != 100 {
		t.Errorf("Ожидалась громкость 100 после нормализации, получено: %d", v)
	}
	eq := store.EQ()
	if len(eq) != 10 {
		t.Fatalf("Ожидалось 10 полос после нормализации, получено: %d", len(eq))
	}
	if _, ok := eq["12345"]; ok {
		t.Error("Лишняя полоса должна отбрасываться при загрузке")
	}
	if eq["1000"] != "1.5" {
		t.Errorf("Ожидалось усиление 1.5 для полосы 1000, получено: %s", eq["1000"])
	}
	if eq["32"] != "0.0" {
		t.Errorf("Недостающая полоса должна получать 0.0, получено: %s", eq["32"])
	}
	if store.Queue() == nil {
		t.Error("Очередь не должна быть nil после загрузки")
	}
}

func TestSnapshotReturnsCopy(t *testing.T) {
	store := newTestStore(t)

	if err := store.SetQueue([]string{"song-1"}); err != nil {
		t.Fatalf("Ошибка сохранения очереди: %v", err)
	}

	snap := store.Snapshot()
	snap.Queue[0] = "modified"
	snap.EQ["1000"] = "9.9"

	if store.Queue()[0] != "song-1" {
		t.Error("Изменение копии очереди не должно затрагивать хранилище")
	}
	if store.EQ()["1000"] != "0.0" {
		t.Error("Изменение копии эквалайзера не должно затрагивать хранилище")
	}
}

func TestToggleFlags(t *testing.T) {
	store := newTestStore(t)

	if err := store.SetShuffle(true); err != nil {
		t.Fatalf("Ошибка сохранения флага перемешивания: %v", err)
	}
	if !store.Shuffle() {
		t.Error("Ожидался включенный флаг перемешивания")
	}

	if err := store.SetMuted(true); err != nil {
		t.Fatalf("Ошибка сохранения флага без звука: %v", err)
	}
	if !store.Muted() {
		t.Error("Ожидался включенный флаг без звука")
	}

	if err := store.SetStreaming(false); err != nil {
		t.Fatalf("Ошибка сохранения флага потокового режима: %v", err)
	}
	if store.Streaming() {
		t.Error("Ожидался выключенный флаг потокового режима")
	}

	if err := store.SetLossless(true); err != nil {
		t.Fatalf("Ошибка сохранения предпочтения формата: %v", err)
	}
	if !store.Lossless() {
		t.Error("Ожидалось включенное предпочтение формата без потерь")
	}
}
