// Package tracklist содержит модель экрана библиотеки для TUI
package tracklist

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

// SongSelectedMsg отправляется при выборе песни для воспроизведения.
// Queue содержит ID всех песен текущего списка, Index — позицию выбранной.
type SongSelectedMsg struct {
	Queue []string
	Index int
}

// SongEditMsg отправляется при выборе песни для редактирования
type SongEditMsg struct {
	Song catalog.Song
}

// songItem реализует интерфейс list.Item для песни каталога
type songItem struct {
	song catalog.Song
}

func (i songItem) FilterValue() string {
	return fmt.Sprintf("%s %s", i.song.Artist, i.song.Title)
}

// songItemDelegate реализует отображение элементов списка
type songItemDelegate struct{}

func (d songItemDelegate) Height() int                             { return 1 }
func (d songItemDelegate) Spacing() int                            { return 0 }
func (d songItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d songItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(songItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%-25s %-45s %s",
		utils.TruncateString(i.song.Artist, 25),
		utils.TruncateString(i.song.Title, 45),
		utils.FormatDurationFromSeconds(i.song.Duration))

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана библиотеки
type Model struct {
	list     list.Model
	catalog  *catalog.Store
	quitting bool
}

// NewModel создает новую модель библиотеки
func NewModel(cat *catalog.Store) *Model {
	l := list.New(songItems(cat), songItemDelegate{}, 0, 0)
	l.Title = "Библиотека"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	return &Model{
		list:    l,
		catalog: cat,
	}
}

// songItems читает песни каталога и сортирует их по исполнителю и названию
func songItems(cat *catalog.Store) []list.Item {
	songs := cat.Songs()
	sort.Slice(songs, func(i, j int) bool {
		if songs[i].Artist != songs[j].Artist {
			return songs[i].Artist < songs[j].Artist
		}
		return songs[i].Title < songs[j].Title
	})

	items := make([]list.Item, len(songs))
	for i, song := range songs {
		items[i] = songItem{song: song}
	}
	return items
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// RefreshData обновляет список песен без пересоздания модели
func (m *Model) RefreshData() {
	m.list.SetItems(songItems(m.catalog))
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if item, ok := m.list.SelectedItem().(songItem); ok {
				// Очередью становится весь видимый список, курсор — на
				// выбранной песне
				queue := make([]string, 0, len(m.list.Items()))
				index := 0
				for i, li := range m.list.Items() {
					si, ok := li.(songItem)
					if !ok {
						continue
					}
					if si.song.ID == item.song.ID {
						index = i
					}
					queue = append(queue, si.song.ID)
				}
				return m, func() tea.Msg {
					return SongSelectedMsg{Queue: queue, Index: index}
				}
			}

		case "e":
			if item, ok := m.list.SelectedItem().(songItem); ok {
				return m, func() tea.Msg {
					return SongEditMsg{Song: item.song}
				}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("До свидания!")
	}

	view := m.list.View()
	extraHelp := helpStyle.Render("Enter: воспроизвести • e: редактировать • q: выход")
	return view + "\n" + extraHelp
}
