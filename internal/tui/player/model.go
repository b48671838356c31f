// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-melody/internal/session"
	"github.com/hazadus/go-melody/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	flagsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#aaaaaa"))

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// Шаг перемотки и изменения громкости с клавиатуры
const (
	seekStep   = 5 * time.Second
	volumeStep = 5
)

// GoBackMsg отправляется для возврата к библиотеке
type GoBackMsg struct{}

// EventMsg оборачивает событие контроллера воспроизведения
type EventMsg struct {
	Event session.Event
}

// StatusMsg периодическое обновление сводки состояния
type StatusMsg struct {
	Status session.Status
}

// Model представляет модель экрана воспроизведения
type Model struct {
	controller  *session.Controller
	progressBar progress.Model
	status      session.Status
	err         error
	width       int
	height      int
}

// NewModel создает новую модель экрана воспроизведения
func NewModel(controller *session.Controller) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		controller:  controller,
		progressBar: prog,
		status:      controller.Status(),
	}
}

// Init инициализирует модель и подписывается на события контроллера
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.listenForEvents(),
		m.tickStatus(),
	)
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		if msg.Event.Kind == session.EventError {
			m.err = msg.Event.Err
		} else {
			m.err = nil
		}
		m.status = m.controller.Status()
		return m, tea.Batch(
			m.progressBar.SetPercent(m.percent()),
			m.listenForEvents(),
		)

	case StatusMsg:
		m.status = msg.Status
		return m, tea.Batch(
			m.progressBar.SetPercent(m.percent()),
			m.tickStatus(),
		)

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// handleKey обрабатывает клавиши управления воспроизведением
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, func() tea.Msg {
			return GoBackMsg{}
		}

	case " ":
		m.controller.TogglePlayPause()

	case "n":
		return m, m.background(func() error {
			return m.controller.Skip(context.Background())
		})

	case "b":
		return m, m.background(func() error {
			return m.controller.Rewind(context.Background())
		})

	case "right":
		if err := m.controller.SeekTo(m.status.Position + seekStep); err != nil {
			m.err = err
		}

	case "left":
		pos := m.status.Position - seekStep
		if pos < 0 {
			pos = 0
		}
		if err := m.controller.SeekTo(pos); err != nil {
			m.err = err
		}

	case "+", "=":
		if err := m.controller.SetVolume(m.status.Volume + volumeStep); err != nil {
			m.err = err
		}

	case "-":
		if err := m.controller.SetVolume(m.status.Volume - volumeStep); err != nil {
			m.err = err
		}

	case "l":
		m.controller.ToggleLoop()

	case "s":
		m.controller.ToggleShuffle()

	case "m":
		m.controller.ToggleMute()
	}

	m.status = m.controller.Status()
	return m, nil
}

// background выполняет операцию контроллера вне цикла обновления UI
func (m *Model) background(op func() error) tea.Cmd {
	return func() tea.Msg {
		if err := op(); err != nil {
			return EventMsg{Event: session.Event{Kind: session.EventError, Err: err}}
		}
		return StatusMsg{Status: m.controller.Status()}
	}
}

// percent вычисляет долю проигранного трека для прогресс-бара
func (m *Model) percent() float64 {
	if m.status.Duration <= 0 {
		return 0
	}
	return float64(m.status.Position) / float64(m.status.Duration)
}

// View отображает модель
func (m *Model) View() string {
	if m.err != nil {
		return fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			titleStyle.Render("❌ Ошибка воспроизведения"),
			errorStyle.Render(m.err.Error()),
			controlsStyle.Render("Нажмите 'q' или 'esc' для возврата"),
		)
	}

	title := titleStyle.Render("🎵 Сейчас играет")

	trackInfo := "Ничего не играет"
	if m.status.Song != nil {
		trackInfo = fmt.Sprintf(
			"🎤 %s\n🎵 %s\n💿 %s",
			m.status.Song.Artist,
			m.status.Song.Title,
			m.status.Song.Album,
		)
	}

	statusText := statusStyle.Render(fmt.Sprintf("%s %s", stateIcon(m.status.State), stateLabel(m.status.State)))

	timeText := fmt.Sprintf(
		"%s / %s",
		utils.FormatDuration(m.status.Position),
		utils.FormatDuration(m.status.Duration),
	)

	flags := flagsStyle.Render(fmt.Sprintf(
		"Громкость: %d%%%s%s%s",
		m.status.Volume,
		flag(m.status.Loop, " • повтор"),
		flag(m.status.Shuffle, " • перемешивание"),
		flag(m.status.Muted, " • без звука"),
	))

	controls := controlsStyle.Render(
		"Пробел: пауза • n: следующий • b: назад • ←/→: перемотка\n" +
			"+/-: громкость • l: повтор • s: перемешивание • m: без звука • q: к библиотеке",
	)

	return fmt.Sprintf(
		"%s\n\n%s\n\n%s\n\n%s\n%s\n%s\n\n%s",
		title,
		trackInfoStyle.Render(trackInfo),
		statusText,
		m.progressBar.View(),
		timeText,
		flags,
		controls,
	)
}

// listenForEvents ждет следующее событие контроллера
func (m *Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.controller.Events()
		if !ok {
			return GoBackMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// tickStatus периодически опрашивает сводку состояния
func (m *Model) tickStatus() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return StatusMsg{Status: m.controller.Status()}
	})
}

// Вспомогательные функции

func stateIcon(s session.State) string {
	switch s {
	case session.StatePlaying:
		return "▶️"
	case session.StatePaused:
		return "⏸️"
	case session.StateLoading:
		return "⏳"
	default:
		return "⏹️"
	}
}

func stateLabel(s session.State) string {
	switch s {
	case session.StatePlaying:
		return "Воспроизведение"
	case session.StatePaused:
		return "Пауза"
	case session.StateLoading:
		return "Загрузка"
	default:
		return "Остановлено"
	}
}

func flag(v bool, label string) string {
	if v {
		return label
	}
	return ""
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
