package tailcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/streamline/pkg/logger"
	"github.com/papercomputeco/streamline/pkg/tail"
	"github.com/papercomputeco/streamline/pkg/transport"
)

var (
	tailTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	tailMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tailOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	tailWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	tailPausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
)

// chromeHeight is the rows taken by the header and footer.
const chromeHeight = 2

type tailKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Follow key.Binding
	Quit   key.Binding
}

func (k tailKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Top, k.Bottom, k.Follow, k.Quit}
}

func (k tailKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up, k.Top, k.Bottom}, {k.Follow, k.Quit}}
}

func defaultKeyMap() tailKeyMap {
	return tailKeyMap{
		Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Follow: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type lineMsg string

type stateMsg struct {
	state    tail.State
	failures int
}

// tailModel owns the scrollback. Lines arrive through program.Send, so the
// log is only ever touched on the bubbletea goroutine.
type tailModel struct {
	target   string
	view     viewport.Model
	log      *tail.Log
	follow   bool
	state    tail.State
	failures int
	width    int
	keys     tailKeyMap
	help     help.Model
}

// logView adapts the bubbles viewport to tail.Viewport.
type logView struct {
	m *tailModel
}

func (v logView) AtBottom() bool {
	if !v.m.follow {
		return false
	}
	return tail.WithinBottom(v.m.view.TotalLineCount(), v.m.view.Height, v.m.view.YOffset, tail.BottomTolerance)
}

func (v logView) Refresh(b *tail.Buffer) {
	v.m.view.SetContent(b.String())
}

func (v logView) GotoBottom() {
	v.m.view.GotoBottom()
}

func (c *tailCommander) runTUI(ctx context.Context) error {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)

	// Log output would tear the alternate screen; state shows in the header.
	c.logger = logger.Nop()

	model := newTailModel(c.target, c.capacity)
	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
		bubbletea.WithMouseCellMotion(),
	)

	var sub *tail.Subscriber
	sub = tail.NewSubscriber(tail.Config{
		Transport:  transport.NewHTTP(),
		Request:    transport.Get(c.target),
		RetryDelay: c.reconnectDelay,
		Logger:     c.logger,
		Sink: tail.LineSinkFunc(func(text string) {
			program.Send(lineMsg(text))
		}),
		OnStateChange: func(state tail.State) {
			program.Send(stateMsg{state: state, failures: sub.Failures()})
		},
	})

	go func() {
		_ = sub.Run(ctx)
	}()
	defer sub.Close()

	_, err := program.Run()
	if errors.Is(err, bubbletea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func newTailModel(target string, capacity int) *tailModel {
	m := &tailModel{
		target: target,
		view:   viewport.New(0, 0),
		follow: true,
		state:  tail.Connecting,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	m.log = tail.NewLog(capacity, logView{m: m})
	return m
}

func (m *tailModel) Init() bubbletea.Cmd {
	return nil
}

func (m *tailModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		atBottom := logView{m: m}.AtBottom() || m.view.Height == 0
		m.width = msg.Width
		m.help.Width = msg.Width
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-chromeHeight, 1)
		if atBottom {
			m.view.GotoBottom()
		}
		return m, nil

	case lineMsg:
		m.log.AppendLine(string(msg))
		return m, nil

	case stateMsg:
		m.state = msg.state
		m.failures = msg.failures
		return m, nil

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd bubbletea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m *tailModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, bubbletea.Quit
	case key.Matches(msg, m.keys.Top):
		m.view.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.follow = true
		m.view.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.Follow):
		m.follow = !m.follow
		if m.follow {
			m.view.GotoBottom()
		}
		return m, nil
	}

	var cmd bubbletea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m *tailModel) View() string {
	return m.viewHeader() + "\n" + m.view.View() + "\n" + m.help.View(m.keys)
}

func (m *tailModel) viewHeader() string {
	parts := []string{
		tailTitleStyle.Render("streamline tail"),
		tailMutedStyle.Render(m.target),
		m.viewState(),
		tailMutedStyle.Render(fmt.Sprintf("%d/%d lines", m.log.Buffer().Len(), m.log.Buffer().Cap())),
	}
	if !m.follow {
		parts = append(parts, tailPausedStyle.Render(" PAUSED "))
	}
	return strings.Join(parts, "  ")
}

func (m *tailModel) viewState() string {
	switch m.state {
	case tail.Connected:
		return tailOKStyle.Render("● connected")
	case tail.Retrying:
		return tailWarnStyle.Render(fmt.Sprintf("● reconnecting (%d lost)", m.failures))
	case tail.Closed:
		return tailMutedStyle.Render("○ closed")
	default:
		return tailMutedStyle.Render("○ connecting")
	}
}
