package tui

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sherzodv/tim/clients/api"
	"github.com/sherzodv/tim/internal/storage"
)

// eventMsg wraps a live SpaceEvent delivered from the subscription goroutine.
type eventMsg storage.SpaceEvent

// disconnectedMsg signals the subscription stream ended.
type disconnectedMsg struct{ err error }

// errMsg surfaces a failed send/call as a status line.
type errMsg struct{ err error }

// App is the root bubbletea model for the tim space TUI: a scrolling
// timeline pane over a single-line message composer.
type App struct {
	client *api.Client
	selfID uint64

	viewport viewport.Model
	input    textinput.Model
	events   []storage.SpaceEvent

	width, height int
	status        string
	ready         bool
}

// NewApp builds an App for client's space. It does not subscribe: live
// events arrive only once Listen runs against the program.
func NewApp(client *api.Client, selfID uint64) *App {
	ti := textinput.New()
	ti.Placeholder = "say something..."
	ti.Focus()
	ti.CharLimit = 4000

	return &App{
		client: client,
		selfID: selfID,
		input:  ti,
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadTimeline
}

func (a *App) loadTimeline() tea.Msg {
	events, err := a.client.Timeline(context.Background(), 0, 50)
	if err != nil {
		return errMsg{err}
	}
	return timelineLoadedMsg(events)
}

type timelineLoadedMsg []storage.SpaceEvent

// Listen subscribes to the live event stream and relays each event back into
// the bubbletea event loop via Program.Send. It blocks until the stream ends,
// so callers run it in its own goroutine.
func Listen(p *tea.Program, client *api.Client) {
	ch, err := client.Subscribe(context.Background(), false)
	if err != nil {
		p.Send(disconnectedMsg{err})
		return
	}
	for ev := range ch {
		p.Send(eventMsg(ev))
	}
	p.Send(disconnectedMsg{nil})
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		headerHeight := 1
		inputHeight := 1
		vpHeight := a.height - headerHeight - inputHeight - 2
		if vpHeight < 0 {
			vpHeight = 0
		}
		if !a.ready {
			a.viewport = viewport.New(a.width, vpHeight)
			a.ready = true
		} else {
			a.viewport.Width = a.width
			a.viewport.Height = vpHeight
		}
		a.input.SetWidth(a.width - 2)
		a.refreshViewport()
		return a, nil

	case timelineLoadedMsg:
		a.events = append([]storage.SpaceEvent(msg), a.events...)
		a.refreshViewport()
		return a, nil

	case eventMsg:
		a.events = append(a.events, storage.SpaceEvent(msg))
		a.refreshViewport()
		return a, nil

	case disconnectedMsg:
		if msg.err != nil {
			a.status = "disconnected: " + msg.err.Error()
		} else {
			a.status = "disconnected"
		}
		return a, nil

	case errMsg:
		a.status = msg.err.Error()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "enter":
			content := a.input.Value()
			if content == "" {
				return a, nil
			}
			a.input.SetValue("")
			return a, a.sendMessage(content)
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) sendMessage(content string) tea.Cmd {
	return func() tea.Msg {
		if _, err := a.client.SendMessage(context.Background(), content); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (a *App) refreshViewport() {
	if !a.ready {
		return
	}
	a.viewport.SetContent(renderTimeline(a.events, a.selfID, a.width))
	a.viewport.GotoBottom()
}

func (a *App) View() string {
	if !a.ready {
		return "loading timeline..."
	}
	header := StatusBarStyle.Width(a.width).Render(fmt.Sprintf("tim space — timite %d", a.selfID))
	status := ""
	if a.status != "" {
		status = ErrorStyle.Render(a.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, a.viewport.View(), a.input.View(), status)
}
