package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"parley/beep"
	"parley/log"
	"parley/room"
	"parley/sidebar"
)

const toastDuration = 2 * time.Second

type toastExpiredMsg struct{ id int }

type roomKeys struct {
	Layout       key.Binding
	Participants key.Binding
	Sidebar      key.Binding
	CopyLink     key.Binding
	Quit         key.Binding
}

func defaultRoomKeys() roomKeys {
	return roomKeys{
		Layout:       key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "layout")),
		Participants: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "participants")),
		Sidebar:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "captions")),
		CopyLink:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy link")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "leave")),
	}
}

type roomModel struct {
	sb    *sidebar.Sidebar
	state room.State
	keys  roomKeys
	help  help.Model

	meetingID string
	userID    string
	link      string
	copyLink  func(string) error
	cue       func(beep.Cue)

	copied   bool
	copyErr  string
	toastID  int
	lastErr  string
	width    int
	height   int
	quitting bool
}

type roomOptions struct {
	MeetingID string
	UserID    string
	BaseURL   string
	Personal  bool
	Layout    room.Layout
	CopyLink  func(string) error
	Cue       func(beep.Cue)
}

func newRoomModel(sb *sidebar.Sidebar, o roomOptions) roomModel {
	if o.Cue == nil {
		o.Cue = func(beep.Cue) {}
	}
	if o.CopyLink == nil {
		o.CopyLink = func(string) error { return nil }
	}
	return roomModel{
		sb:        sb,
		state:     room.State{Layout: o.Layout},
		keys:      defaultRoomKeys(),
		help:      help.New(),
		meetingID: o.MeetingID,
		userID:    o.UserID,
		link:      room.InviteLink(o.BaseURL, o.MeetingID, o.Personal),
		copyLink:  o.CopyLink,
		cue:       o.Cue,
	}
}

func (m roomModel) Init() tea.Cmd {
	m.sb.Mount()
	return m.sb.Listen()
}

func (m roomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	wasListening := m.sb.Listening()
	m, cmd := m.update(msg)
	m.signal(wasListening)
	return m, cmd
}

func (m roomModel) update(msg tea.Msg) (roomModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.copied = false
			m.copyErr = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.sb.Unmount()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Layout):
			m.state.CycleLayout()
			return m, nil
		case key.Matches(msg, m.keys.Participants):
			m.state.ToggleParticipants()
			return m, nil
		case key.Matches(msg, m.keys.Sidebar):
			m.sb.ToggleExpanded()
			return m, nil
		case key.Matches(msg, m.keys.CopyLink):
			return m.copyInvite()
		}
	}

	cmd, _ := m.sb.Update(msg)
	return m, cmd
}

func (m roomModel) copyInvite() (roomModel, tea.Cmd) {
	m.toastID++
	if err := m.copyLink(m.link); err != nil {
		log.Warnf("copy invite link: %v", err)
		m.copied = false
		m.copyErr = "Copy failed: " + err.Error()
	} else {
		m.copied = true
		m.copyErr = ""
	}
	id := m.toastID
	return m, tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

// signal plays the listening and error cues for whatever the last message changed.
func (m *roomModel) signal(wasListening bool) {
	switch now := m.sb.Listening(); {
	case now && !wasListening:
		m.cue(beep.CueStart)
	case !now && wasListening && !m.quitting:
		m.cue(beep.CueStop)
	}
	if e := m.sb.Error(); e != m.lastErr {
		if e != "" {
			m.cue(beep.CueError)
		}
		m.lastErr = e
	}
}

var (
	stageStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238"))
	speakerStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Align(lipgloss.Center, lipgloss.Center)
	tileStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("241")).Align(lipgloss.Center, lipgloss.Center)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	linkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Underline(true)
	copiedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	panelTitle    = lipgloss.NewStyle().Bold(true)
	participantsW = 24
)

func (m roomModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	side := m.sb.View(m.height)
	mainW := max(m.width-m.sb.Width(), 20)

	header := headerStyle.Render(fmt.Sprintf("Meeting %s  ·  layout: %s  ·  captions: %s",
		m.meetingID, m.state.Layout, m.sb.RecognizerName()))

	inviteLine := "Invite: " + linkStyle.Render(m.link)
	switch {
	case m.copied:
		inviteLine += "  " + copiedStyle.Render("Link Copied")
	case m.copyErr != "":
		inviteLine += "  " + warnStyle.Render(m.copyErr)
	}

	helpLine := m.help.ShortHelpView(append(m.sb.Keys().ShortHelp(),
		m.keys.Layout, m.keys.Participants, m.keys.Sidebar, m.keys.CopyLink, m.keys.Quit))

	stageH := max(m.height-4, 6)
	stageW := mainW
	var panel string
	if m.state.ShowParticipants {
		panel = m.participantsPanel(stageH)
		stageW = max(mainW-participantsW, 20)
	}
	stage := renderStage(m.state.Layout, stageW, stageH, m.userID)
	if panel != "" {
		stage = lipgloss.JoinHorizontal(lipgloss.Top, stage, panel)
	}

	body := lipgloss.JoinVertical(lipgloss.Left, header, stage, inviteLine, helpLine)
	return lipgloss.JoinHorizontal(lipgloss.Top, side, lipgloss.NewStyle().PaddingLeft(1).Render(body))
}

func (m roomModel) participantsPanel(h int) string {
	body := panelTitle.Render("Participants") + "\n\n" + "● " + m.userID + " (you)"
	return stageStyle.Width(participantsW - 2).Height(h - 2).Padding(0, 1).Render(body)
}

// renderStage draws the call layout placeholder. Media is not rendered; the
// boxes only show where the speaker and the other tiles would go.
func renderStage(l room.Layout, w, h int, self string) string {
	innerW, innerH := w-2, h-2
	if l == room.LayoutGrid {
		tw, th := innerW/2-2, innerH/2-2
		tile := func(label string) string {
			return tileStyle.Width(max(tw, 4)).Height(max(th, 1)).Render(label)
		}
		top := lipgloss.JoinHorizontal(lipgloss.Top, tile(self), tile(""))
		bottom := lipgloss.JoinHorizontal(lipgloss.Top, tile(""), tile(""))
		return stageStyle.Width(innerW).Height(innerH).Render(lipgloss.JoinVertical(lipgloss.Left, top, bottom))
	}

	barW := max(innerW/5, 6)
	speaker := speakerStyle.Width(max(innerW-barW-4, 4)).Height(max(innerH-2, 1)).Render(self)
	var bar strings.Builder
	for i := 0; i < 3; i++ {
		bar.WriteString(tileStyle.Width(max(barW-2, 2)).Height(1).Render("") + "\n")
	}
	strip := strings.TrimRight(bar.String(), "\n")

	var row string
	if l == room.LayoutSpeakerRight {
		row = lipgloss.JoinHorizontal(lipgloss.Top, strip, speaker)
	} else {
		row = lipgloss.JoinHorizontal(lipgloss.Top, speaker, strip)
	}
	return stageStyle.Width(innerW).Height(innerH).Render(row)
}
