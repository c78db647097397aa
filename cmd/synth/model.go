package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/muesli/reflow/wordwrap"

	"github.com/simoncragg/synth-gpt-sub000/core/chats"
	"github.com/simoncragg/synth-gpt-sub000/core/transport"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	activityStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true)
	audioStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// transcriptEntry is one rendered line-group of the conversation. Assistant
// entries are updated in place as segments of the same message id arrive.
type transcriptEntry struct {
	messageID string
	speaker   string
	text      string
	activity  string
	audioURLs []string
}

type model struct {
	ws     *websocket.Conn
	events <-chan serverEvent

	chatID    string
	userID    string
	chatModel string

	input    textinput.Model
	viewport viewport.Model
	ready    bool

	entries []transcriptEntry
	waiting bool
	err     error
}

func newModel(ws *websocket.Conn, events <-chan serverEvent, chatModel string) model {
	input := textinput.New()
	input.Placeholder = "Ask Synth anything..."
	input.Focus()

	return model{
		ws:        ws,
		events:    events,
		chatID:    uuid.NewString(),
		userID:    newUserID(),
		chatModel: chatModel,
		input:     input,
	}
}

// waitForEvent hands the next server event to the update loop.
func waitForEvent(events <-chan serverEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return serverEvent{err: fmt.Errorf("connection closed")}
		}
		return event
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.input.Width = msg.Width - 4
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case serverEvent:
		return m.handleServerEvent(msg)
	}

	var inputCmd, viewportCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.viewport, viewportCmd = m.viewport.Update(msg)
	return m, tea.Batch(inputCmd, viewportCmd)
}

func (m model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}

	request := transport.UserMessageRequest{
		ChatID: m.chatID,
		UserID: m.userID,
		Model:  m.chatModel,
		Message: chats.Message{
			ID:          uuid.NewString(),
			Role:        chats.RoleUser,
			Attachments: []chats.Attachment{},
			Content:     chats.TextContent(text),
		},
	}
	if err := m.ws.WriteJSON(request); err != nil {
		m.err = err
		return m, nil
	}

	m.entries = append(m.entries, transcriptEntry{speaker: "You", text: text})
	m.input.Reset()
	m.waiting = true
	m.refreshViewport()
	return m, nil
}

func (m model) handleServerEvent(event serverEvent) (tea.Model, tea.Cmd) {
	if event.err != nil {
		m.err = event.err
		m.waiting = false
		return m, nil
	}

	if event.messageSegment != nil {
		m.foldMessageSegment(*event.messageSegment)
	}
	if event.audioSegment != nil {
		m.foldAudioSegment(*event.audioSegment)
	}

	m.refreshViewport()
	return m, waitForEvent(m.events)
}

func (m *model) foldMessageSegment(payload transport.AssistantMessageSegmentPayload) {
	entry := m.assistantEntry(payload.Message.ID)

	switch payload.Message.Content.Type {
	case chats.ContentTypeText:
		entry.text += payload.Message.Content.Text()
	case chats.ContentTypeCodingActivity:
		if activity, ok := payload.Message.Content.Value.(chats.CodingActivity); ok {
			entry.activity = describeCodingActivity(activity)
		}
	case chats.ContentTypeWebActivity:
		if activity, ok := payload.Message.Content.Value.(chats.WebActivity); ok {
			entry.activity = describeWebActivity(activity)
		}
	}

	if payload.IsLastSegment {
		m.waiting = false
	}
}

func (m *model) foldAudioSegment(payload transport.AssistantAudioSegmentPayload) {
	if len(m.entries) == 0 {
		return
	}
	last := &m.entries[len(m.entries)-1]
	last.audioURLs = append(last.audioURLs, payload.AudioSegment.AudioURL)
}

// assistantEntry finds the transcript entry for a message id, creating it
// when the first segment of a new assistant message arrives.
func (m *model) assistantEntry(messageID string) *transcriptEntry {
	for i := range m.entries {
		if m.entries[i].messageID == messageID {
			return &m.entries[i]
		}
	}
	m.entries = append(m.entries, transcriptEntry{
		messageID: messageID,
		speaker:   "Synth",
	})
	return &m.entries[len(m.entries)-1]
}

func describeCodingActivity(activity chats.CodingActivity) string {
	switch activity.CurrentState {
	case chats.ActivityStateDone:
		if activity.ExecutionSummary != nil && !activity.ExecutionSummary.Success {
			return "[code execution failed]"
		}
		return "[code executed]"
	default:
		return "[writing code...]\n" + activity.Code
	}
}

func describeWebActivity(activity chats.WebActivity) string {
	switch activity.CurrentState {
	case chats.ActivityStateSearching:
		return fmt.Sprintf("[searching the web for %q...]", activity.SearchTerm)
	case chats.ActivityStateReadingResults:
		return "[reading search results...]"
	default:
		return fmt.Sprintf("[searched the web for %q]", activity.SearchTerm)
	}
}

func (m *model) refreshViewport() {
	if !m.ready {
		return
	}

	var lines []string
	for _, entry := range m.entries {
		style := assistantStyle
		if entry.speaker == "You" {
			style = userStyle
		}
		lines = append(lines, style.Render(entry.speaker+":"))
		if entry.activity != "" {
			lines = append(lines, activityStyle.Render(entry.activity))
		}
		if entry.text != "" {
			lines = append(lines, wordwrap.String(entry.text, m.viewport.Width))
		}
		for _, audioURL := range entry.audioURLs {
			lines = append(lines, audioStyle.Render("♪ "+audioURL))
		}
		lines = append(lines, "")
	}
	if m.err != nil {
		lines = append(lines, errorStyle.Render("Error: "+m.err.Error()))
	}

	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	prompt := m.input.View()
	if m.waiting {
		prompt = activityStyle.Render("Synth is responding...")
	}
	return m.viewport.View() + "\n\n" + prompt
}
