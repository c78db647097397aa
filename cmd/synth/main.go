// Command synth is a terminal client for the assistant backend. It speaks
// the websocket protocol: user messages out, assistant message segments,
// activity progress and narration audio references back in.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/simoncragg/synth-gpt-sub000/core/transport"
)

func main() {
	serverURL := flag.String("server", "ws://localhost:3001/ws", "websocket endpoint of synth-server")
	model := flag.String("model", "gpt-3.5-turbo", "completion model to request")
	flag.Parse()

	ws, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", *serverURL, err)
		os.Exit(1)
	}
	defer ws.Close()

	events := make(chan serverEvent)
	go readEvents(ws, events)

	app := newModel(ws, events, *model)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("Client failed: %v", err)
	}
}

// serverEvent is one decoded inbound event, or a terminal read error.
type serverEvent struct {
	messageSegment *transport.AssistantMessageSegmentPayload
	audioSegment   *transport.AssistantAudioSegmentPayload
	err            error
}

func readEvents(ws *websocket.Conn, events chan<- serverEvent) {
	defer close(events)
	for {
		var envelope struct {
			Type    transport.EventType `json:"type"`
			Payload json.RawMessage     `json:"payload"`
		}
		if err := ws.ReadJSON(&envelope); err != nil {
			events <- serverEvent{err: err}
			return
		}

		switch envelope.Type {
		case transport.EventAssistantMessageSegment:
			var payload transport.AssistantMessageSegmentPayload
			if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
				events <- serverEvent{err: err}
				return
			}
			events <- serverEvent{messageSegment: &payload}
		case transport.EventAssistantAudioSegment:
			var payload transport.AssistantAudioSegmentPayload
			if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
				events <- serverEvent{err: err}
				return
			}
			events <- serverEvent{audioSegment: &payload}
		}
	}
}

func newUserID() string {
	return "local-" + uuid.NewString()
}
