// Package transport defines the websocket protocol spoken between the
// assistant backend and its clients, and the server that accepts user
// messages over it.
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/simoncragg/synth-gpt-sub000/core/chats"
)

type EventType string

const (
	EventAssistantMessageSegment EventType = "assistantMessageSegment"
	EventAssistantAudioSegment   EventType = "assistantAudioSegment"
)

// Event is the envelope for every outbound message. Payload is one of the
// *Payload structs below, discriminated by Type.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// AssistantMessageSegmentPayload carries one incremental slice of the
// assistant's reply. IsLastSegment marks the end of the whole turn, not the
// end of an individual message.
type AssistantMessageSegmentPayload struct {
	ChatID        string        `json:"chatId"`
	Message       chats.Message `json:"message"`
	IsLastSegment bool          `json:"isLastSegment"`
}

type AssistantAudioSegmentPayload struct {
	ChatID       string       `json:"chatId"`
	AudioSegment AudioSegment `json:"audioSegment"`
}

// AudioSegment points at a stored narration clip. Timestamp is the moment
// the narrated text was produced; clients order clips by it because
// synthesis completes out of order.
type AudioSegment struct {
	AudioURL  string `json:"audioUrl"`
	Timestamp int64  `json:"timestamp"`
}

// UserMessageRequest is the inbound frame asking for one assistant turn.
type UserMessageRequest struct {
	ConnectionID string        `json:"connectionId"`
	ChatID       string        `json:"chatId"`
	UserID       string        `json:"userId"`
	Model        string        `json:"model"`
	Message      chats.Message `json:"message"`
}

// Connection is one client's outbound channel. Post is safe for concurrent
// use; implementations serialize writes internally.
type Connection interface {
	Post(ctx context.Context, event Event) error
}

// DecodeUserMessageRequest parses an inbound frame, rejecting frames that
// are missing the fields a turn cannot run without.
func DecodeUserMessageRequest(data []byte) (UserMessageRequest, error) {
	var request UserMessageRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return UserMessageRequest{}, fmt.Errorf("failed to parse user message request: %w", err)
	}
	if request.ChatID == "" {
		return UserMessageRequest{}, fmt.Errorf("user message request is missing a chat id")
	}
	if request.UserID == "" {
		return UserMessageRequest{}, fmt.Errorf("user message request is missing a user id")
	}
	return request, nil
}
