package orchestration

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/simoncragg/synth-gpt-sub000/core/chats"
	"github.com/simoncragg/synth-gpt-sub000/core/transport"
)

// maxToolCallsPerTurn bounds how many times the model can chain tool calls
// within one user turn. The model is expected to stop on its own; the bound
// only catches a model stuck in a tool loop.
const maxToolCallsPerTurn = 8

// assistantTurn is the state of one in-flight assistant turn: the chat being
// extended, the message currently being assembled from segments, and the
// narration gate feeding the voice pipeline.
type assistantTurn struct {
	orchestrator *Orchestrator
	conn         transport.Connection
	chat         *chats.Chat
	narration    *narrationGate

	message   *chats.Message
	toolCalls int
}

func newAssistantTurn(o *Orchestrator, conn transport.Connection, chat *chats.Chat) *assistantTurn {
	return &assistantTurn{
		orchestrator: o,
		conn:         conn,
		chat:         chat,
		narration:    newNarrationGate(o, conn, chat.ID),
	}
}

// run drives completions until one ends in plain text. A completion that
// ends in a tool call executes the matching activity and resumes with a
// fresh completion over the extended conversation.
func (t *assistantTurn) run(ctx context.Context) error {
	for {
		t.message = nil

		if err := t.streamCompletion(ctx); err != nil {
			return err
		}
		if t.message == nil {
			return fmt.Errorf("completion produced no segments")
		}

		if !t.message.Content.IsActivity() {
			t.chat.Messages = append(t.chat.Messages, *t.message)
			return nil
		}

		if t.toolCalls >= maxToolCallsPerTurn {
			return fmt.Errorf("tool call budget exhausted after %d calls", t.toolCalls)
		}
		t.toolCalls++

		if err := t.runActivity(ctx); err != nil {
			return err
		}
	}
}

func (t *assistantTurn) streamCompletion(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Stream completion",
		trace.WithAttributes(attribute.Int("turn.tool_calls", t.toolCalls)),
	)
	defer span.End()

	o := t.orchestrator
	messages := toCompletionMessages(t.chat, o.now())
	stream := o.llm.PromptWithStream(ctx, messages, assistantTools())

	assembler := newSegmentAssembler(func(segment messageSegment) error {
		return t.processSegment(ctx, segment)
	}, o.now)
	for delta, err := range stream.Deltas(ctx) {
		if err != nil {
			return fmt.Errorf("completion stream failed: %w", err)
		}
		if err := assembler.ProcessDelta(delta); err != nil {
			return err
		}
	}
	return nil
}

func (t *assistantTurn) processSegment(ctx context.Context, segment messageSegment) error {
	if segment.Message.Content.Type == chats.ContentTypeText {
		return t.processTextSegment(ctx, segment)
	}
	return t.processActivitySegment(ctx, segment)
}

func (t *assistantTurn) processTextSegment(ctx context.Context, segment messageSegment) error {
	t.narration.Process(ctx, segment.Message.Content.Text())

	if t.message == nil {
		cloned, err := cloneMessage(segment.Message)
		if err != nil {
			return err
		}
		t.message = cloned
	} else {
		t.message.Content = chats.TextContent(
			t.message.Content.Text() + segment.Message.Content.Text())
	}

	t.postSegment(ctx, segment.Message, segment.IsLastSegment)
	return nil
}

func (t *assistantTurn) processActivitySegment(ctx context.Context, segment messageSegment) error {
	if t.message == nil || !t.message.Content.IsActivity() {
		cloned, err := cloneMessage(segment.Message)
		if err != nil {
			return err
		}
		t.message = cloned
	} else {
		if err := t.foldActivity(segment.Message.Content); err != nil {
			return err
		}
	}

	// The turn continues after a tool call, so activity segments never
	// terminate the client stream even when they terminate the completion.
	t.postSegment(ctx, *t.message, false)
	return nil
}

// foldActivity replaces the in-flight activity with a newer snapshot.
// Activity states only move forward; a snapshot that would regress the
// state is dropped.
func (t *assistantTurn) foldActivity(content chats.Content) error {
	if t.message.Content.Type != content.Type {
		return fmt.Errorf("activity type changed mid-message from %q to %q",
			t.message.Content.Type, content.Type)
	}
	if currentActivityState(t.message.Content).Rank() > currentActivityState(content).Rank() {
		logger.Warn("Dropping activity snapshot that would regress state",
			"from", currentActivityState(t.message.Content),
			"to", currentActivityState(content),
		)
		return nil
	}
	t.message.Content = content
	return nil
}

func currentActivityState(content chats.Content) chats.ActivityState {
	switch value := content.Value.(type) {
	case chats.CodingActivity:
		return value.CurrentState
	case chats.WebActivity:
		return value.CurrentState
	}
	return ""
}

// postSegment delivers a segment to the client. Delivery is best-effort: a
// dead connection loses segments but must not stop the turn, which still
// runs to completion and persists.
func (t *assistantTurn) postSegment(ctx context.Context, message chats.Message, isLastSegment bool) {
	err := t.conn.Post(ctx, transport.Event{
		Type: transport.EventAssistantMessageSegment,
		Payload: transport.AssistantMessageSegmentPayload{
			ChatID:        t.chat.ID,
			Message:       message,
			IsLastSegment: isLastSegment,
		},
	})
	if err != nil {
		logger.Warn("Failed to post message segment", "error", err, "chatId", t.chat.ID)
	}
}

func cloneMessage(message chats.Message) (*chats.Message, error) {
	cloned := &chats.Message{}
	if err := copier.CopyWithOption(cloned, &message, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("failed to clone message: %w", err)
	}
	return cloned, nil
}
