// Package orchestration runs assistant turns: it streams completions,
// folds the streamed segments into conversation messages, executes tool
// activities, narrates speakable text and persists the finished turn.
package orchestration

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/simoncragg/synth-gpt-sub000/core/chats"
	"github.com/simoncragg/synth-gpt-sub000/core/storage"
	"github.com/simoncragg/synth-gpt-sub000/core/texttospeech"
	"github.com/simoncragg/synth-gpt-sub000/core/transport"
)

type Orchestrator struct {
	store       chats.Store
	llm         LLMWithStream
	interpreter CodeInterpreter
	webSearch   WebSearcher
	synthesizer texttospeech.Synthesizer
	// audioStore holds narration clips; fileStore holds sandbox-produced
	// files. A nil store disables the feature that needs it.
	audioStore storage.FileStore
	fileStore  storage.FileStore

	now func() time.Time
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		now: time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// ProcessUserMessage runs one assistant turn for the given user message and
// streams the reply back over conn. The chat is loaded (or created), the
// user message appended, the assistant loop run to its terminal text
// segment, and the whole chat persisted exactly once. Callers must not run
// two turns for the same chat concurrently.
func (o *Orchestrator) ProcessUserMessage(ctx context.Context, conn transport.Connection, request transport.UserMessageRequest) (err error) {
	ctx, span := tracer.Start(ctx, "Process user message",
		trace.WithAttributes(
			attribute.String("chat.id", request.ChatID),
			attribute.String("chat.user_id", request.UserID),
			attribute.String("chat.model", request.Model),
		),
	)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to process user message")
		}
	}()

	if o == nil {
		return fmt.Errorf("orchestrator was not initialized")
	}
	if o.store == nil {
		return fmt.Errorf("orchestrator has no chat store")
	}
	if o.llm == nil {
		return fmt.Errorf("orchestrator has no streaming LLM")
	}

	chat, err := o.loadOrCreateChat(ctx, request)
	if err != nil {
		return err
	}
	chat.Messages = append(chat.Messages, request.Message)

	turn := newAssistantTurn(o, conn, chat)
	defer turn.narration.Wait()

	if err := turn.run(ctx); err != nil {
		return fmt.Errorf("failed to run assistant turn: %w", err)
	}

	chat.UpdatedTime = o.now().UnixMilli()
	if err := o.store.Upsert(ctx, chat); err != nil {
		return fmt.Errorf("failed to persist chat: %w", err)
	}

	return nil
}

func (o *Orchestrator) loadOrCreateChat(ctx context.Context, request transport.UserMessageRequest) (*chats.Chat, error) {
	chat, err := o.store.GetByChatID(ctx, request.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	if chat == nil {
		now := o.now().UnixMilli()
		chat = &chats.Chat{
			ID:          request.ChatID,
			UserID:      request.UserID,
			Title:       chats.NewChatTitle,
			CreatedTime: now,
			UpdatedTime: now,
		}
	}

	// The client may switch models between turns of the same chat.
	chat.Model = request.Model
	return chat, nil
}
