package transport

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// UserMessageProcessor runs one assistant turn for an inbound user message,
// streaming segments back over conn as it goes.
type UserMessageProcessor interface {
	ProcessUserMessage(ctx context.Context, conn Connection, request UserMessageRequest) error
}

// Server accepts websocket clients and feeds their user messages to the
// processor. Turns for the same chat never overlap: a second message for a
// chat waits for the in-flight turn to finish, while turns for different
// chats run concurrently.
type Server struct {
	processor UserMessageProcessor
	upgrader  websocket.Upgrader

	mu        sync.Mutex
	chatLocks map[string]*chatLock
}

// chatLock serializes turns for one chat. waiters counts every turn holding
// or waiting on the lock, so the entry can be dropped once the last one is
// done.
type chatLock struct {
	sync.Mutex
	waiters int
}

func NewServer(processor UserMessageProcessor) *Server {
	return &Server{
		processor: processor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients come from a different origin than the API.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		chatLocks: map[string]*chatLock{},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.processor == nil {
		http.Error(w, "server not configured", http.StatusInternalServerError)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Failed to upgrade connection", "error", err)
		return
	}

	connectionID := uuid.NewString()
	conn := NewWebsocketConnection(ws)
	defer conn.Close()

	s.readLoop(r.Context(), connectionID, ws, conn)
}

func (s *Server) readLoop(ctx context.Context, connectionID string, ws *websocket.Conn, conn Connection) {
	var turns sync.WaitGroup
	defer turns.Wait()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Websocket read error: %v", err)
			}
			return
		}

		request, err := DecodeUserMessageRequest(data)
		if err != nil {
			logger.Warn("Dropping malformed user message request", "error", err)
			continue
		}
		request.ConnectionID = connectionID

		turns.Add(1)
		go func() {
			defer turns.Done()
			if err := s.processTurn(ctx, conn, request); err != nil {
				logger.Error("Failed to process user message", "error", err, "chatId", request.ChatID)
			}
		}()
	}
}

func (s *Server) processTurn(ctx context.Context, conn Connection, request UserMessageRequest) (err error) {
	ctx, span := tracer.Start(ctx, "Process user message",
		trace.WithAttributes(
			attribute.String("chat.id", request.ChatID),
			attribute.String("chat.user_id", request.UserID),
		),
	)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to process user message")
		}
	}()

	lock := s.acquireChatLock(request.ChatID)
	defer s.releaseChatLock(request.ChatID, lock)

	// A client disconnect must not cancel an in-flight turn: the turn runs
	// to completion and persists, only segment delivery is lost.
	ctx = context.WithoutCancel(ctx)

	if err := s.processor.ProcessUserMessage(ctx, conn, request); err != nil {
		return fmt.Errorf("failed to process user message: %w", err)
	}
	return nil
}

func (s *Server) acquireChatLock(chatID string) *chatLock {
	s.mu.Lock()
	lock, ok := s.chatLocks[chatID]
	if !ok {
		lock = &chatLock{}
		s.chatLocks[chatID] = lock
	}
	lock.waiters++
	s.mu.Unlock()

	lock.Lock()
	return lock
}

func (s *Server) releaseChatLock(chatID string, lock *chatLock) {
	lock.Unlock()

	s.mu.Lock()
	lock.waiters--
	if lock.waiters == 0 {
		delete(s.chatLocks, chatID)
	}
	s.mu.Unlock()
}
