// Package llms defines the provider-agnostic completion contract: request
// messages, streamed deltas and tool descriptions.
package llms

import "context"

// Finish reasons reported by completion providers. A nil finish reason means
// the stream is still in progress.
const (
	FinishReasonStop         = "stop"
	FinishReasonFunctionCall = "function_call"
)

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleFunction  MessageRole = "function"
)

// Message is a single completion-request message.
type Message struct {
	Role MessageRole
	// Name carries the function name on function-role result messages.
	Name    string
	Content string
}

// Delta is one incremental fragment of a streamed completion. Each delta
// carries at most one of Content or FunctionCall.
type Delta struct {
	Content      string
	FunctionCall *FunctionCallDelta

	// FinishReason is set on the terminal delta of a completion.
	FinishReason *string
}

// FunctionCallDelta is an incremental fragment of a tool invocation. The
// name arrives whole on the first fragment; arguments accumulate across
// fragments and are not valid JSON until the terminal delta.
type FunctionCallDelta struct {
	Name      string
	Arguments string
}

// Stream is a lazily-evaluated streamed completion.
type Stream interface {
	Deltas(ctx context.Context) func(func(Delta, error) bool)
}
