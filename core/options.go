package orchestration

import (
	"context"
	"time"

	"github.com/simoncragg/synth-gpt-sub000/core/chats"
	"github.com/simoncragg/synth-gpt-sub000/core/interpreter"
	"github.com/simoncragg/synth-gpt-sub000/core/llms"
	"github.com/simoncragg/synth-gpt-sub000/core/storage"
	"github.com/simoncragg/synth-gpt-sub000/core/texttospeech"
	"github.com/simoncragg/synth-gpt-sub000/core/websearch"
)

type OrchestratorOption func(*Orchestrator)

type LLMWithStream interface {
	PromptWithStream(ctx context.Context, messages []llms.Message, tools []llms.Tool) llms.Stream
}

func WithStreamingLLM(client LLMWithStream) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm = client
	}
}

func WithChatStore(store chats.Store) OrchestratorOption {
	return func(o *Orchestrator) {
		o.store = store
	}
}

type CodeInterpreter interface {
	Execute(ctx context.Context, code string) (*interpreter.ExecutionResponse, error)
}

func WithCodeInterpreter(client CodeInterpreter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.interpreter = client
	}
}

type WebSearcher interface {
	Search(ctx context.Context, searchTerm string) ([]websearch.Result, error)
}

func WithWebSearchClient(client WebSearcher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.webSearch = client
	}
}

// WithSynthesizer enables narration of speakable reply segments. Narration
// also needs an audio store to put the clips somewhere clients can fetch
// them from.
func WithSynthesizer(client texttospeech.Synthesizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synthesizer = client
	}
}

func WithAudioStore(store storage.FileStore) OrchestratorOption {
	return func(o *Orchestrator) {
		o.audioStore = store
	}
}

func WithFileStore(store storage.FileStore) OrchestratorOption {
	return func(o *Orchestrator) {
		o.fileStore = store
	}
}

// WithClock overrides the wall clock, used by tests to pin timestamps.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}
