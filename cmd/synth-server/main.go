// Command synth-server runs the voice-enabled chat assistant backend: a
// websocket endpoint that accepts user messages and streams assistant reply
// segments, tool activity progress and narration audio back to the client.
package main

import (
	"fmt"
	"log"
	"net/http"

	orchestration "github.com/simoncragg/synth-gpt-sub000/core"
	"github.com/simoncragg/synth-gpt-sub000/core/chats"
	"github.com/simoncragg/synth-gpt-sub000/core/interpreter"
	"github.com/simoncragg/synth-gpt-sub000/core/llms/openai"
	"github.com/simoncragg/synth-gpt-sub000/core/storage"
	"github.com/simoncragg/synth-gpt-sub000/core/texttospeech/deepgram"
	"github.com/simoncragg/synth-gpt-sub000/core/transport"
	"github.com/simoncragg/synth-gpt-sub000/core/websearch"
)

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	options := []orchestration.OrchestratorOption{
		orchestration.WithChatStore(chats.NewMemoryStore()),
		orchestration.WithStreamingLLM(newOpenAIClient(config)),
	}

	if config.Sandbox.Endpoint != "" {
		options = append(options,
			orchestration.WithCodeInterpreter(interpreter.NewClient(config.Sandbox.Endpoint)))
	} else {
		log.Println("Warning: no sandbox endpoint configured, code execution disabled")
	}

	if config.Search.APIKey != "" {
		options = append(options,
			orchestration.WithWebSearchClient(newSearchClient(config)))
	} else {
		log.Println("Warning: no search api key configured, web search disabled")
	}

	fileStore, err := storage.NewDirStore(config.Storage.Dir, config.Storage.BaseURL)
	if err != nil {
		log.Fatalf("Failed to open file storage: %v", err)
	}
	options = append(options, orchestration.WithFileStore(fileStore))

	if config.Deepgram.APIKey != "" {
		synthesizer, err := newSynthesizer(config)
		if err != nil {
			log.Fatalf("Failed to create synthesizer: %v", err)
		}
		options = append(options,
			orchestration.WithSynthesizer(synthesizer),
			orchestration.WithAudioStore(fileStore),
		)
	} else {
		log.Println("Warning: no deepgram api key configured, narration disabled")
	}

	orchestrator := orchestration.NewOrchestrator(options...)

	mux := http.NewServeMux()
	mux.Handle("/ws", transport.NewServer(orchestrator))
	mux.Handle("/files/", http.StripPrefix("/files/",
		http.FileServer(http.Dir(config.Storage.Dir))))

	log.Printf("Listening on %s", config.ListenAddr)
	if err := http.ListenAndServe(config.ListenAddr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func newOpenAIClient(config *Config) *openai.Client {
	var opts []openai.ClientOption
	if config.OpenAI.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.OpenAI.BaseURL))
	}
	if config.OpenAI.Model != "" {
		opts = append(opts, openai.WithModel(config.OpenAI.Model))
	}
	return openai.NewClient(config.OpenAI.APIKey, opts...)
}

func newSynthesizer(config *Config) (*deepgram.SynthesizerClient, error) {
	for _, voice := range deepgram.GetAvailableVoices() {
		if string(voice) == config.Deepgram.Voice {
			return deepgram.NewSynthesizerClient(config.Deepgram.APIKey, voice)
		}
	}
	return nil, fmt.Errorf("unknown deepgram voice %q", config.Deepgram.Voice)
}

func newSearchClient(config *Config) *websearch.Client {
	var opts []websearch.ClientOption
	if config.Search.Endpoint != "" {
		opts = append(opts, websearch.WithEndpoint(config.Search.Endpoint))
	}
	return websearch.NewClient(config.Search.APIKey, opts...)
}
