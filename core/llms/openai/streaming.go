package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/simoncragg/synth-gpt-sub000/core/llms"
	"github.com/simoncragg/synth-gpt-sub000/core/llms/eventsource"
	"github.com/simoncragg/synth-gpt-sub000/internal/utils"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-3.5-turbo"

	// doneSentinel terminates a chat-completions event stream.
	doneSentinel = "[DONE]"
)

// Client streams chat completions from the OpenAI-compatible
// chat-completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) PromptWithStream(_ context.Context, messages []llms.Message, tools []llms.Tool) llms.Stream {
	return &Stream{
		apiKey:    c.apiKey,
		baseURL:   c.baseURL,
		model:     c.model,
		messages:  toMessages(messages),
		functions: toFunctionDefinitions(tools),
	}
}

type Stream struct {
	apiKey  string
	baseURL string
	model   string

	messages  []message
	functions []functionDefinition
}

type requestBody struct {
	Model        string               `json:"model"`
	Messages     []message            `json:"messages"`
	Functions    []functionDefinition `json:"functions,omitempty"`
	FunctionCall *string              `json:"function_call,omitempty"`
	Stream       bool                 `json:"stream"`
}

type streamingResponseBody struct {
	Choices []struct {
		Delta struct {
			Content      string `json:"content"`
			FunctionCall *struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function_call"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Deltas streams the completion. The response body is fed through the
// incremental event-stream parser in raw read chunks, so provider chunk
// boundaries may fall anywhere without affecting the decoded sequence.
func (s *Stream) Deltas(ctx context.Context) func(func(llms.Delta, error) bool) {
	return func(yield func(llms.Delta, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", s.model))

		var functionCall *string
		if len(s.functions) > 0 {
			functionCall = utils.Ptr("auto")
		}

		requestBodyBytes, err := json.Marshal(requestBody{
			Model:        s.model,
			Messages:     s.messages,
			Functions:    s.functions,
			FunctionCall: functionCall,
			Stream:       true,
		})
		if err != nil {
			err = fmt.Errorf("error marshalling JSON: %w", err)
			span.RecordError(err)
			yield(llms.Delta{}, err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			err = fmt.Errorf("error creating HTTP request: %w", err)
			span.RecordError(err)
			yield(llms.Delta{}, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)}
		resp, err := client.Do(req)
		if err != nil {
			err = fmt.Errorf("error sending request: %w", err)
			span.RecordError(err)
			yield(llms.Delta{}, err)
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			if errorBody, readErr := io.ReadAll(resp.Body); readErr == nil {
				span.SetAttributes(attribute.String("response.error", string(errorBody)))
			}
			err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
			span.RecordError(err)
			yield(llms.Delta{}, err)
			return
		}

		var (
			done    bool
			stopped bool
		)
		parser := eventsource.NewParser(func(event eventsource.Event) {
			if done || stopped {
				return
			}
			if event.Data == doneSentinel {
				done = true
				return
			}

			var responseBody streamingResponseBody
			if err := json.Unmarshal([]byte(event.Data), &responseBody); err != nil {
				err = fmt.Errorf("error unmarshalling JSON: %w", err)
				span.RecordError(err)
				if !yield(llms.Delta{}, err) {
					stopped = true
				}
				return
			}
			if len(responseBody.Choices) == 0 {
				return
			}

			choice := responseBody.Choices[0]
			delta := llms.Delta{
				Content:      choice.Delta.Content,
				FinishReason: choice.FinishReason,
			}
			if call := choice.Delta.FunctionCall; call != nil {
				delta.FunctionCall = &llms.FunctionCallDelta{
					Name:      call.Name,
					Arguments: call.Arguments,
				}
			}
			if !yield(delta, nil) {
				stopped = true
			}
		})

		buffer := make([]byte, 4096)
		for !done && !stopped {
			n, err := resp.Body.Read(buffer)
			if n > 0 {
				parser.Feed(buffer[:n])
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				err = fmt.Errorf("error reading streamed response: %w", err)
				span.RecordError(err)
				yield(llms.Delta{}, err)
				return
			}
		}
	}
}
