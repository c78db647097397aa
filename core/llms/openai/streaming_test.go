package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/simoncragg/synth-gpt-sub000/core/llms"
)

func chunkedCompletionServer(t *testing.T, rawChunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		for _, chunk := range rawChunks {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
			flusher.Flush()
		}
	}))
}

func collectDeltas(t *testing.T, stream llms.Stream) []llms.Delta {
	t.Helper()
	var deltas []llms.Delta
	for delta, err := range stream.Deltas(context.Background()) {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		deltas = append(deltas, delta)
	}
	return deltas
}

func TestStreamDecodesContentDeltas(t *testing.T) {
	// Writes are deliberately split mid-line and mid-event.
	server := chunkedCompletionServer(t, []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hel",
		"lo\"},\"finish_reason\":null}]}\n",
		"\ndata: {\"choices\":[{\"delta\":{\"content\":\" world\\n\"},\"finish_reason\":null}]}\n\n",
		"data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n",
		"data: [DONE]\n\n",
	})
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	deltas := collectDeltas(t, client.PromptWithStream(context.Background(), []llms.Message{
		{Role: llms.MessageRoleUser, Content: "hi"},
	}, nil))

	if len(deltas) != 3 {
		t.Fatalf("expected 3 deltas, got %d: %#v", len(deltas), deltas)
	}
	if deltas[0].Content != "Hello" || deltas[1].Content != " world\n" {
		t.Fatalf("unexpected content deltas: %#v", deltas)
	}
	if deltas[2].FinishReason == nil || *deltas[2].FinishReason != llms.FinishReasonStop {
		t.Fatalf("expected terminal stop delta, got %#v", deltas[2])
	}
}

func TestStreamDecodesFunctionCallDeltas(t *testing.T) {
	server := chunkedCompletionServer(t, []string{
		"data: {\"choices\":[{\"delta\":{\"function_call\":{\"name\":\"execute_python_code\",\"arguments\":\"\"}},\"finish_reason\":null}]}\n\n",
		"data: {\"choices\":[{\"delta\":{\"function_call\":{\"arguments\":\"{ \\\"code\\\": \\\"result=1\\\" }\"}},\"finish_reason\":null}]}\n\n",
		"data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"function_call\"}]}\n\n",
		"data: [DONE]\n\n",
	})
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	deltas := collectDeltas(t, client.PromptWithStream(context.Background(), nil, nil))

	if len(deltas) != 3 {
		t.Fatalf("expected 3 deltas, got %d: %#v", len(deltas), deltas)
	}
	if deltas[0].FunctionCall == nil || deltas[0].FunctionCall.Name != "execute_python_code" {
		t.Fatalf("expected function call name on first delta, got %#v", deltas[0])
	}
	if deltas[1].FunctionCall == nil || !strings.Contains(deltas[1].FunctionCall.Arguments, "result=1") {
		t.Fatalf("expected argument fragment on second delta, got %#v", deltas[1])
	}
	if deltas[2].FinishReason == nil || *deltas[2].FinishReason != llms.FinishReasonFunctionCall {
		t.Fatalf("expected terminal function_call delta, got %#v", deltas[2])
	}
}

func TestStreamSurfacesNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	var streamErr error
	for _, err := range client.PromptWithStream(context.Background(), nil, nil).Deltas(context.Background()) {
		if err != nil {
			streamErr = err
			break
		}
	}
	if streamErr == nil {
		t.Fatal("expected an error for a non-OK response")
	}
}
