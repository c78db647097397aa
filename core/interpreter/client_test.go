package interpreter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExecuteMapsStringResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request executionRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if request.Code != "result=12.0" {
			t.Errorf("unexpected code %q", request.Code)
		}
		// Trailing whitespace mirrors the sandbox's raw payload framing.
		w.Write([]byte("{\"value\":\"12.0\"}\n"))
	}))
	defer server.Close()

	response, err := NewClient(server.URL).Execute(context.Background(), "result=12.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !response.Success {
		t.Fatal("expected successful execution")
	}
	if response.Result.Type != ResultTypeString || response.Result.Value != "12.0" {
		t.Fatalf("unexpected result %#v", response.Result)
	}
}

func TestExecuteMapsFileResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(sandboxPayload{
			MimeType:             "image/png",
			Base64EncodedContent: "aGVsbG8=",
		})
	}))
	defer server.Close()

	response, err := NewClient(server.URL).Execute(context.Background(), "plot()")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !response.Success || response.Result.Type != ResultTypeFile {
		t.Fatalf("expected file result, got %#v", response)
	}
	if response.Result.MimeType != "image/png" || response.Result.Base64EncodedContent != "aGVsbG8=" {
		t.Fatalf("unexpected file result %#v", response.Result)
	}
}

func TestExecuteMapsSandboxError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(sandboxPayload{
			ErrorMessage: "name 'resul' is not defined",
			ErrorType:    "NameError",
			StackTrace:   []string{"  File \"<string>\", line 1"},
		})
	}))
	defer server.Close()

	response, err := NewClient(server.URL).Execute(context.Background(), "resul")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Success {
		t.Fatal("expected failed execution")
	}
	if response.Error.ErrorType != "NameError" || len(response.Error.StackTrace) != 1 {
		t.Fatalf("unexpected error %#v", response.Error)
	}
}

func TestExecuteRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "sandbox unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).Execute(context.Background(), "result=1"); err == nil {
		t.Fatal("expected an invocation error")
	}
}
