package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/simoncragg/synth-gpt-sub000/core/texttospeech"
)

func TestNewSynthesizerClientRejectsUnknownVoice(t *testing.T) {
	if _, err := NewSynthesizerClient("key", deepgramVoice("aura-unknown-en")); err == nil {
		t.Fatal("expected unknown voice to be rejected")
	}
}

func TestSynthesizePostsTranscriptAndReturnsAudio(t *testing.T) {
	audio := []byte{0xFF, 0xF3, 0x01, 0x02}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.URL.Query().Get("model"); got != string(VoiceOrionEN) {
			t.Errorf("unexpected model %q", got)
		}
		if got := r.URL.Query().Get("encoding"); got != "mp3" {
			t.Errorf("unexpected encoding %q", got)
		}

		var body speakRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if body.Text != "The square root of 144 is 12" {
			t.Errorf("unexpected transcript %q", body.Text)
		}
		w.Write(audio)
	}))
	defer server.Close()

	client, err := NewSynthesizerClient("test-key", VoiceOrionEN, WithSpeakURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := client.Synthesize(context.Background(), "The square root of 144 is 12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Fatalf("expected %v, got %v", audio, got)
	}
}

func TestSynthesizeAppliesOptionOverrides(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("model"); got != string(VoiceLunaEN) {
			t.Errorf("unexpected model %q", got)
		}
		if got := r.URL.Query().Get("encoding"); got != "linear16" {
			t.Errorf("unexpected encoding %q", got)
		}
		if got := r.URL.Query().Get("sample_rate"); got != "24000" {
			t.Errorf("unexpected sample rate %q", got)
		}
		w.Write([]byte{0x00})
	}))
	defer server.Close()

	client, err := NewSynthesizerClient("test-key", VoiceOrionEN, WithSpeakURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Synthesize(context.Background(), "hello",
		texttospeech.WithVoice(string(VoiceLunaEN)),
		texttospeech.WithEncoding("linear16"),
		texttospeech.WithSampleRate(24000),
	); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSynthesizeRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := NewSynthesizerClient("test-key", VoiceOrionEN, WithSpeakURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected an error for a non-OK response")
	}
}
