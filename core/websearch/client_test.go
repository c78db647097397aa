package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchProjectsOnlyAllowlistedFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "test-key" {
			t.Errorf("unexpected subscription key %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "current weather london" {
			t.Errorf("unexpected query %q", got)
		}

		// Provider payloads carry many internal fields; only the allowlist
		// must survive decoding.
		w.Write([]byte(`{
			"_type": "SearchResponse",
			"webPages": {
				"totalEstimatedMatches": 1200000,
				"value": [{
					"id": "https://api.bing.microsoft.com/api/v7/#WebPages.0",
					"name": "London Weather",
					"url": "https://weather.example.com/london",
					"isFamilyFriendly": true,
					"displayUrl": "weather.example.com/london",
					"snippet": "Cloudy with a chance of rain.",
					"dateLastCrawled": "2023-06-01T00:00:00.0000000Z"
				}]
			}
		}`))
	}))
	defer server.Close()

	results, err := NewClient("test-key", WithEndpoint(server.URL)).
		Search(context.Background(), "current weather london")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	want := Result{
		Name:             "London Weather",
		URL:              "https://weather.example.com/london",
		IsFamilyFriendly: true,
		Snippet:          "Cloudy with a chance of rain.",
	}
	if results[0] != want {
		t.Fatalf("expected %#v, got %#v", want, results[0])
	}
}

func TestSearchRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	if _, err := NewClient("test-key", WithEndpoint(server.URL)).Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected an error for a non-OK response")
	}
}
