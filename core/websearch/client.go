// Package websearch is the HTTP client for the web-search provider. Provider
// responses are projected down to a narrow field allowlist before anything is
// shown to the model or the client.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const scopeName = "github.com/simoncragg/synth-gpt-sub000/core/websearch"

var tracer = otel.Tracer(scopeName)

const defaultEndpoint = "https://api.bing.microsoft.com/v7.0/search"

// Result is the projection of one provider result that is safe to pass on.
// Provider-internal fields are deliberately dropped.
type Result struct {
	Name             string `json:"name"`
	URL              string `json:"url"`
	IsFamilyFriendly bool   `json:"isFamilyFriendly"`
	Snippet          string `json:"snippet"`
}

type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) { c.endpoint = endpoint }
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type searchResponseBody struct {
	WebPages struct {
		Value []Result `json:"value"`
	} `json:"webPages"`
}

// Search queries the provider and returns the ranked, projected result list.
func (c *Client) Search(ctx context.Context, searchTerm string) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "web search")
	defer span.End()
	span.SetAttributes(attribute.String("request.search_term", searchTerm))

	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+"?q="+url.QueryEscape(searchTerm), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var responseBody searchResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return nil, fmt.Errorf("error unmarshalling search response: %w", err)
	}

	span.SetAttributes(attribute.Int("response.result_count", len(responseBody.WebPages.Value)))
	return responseBody.WebPages.Value, nil
}
