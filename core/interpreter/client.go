// Package interpreter is the HTTP client for the isolated code-execution
// sandbox. The sandbox runs untrusted Python and reports either a result
// value or a structured error with a traceback.
package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const scopeName = "github.com/simoncragg/synth-gpt-sub000/core/interpreter"

var (
	tracer = otel.Tracer(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

// Result types reported by the sandbox.
const (
	ResultTypeString = "string"
	ResultTypeFile   = "file"
)

// ExecutionResponse is the normalized outcome of one sandbox run.
type ExecutionResponse struct {
	Success bool
	Result  *ExecutionResult
	Error   *ExecutionError
}

// ExecutionResult carries the value of a successful run: either a plain
// string value or an encoded file payload.
type ExecutionResult struct {
	Type                 string
	Value                string
	MimeType             string
	Base64EncodedContent string
}

// ExecutionError is a failed run, including the sandbox traceback.
type ExecutionError struct {
	ErrorMessage string
	ErrorType    string
	StackTrace   []string
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
}

type executionRequest struct {
	Code string `json:"code"`
}

// sandboxPayload is the raw sandbox reply; an errorMessage key marks failure.
type sandboxPayload struct {
	Value                string   `json:"value"`
	MimeType             string   `json:"mimeType"`
	Base64EncodedContent string   `json:"base64EncodedContent"`
	ErrorMessage         string   `json:"errorMessage"`
	ErrorType            string   `json:"errorType"`
	StackTrace           []string `json:"stackTrace"`
}

// Execute runs the code in the sandbox. A failed run is a normal response,
// not an error: the caller surfaces it to the model as a function failure.
func (c *Client) Execute(ctx context.Context, code string) (*ExecutionResponse, error) {
	ctx, span := tracer.Start(ctx, "execute code")
	defer span.End()

	requestBodyBytes, err := json.Marshal(executionRequest{Code: code})
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("code interpreter invocation error: %s", resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading sandbox response: %w", err)
	}

	var payload sandboxPayload
	if err := json.Unmarshal(bytes.TrimSpace(body), &payload); err != nil {
		return nil, fmt.Errorf("error unmarshalling sandbox response: %w", err)
	}

	if payload.ErrorMessage != "" {
		logger.WarnContext(ctx, "sandbox execution failed",
			"errorType", payload.ErrorType,
			"errorMessage", payload.ErrorMessage,
		)
		return &ExecutionResponse{
			Success: false,
			Error: &ExecutionError{
				ErrorMessage: payload.ErrorMessage,
				ErrorType:    payload.ErrorType,
				StackTrace:   payload.StackTrace,
			},
		}, nil
	}

	if payload.MimeType != "" {
		return &ExecutionResponse{
			Success: true,
			Result: &ExecutionResult{
				Type:                 ResultTypeFile,
				MimeType:             payload.MimeType,
				Base64EncodedContent: payload.Base64EncodedContent,
			},
		}, nil
	}

	return &ExecutionResponse{
		Success: true,
		Result: &ExecutionResult{
			Type:  ResultTypeString,
			Value: payload.Value,
		},
	}, nil
}
