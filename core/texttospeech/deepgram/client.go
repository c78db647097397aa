// Package deepgram synthesizes speech through the Deepgram REST speak
// endpoint.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/simoncragg/synth-gpt-sub000/core/texttospeech"
)

const scopeName = "github.com/simoncragg/synth-gpt-sub000/core/texttospeech/deepgram"

var tracer = otel.Tracer(scopeName)

const speakURL = "https://api.deepgram.com/v1/speak"

type deepgramVoice string

const (
	VoiceAsteriaEN deepgramVoice = "aura-asteria-en"
	VoiceLunaEN    deepgramVoice = "aura-luna-en"
	VoiceStellaEN  deepgramVoice = "aura-stella-en"
	VoiceAthenaEN  deepgramVoice = "aura-athena-en"
	VoiceHeraEN    deepgramVoice = "aura-hera-en"
	VoiceOrionEN   deepgramVoice = "aura-orion-en"
	VoiceArcasEN   deepgramVoice = "aura-arcas-en"
	VoicePerseusEN deepgramVoice = "aura-perseus-en"
	VoiceAngusEN   deepgramVoice = "aura-angus-en"
	VoiceOrpheusEN deepgramVoice = "aura-orpheus-en"
	VoiceHeliosEN  deepgramVoice = "aura-helios-en"
	VoiceZeusEN    deepgramVoice = "aura-zeus-en"
)

var defaultVoice = VoiceAsteriaEN

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceAsteriaEN, VoiceLunaEN, VoiceStellaEN, VoiceAthenaEN,
		VoiceHeraEN, VoiceOrionEN, VoiceArcasEN, VoicePerseusEN,
		VoiceAngusEN, VoiceOrpheusEN, VoiceHeliosEN, VoiceZeusEN,
	}
}

type SynthesizerClient struct {
	apiKey   string
	speakURL string
	voice    deepgramVoice

	httpClient *http.Client
}

type SynthesizerOption func(*SynthesizerClient)

// WithSpeakURL overrides the speak endpoint, for tests and proxies.
func WithSpeakURL(url string) SynthesizerOption {
	return func(c *SynthesizerClient) { c.speakURL = url }
}

func NewSynthesizerClient(apiKey string, voice deepgramVoice, opts ...SynthesizerOption) (*SynthesizerClient, error) {
	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	client := &SynthesizerClient{
		apiKey:   apiKey,
		speakURL: speakURL,
		voice:    voice,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *SynthesizerClient) SetVoice(voice deepgramVoice) {
	c.voice = voice
}

type speakRequestBody struct {
	Text string `json:"text"`
}

// Synthesize renders the transcript as a single encoded audio payload.
func (c *SynthesizerClient) Synthesize(ctx context.Context, transcript string, opts ...texttospeech.SynthesisOption) ([]byte, error) {
	options := texttospeech.SynthesisOptions{
		Voice:    string(c.voice),
		Encoding: "mp3",
	}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.voice", options.Voice),
		attribute.String("request.encoding", options.Encoding),
		attribute.Int("request.transcript_length", len(transcript)),
	)

	requestBodyBytes, err := json.Marshal(speakRequestBody{Text: transcript})
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	query := url.Values{}
	query.Set("model", options.Voice)
	query.Set("encoding", options.Encoding)
	if options.SampleRate > 0 {
		query.Set("sample_rate", strconv.Itoa(options.SampleRate))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.speakURL+"?"+query.Encode(), bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

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

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading synthesized audio: %w", err)
	}

	span.SetAttributes(attribute.Int("response.audio_bytes", len(audio)))
	return audio, nil
}
