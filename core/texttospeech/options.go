// Package texttospeech defines the speech-synthesis contract used by the
// narration pipeline.
package texttospeech

import "context"

// Synthesizer turns a plain-text transcript into encoded audio bytes.
// Implementations own their own timeouts; callers treat any failure as an
// ordinary execution failure for the affected segment only.
type Synthesizer interface {
	Synthesize(ctx context.Context, transcript string, opts ...SynthesisOption) ([]byte, error)
}

type SynthesisOptions struct {
	// Voice overrides the client's configured voice/model for one request.
	Voice string
	// Encoding is the requested audio container/encoding, e.g. "mp3".
	Encoding string
	// SampleRate is the requested output sample rate in Hz. Zero keeps the
	// provider default. Not all encodings accept an explicit rate.
	SampleRate int
}

type SynthesisOption func(*SynthesisOptions)

func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Voice = voice }
}

func WithEncoding(encoding string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Encoding = encoding }
}

func WithSampleRate(sampleRate int) SynthesisOption {
	return func(o *SynthesisOptions) { o.SampleRate = sampleRate }
}
