package openai

import (
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/simoncragg/synth-gpt-sub000/core/llms/openai"

var (
	tracer = otel.Tracer(scopeName)
)
