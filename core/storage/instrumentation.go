package storage

import (
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/simoncragg/synth-gpt-sub000/core/storage"

var (
	tracer = otel.Tracer(scopeName)
)
