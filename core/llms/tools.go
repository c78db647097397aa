package llms

import "github.com/invopop/jsonschema"

// Tool describes a function the model may invoke mid-turn.
type Tool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// SchemaFor reflects a JSON schema for a tool's argument struct. Schemas are
// inlined rather than referenced so providers receive a self-contained
// parameter object.
func SchemaFor[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	var args T
	return reflector.Reflect(&args)
}
