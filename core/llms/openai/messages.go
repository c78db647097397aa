package openai

import (
	"github.com/invopop/jsonschema"

	"github.com/simoncragg/synth-gpt-sub000/core/llms"
)

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleFunction  messageRole = "function"
)

type message struct {
	Role    messageRole `json:"role"`
	Name    string      `json:"name,omitempty"`
	Content string      `json:"content"`
}

type functionDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

func toMessages(messages []llms.Message) []message {
	wire := make([]message, 0, len(messages))
	for _, m := range messages {
		wire = append(wire, message{
			Role:    messageRole(m.Role),
			Name:    m.Name,
			Content: m.Content,
		})
	}
	return wire
}

func toFunctionDefinitions(tools []llms.Tool) []functionDefinition {
	if len(tools) == 0 {
		return nil
	}
	definitions := make([]functionDefinition, 0, len(tools))
	for _, tool := range tools {
		definitions = append(definitions, functionDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return definitions
}
