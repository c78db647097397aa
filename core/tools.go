package orchestration

import (
	"strings"

	"github.com/simoncragg/synth-gpt-sub000/core/llms"
)

const (
	toolPerformWebSearch  = "perform_web_search"
	toolExecutePythonCode = "execute_python_code"
)

type webSearchArgs struct {
	SearchTerm string `json:"search_term"`
}

type executeCodeArgs struct {
	Code string `json:"code"`
}

func assistantTools() []llms.Tool {
	return []llms.Tool{
		{
			Name:        toolPerformWebSearch,
			Description: "Performs a web search with the given a search term",
			Parameters:  llms.SchemaFor[webSearchArgs](),
		},
		{
			Name: toolExecutePythonCode,
			Description: strings.Join([]string{
				"Executes the provided Python code and returns the result.",
				"Use Case: Solving math problems",
				"Code Requirements: The last line must set the 'result' variable, e.g. 'result = 42'",
			}, "\n"),
			Parameters: llms.SchemaFor[executeCodeArgs](),
		},
	}
}
