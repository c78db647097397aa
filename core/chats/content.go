package chats

import (
	"encoding/json"
	"fmt"
)

type ContentType string

const (
	ContentTypeText           ContentType = "text"
	ContentTypeCodingActivity ContentType = "codingActivity"
	ContentTypeWebActivity    ContentType = "webActivity"
	ContentTypeFunctionResult ContentType = "functionResult"
)

// Content is the tagged union carried by a message: prose text, one of the
// two activity types, or a tool result.
type Content struct {
	Type  ContentType
	Value any
}

func TextContent(value string) Content {
	return Content{Type: ContentTypeText, Value: value}
}

func CodingActivityContent(value CodingActivity) Content {
	return Content{Type: ContentTypeCodingActivity, Value: value}
}

func WebActivityContent(value WebActivity) Content {
	return Content{Type: ContentTypeWebActivity, Value: value}
}

func FunctionResultContent(value FunctionResult) Content {
	return Content{Type: ContentTypeFunctionResult, Value: value}
}

// Text returns the prose value, or "" for non-text content.
func (c Content) Text() string {
	if c.Type != ContentTypeText {
		return ""
	}
	text, _ := c.Value.(string)
	return text
}

// IsActivity reports whether the content is a coding or web activity.
func (c Content) IsActivity() bool {
	return c.Type == ContentTypeCodingActivity || c.Type == ContentTypeWebActivity
}

func (c Content) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  ContentType `json:"type"`
		Value any         `json:"value"`
	}{Type: c.Type, Value: c.Value})
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Type  ContentType     `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal content envelope: %w", err)
	}

	c.Type = envelope.Type
	switch envelope.Type {
	case ContentTypeText:
		var value string
		if err := json.Unmarshal(envelope.Value, &value); err != nil {
			return fmt.Errorf("failed to unmarshal text content: %w", err)
		}
		c.Value = value
	case ContentTypeCodingActivity:
		var value CodingActivity
		if err := json.Unmarshal(envelope.Value, &value); err != nil {
			return fmt.Errorf("failed to unmarshal coding activity: %w", err)
		}
		c.Value = value
	case ContentTypeWebActivity:
		var value WebActivity
		if err := json.Unmarshal(envelope.Value, &value); err != nil {
			return fmt.Errorf("failed to unmarshal web activity: %w", err)
		}
		c.Value = value
	case ContentTypeFunctionResult:
		var value FunctionResult
		if err := json.Unmarshal(envelope.Value, &value); err != nil {
			return fmt.Errorf("failed to unmarshal function result: %w", err)
		}
		c.Value = value
	default:
		return fmt.Errorf("unknown content type %q", envelope.Type)
	}
	return nil
}

// ActivityState is the lifecycle state of an activity. States only ever move
// forward within one activity's lifetime.
type ActivityState string

const (
	ActivityStateWorking ActivityState = "working"
	ActivityStateDone    ActivityState = "done"

	ActivityStateSearching      ActivityState = "searching"
	ActivityStateReadingResults ActivityState = "readingResults"
	ActivityStateFinished       ActivityState = "finished"
)

var activityStateRanks = map[ActivityState]int{
	ActivityStateWorking: 0,
	ActivityStateDone:    1,

	ActivityStateSearching:      0,
	ActivityStateReadingResults: 1,
	ActivityStateFinished:       2,
}

// Rank orders states within one activity's lifecycle. Updates that would
// lower the rank are state regressions and must be rejected.
func (s ActivityState) Rank() int {
	return activityStateRanks[s]
}

// CodingActivity tracks a code-execution tool invocation.
type CodingActivity struct {
	Code             string                `json:"code"`
	ExecutionSummary *CodeExecutionSummary `json:"executionSummary,omitempty"`
	CurrentState     ActivityState         `json:"currentState"`
}

// CodeExecutionSummary is the outcome of one sandbox run, formatted for
// display and for the model.
type CodeExecutionSummary struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WebActivity tracks a web-search tool invocation.
type WebActivity struct {
	SearchTerm   string        `json:"searchTerm"`
	CurrentState ActivityState `json:"currentState"`
	Actions      []WebAction   `json:"actions"`
}

type WebActionType string

const (
	WebActionTypeSearching      WebActionType = "searching"
	WebActionTypeReadingResults WebActionType = "readingResults"
)

// WebAction is one step taken during a web activity.
type WebAction struct {
	Type       WebActionType     `json:"type"`
	SearchTerm string            `json:"searchTerm,omitempty"`
	Results    []WebSearchResult `json:"results,omitempty"`
}

// WebSearchResult is the narrow projection of a provider result that is safe
// to show to the model and the client.
type WebSearchResult struct {
	Name             string `json:"name"`
	URL              string `json:"url"`
	IsFamilyFriendly bool   `json:"isFamilyFriendly"`
	Snippet          string `json:"snippet"`
}

// FunctionResult carries a serialized tool outcome back to the model.
type FunctionResult struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}
