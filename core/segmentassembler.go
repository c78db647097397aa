package orchestration

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simoncragg/synth-gpt-sub000/core/chats"
	"github.com/simoncragg/synth-gpt-sub000/core/llms"
)

// messageSegment is one incremental slice of the assistant's reply, ready to
// be folded into the in-flight message and forwarded to the client.
type messageSegment struct {
	Message       chats.Message
	IsLastSegment bool
	// IsAuthoritative is false for provisional activity snapshots built
	// from partially-streamed tool arguments. Provisional snapshots may be
	// shown but must never be executed or persisted as-is.
	IsAuthoritative bool
}

// segmentAssembler folds raw completion deltas into message segments. Text
// deltas accumulate and flush on newline-bearing deltas; tool-call deltas
// surface as activity segments, provisionally while arguments stream and
// authoritatively on the terminal delta. All segments of one completion
// share a single message id.
type segmentAssembler struct {
	onSegment func(messageSegment) error
	now       func() time.Time

	messageID     string
	content       string
	callName      string
	callArguments string
	done          bool
}

func newSegmentAssembler(onSegment func(messageSegment) error, now func() time.Time) *segmentAssembler {
	return &segmentAssembler{
		onSegment: onSegment,
		now:       now,
		messageID: uuid.NewString(),
	}
}

func (a *segmentAssembler) ProcessDelta(delta llms.Delta) error {
	a.done = delta.FinishReason != nil

	if delta.Content != "" {
		a.content += delta.Content
		if !a.done && strings.Contains(delta.Content, "\n") {
			if err := a.flushText(); err != nil {
				return err
			}
		}
	} else if delta.FunctionCall != nil {
		if err := a.handleFunctionCallDelta(delta.FunctionCall); err != nil {
			return err
		}
	}

	if a.done {
		return a.flushTerminal()
	}
	return nil
}

func (a *segmentAssembler) handleFunctionCallDelta(call *llms.FunctionCallDelta) error {
	if a.callName == "" && call.Name != "" {
		a.callName = call.Name
		a.callArguments += call.Arguments
		// Announce the activity as soon as the tool is known, before any
		// arguments have arrived.
		if !a.done {
			return a.flushProvisionalActivity()
		}
		return nil
	}

	a.callArguments += call.Arguments

	// For code, every newline in the streamed arguments is a fresh line of
	// code worth showing; other tools have nothing presentable until the
	// arguments parse.
	if !a.done && a.callName == toolExecutePythonCode && strings.Contains(call.Arguments, `\n`) {
		return a.flushProvisionalActivity()
	}
	return nil
}

func (a *segmentAssembler) flushText() error {
	err := a.onSegment(messageSegment{
		Message:         a.buildMessage(chats.TextContent(a.content)),
		IsLastSegment:   a.done,
		IsAuthoritative: true,
	})
	a.content = ""
	return err
}

func (a *segmentAssembler) flushTerminal() error {
	if a.callName == "" {
		return a.flushText()
	}

	content, err := a.buildActivityContent(true)
	if err != nil {
		return err
	}
	err = a.onSegment(messageSegment{
		Message:         a.buildMessage(content),
		IsLastSegment:   true,
		IsAuthoritative: true,
	})
	a.callName = ""
	a.callArguments = ""
	return err
}

func (a *segmentAssembler) flushProvisionalActivity() error {
	content, err := a.buildActivityContent(false)
	if err != nil {
		return err
	}
	return a.onSegment(messageSegment{
		Message:         a.buildMessage(content),
		IsLastSegment:   false,
		IsAuthoritative: false,
	})
}

func (a *segmentAssembler) buildActivityContent(authoritative bool) (chats.Content, error) {
	switch a.callName {
	case toolPerformWebSearch:
		searchTerm := ""
		if authoritative {
			var args webSearchArgs
			if err := json.Unmarshal([]byte(a.callArguments), &args); err != nil {
				return chats.Content{}, fmt.Errorf("failed to parse web search arguments: %w", err)
			}
			searchTerm = args.SearchTerm
		}
		return chats.WebActivityContent(chats.WebActivity{
			SearchTerm:   searchTerm,
			CurrentState: chats.ActivityStateSearching,
			Actions:      []chats.WebAction{},
		}), nil

	case toolExecutePythonCode:
		var code string
		if authoritative {
			var args executeCodeArgs
			if err := json.Unmarshal([]byte(a.callArguments), &args); err != nil {
				return chats.Content{}, fmt.Errorf("failed to parse code execution arguments: %w", err)
			}
			code = args.Code
		} else {
			code = codeFromPartialArguments(a.callArguments)
		}
		return chats.CodingActivityContent(chats.CodingActivity{
			Code:         code,
			CurrentState: chats.ActivityStateWorking,
		}), nil

	default:
		return chats.Content{}, fmt.Errorf("model requested unknown tool %q", a.callName)
	}
}

func (a *segmentAssembler) buildMessage(content chats.Content) chats.Message {
	return chats.Message{
		ID:          a.messageID,
		Role:        chats.RoleAssistant,
		Attachments: []chats.Attachment{},
		Content:     content,
		Timestamp:   a.now().UnixMilli(),
	}
}

// codeFromPartialArguments extracts a best-effort code preview from a
// partially-streamed `{"code": "..."}` JSON fragment. The fragment is not
// valid JSON until the stream finishes, so the string body is unescaped
// leniently: recognized escapes are decoded and a trailing cut-off escape is
// dropped.
func codeFromPartialArguments(arguments string) string {
	_, body, found := strings.Cut(arguments, `"code"`)
	if !found {
		return ""
	}
	body = strings.TrimLeft(body, " \t\r\n")
	body = strings.TrimPrefix(body, ":")
	body = strings.TrimLeft(body, " \t\r\n")
	if !strings.HasPrefix(body, `"`) {
		return ""
	}
	body = body[1:]

	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '"' {
			break
		}
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		if i+1 >= len(body) {
			// Escape cut off by the chunk boundary.
			break
		}
		i++
		switch body[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		default:
			// Unrecognized or partial escape, keep it verbatim.
			out.WriteByte('\\')
			out.WriteByte(body[i])
		}
	}
	return out.String()
}
