package orchestration

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/simoncragg/synth-gpt-sub000/core/chats"
	"github.com/simoncragg/synth-gpt-sub000/core/interpreter"
)

// sandboxHarnessFrame marks traceback lines that belong to the sandbox's
// own entry point rather than the user's code.
const sandboxHarnessFrame = "/var/task/lambda_function.py"

func (t *assistantTurn) runActivity(ctx context.Context) error {
	switch t.message.Content.Type {
	case chats.ContentTypeCodingActivity:
		return t.runCodingActivity(ctx)
	case chats.ContentTypeWebActivity:
		return t.runWebActivity(ctx)
	default:
		return fmt.Errorf("unsupported activity type %q", t.message.Content.Type)
	}
}

// runCodingActivity executes the streamed code in the sandbox, folds the
// outcome into the activity, and appends both the finished activity message
// and the hidden function-result message the model resumes from. Execution
// failures are reported back to the model rather than aborting the turn.
func (t *assistantTurn) runCodingActivity(ctx context.Context) (err error) {
	activity, _ := t.message.Content.Value.(chats.CodingActivity)

	ctx, span := tracer.Start(ctx, "Run coding activity",
		trace.WithAttributes(attribute.Int("code.length", len(activity.Code))),
	)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to run coding activity")
		}
	}()

	summary := t.executeCode(ctx, activity.Code)

	activity.ExecutionSummary = &summary
	activity.CurrentState = chats.ActivityStateDone
	if err := t.foldActivity(chats.CodingActivityContent(activity)); err != nil {
		return err
	}
	t.message.Timestamp = t.orchestrator.now().UnixMilli()

	t.chat.Messages = append(t.chat.Messages, *t.message)
	t.postSegment(ctx, *t.message, false)

	t.appendFunctionResult(toolExecutePythonCode, functionResultText(summary))
	return nil
}

func (t *assistantTurn) executeCode(ctx context.Context, code string) chats.CodeExecutionSummary {
	o := t.orchestrator
	if o.interpreter == nil {
		return chats.CodeExecutionSummary{
			Success: false,
			Error:   "code execution is not available",
		}
	}

	response, err := o.interpreter.Execute(ctx, code)
	if err != nil {
		logger.Warn("Code execution failed", "error", err)
		return chats.CodeExecutionSummary{
			Success: false,
			Error:   fmt.Sprintf("code execution failed: %v", err),
		}
	}

	if !response.Success {
		return chats.CodeExecutionSummary{
			Success: false,
			Error:   formatTraceback(response.Error),
		}
	}

	return chats.CodeExecutionSummary{
		Success: true,
		Result:  "# Result\n" + t.resultValue(ctx, response.Result),
	}
}

// resultValue renders a successful execution result: plain values verbatim,
// file payloads stored and referenced by URL.
func (t *assistantTurn) resultValue(ctx context.Context, result *interpreter.ExecutionResult) string {
	if result == nil {
		return ""
	}
	if result.Type != interpreter.ResultTypeFile {
		return result.Value
	}

	o := t.orchestrator
	if o.fileStore == nil {
		return "(file output discarded: no file store configured)"
	}

	content, err := base64.StdEncoding.DecodeString(result.Base64EncodedContent)
	if err != nil {
		logger.Warn("Failed to decode file result", "error", err)
		return "(file output discarded: malformed payload)"
	}

	name := fmt.Sprintf("output-%d.%s", o.now().UnixMilli(), fileExtension(result.MimeType))
	fileURL, err := o.fileStore.Write(ctx, name, content)
	if err != nil {
		logger.Warn("Failed to store file result", "error", err)
		return "(file output discarded: storage failed)"
	}
	return fileURL
}

func fileExtension(mimeType string) string {
	if ext, ok := strings.CutPrefix(mimeType, "image/"); ok {
		return ext
	}
	return "txt"
}

func formatTraceback(execErr *interpreter.ExecutionError) string {
	if execErr == nil {
		return "execution failed"
	}

	output := "Traceback (most recent call last):\n"
	if len(execErr.StackTrace) > 0 {
		frames := make([]string, 0, len(execErr.StackTrace))
		for _, frame := range execErr.StackTrace {
			if strings.Contains(frame, sandboxHarnessFrame) {
				continue
			}
			frames = append(frames, frame)
		}
		output += strings.Join(frames, "\n")
	}
	return fmt.Sprintf("%s\n%s: %s\n", output, execErr.ErrorType, execErr.ErrorMessage)
}

func functionResultText(summary chats.CodeExecutionSummary) string {
	if summary.Success {
		return summary.Result
	}
	return summary.Error
}

func (t *assistantTurn) appendFunctionResult(name, result string) {
	t.chat.Messages = append(t.chat.Messages, chats.Message{
		ID:          uuid.NewString(),
		Role:        chats.RoleFunction,
		Attachments: []chats.Attachment{},
		Content: chats.FunctionResultContent(chats.FunctionResult{
			Name:   name,
			Result: result,
		}),
		Timestamp: t.orchestrator.now().UnixMilli(),
		Hidden:    true,
	})
}
