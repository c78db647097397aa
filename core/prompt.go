package orchestration

import (
	"strings"
	"time"

	"github.com/simoncragg/synth-gpt-sub000/core/chats"
	"github.com/simoncragg/synth-gpt-sub000/core/llms"
)

func systemPrompt(now time.Time) string {
	return "Your name is Synth. " +
		"When providing code snippets, always include the language e.g. \"```python\".\n\n" +
		"The current date is " + now.Format("Mon Jan 02 2006") + "."
}

// toCompletionMessages renders the conversation for the model: a fixed
// system preamble, then every non-activity message. Activity messages are
// client-side progress markers; the model learns tool outcomes from the
// function-result messages instead.
func toCompletionMessages(chat *chats.Chat, now time.Time) []llms.Message {
	messages := []llms.Message{{
		Role:    llms.MessageRoleSystem,
		Content: systemPrompt(now),
	}}

	for _, message := range chat.Messages {
		if message.Content.IsActivity() {
			continue
		}
		if message.Role == chats.RoleFunction {
			messages = append(messages, toFunctionMessage(message))
			continue
		}
		messages = append(messages, llms.Message{
			Role:    llms.MessageRole(message.Role),
			Content: toMarkdown(message),
		})
	}

	return messages
}

func toFunctionMessage(message chats.Message) llms.Message {
	result, _ := message.Content.Value.(chats.FunctionResult)
	return llms.Message{
		Role:    llms.MessageRoleFunction,
		Name:    result.Name,
		Content: result.Result,
	}
}

func toMarkdown(message chats.Message) string {
	var parts strings.Builder
	parts.WriteString(message.Content.Text())
	parts.WriteString("\n\n")
	for _, attachment := range message.Attachments {
		parts.WriteString(attachmentToMarkdown(attachment))
	}
	return parts.String()
}

func attachmentToMarkdown(attachment chats.Attachment) string {
	switch attachment.Type {
	case chats.AttachmentTypeCodeSnippet:
		return "```" + attachment.Language + "\n" + attachment.Content + "\n```\n\n"
	default:
		return "```" + attachment.Name + "\n" + attachment.Content + "\n```\n\n"
	}
}
