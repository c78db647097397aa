// Package chats holds the persistent conversation model: chats, messages and
// the tagged content union exchanged with clients and the store.
package chats

// NewChatTitle is the provisional title given to a chat before the first
// turn completes.
const NewChatTitle = "New chat"

// Chat is one conversation. Messages are append-only during a turn and the
// whole chat is persisted atomically once per turn.
type Chat struct {
	ID          string    `json:"chatId"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	CreatedTime int64     `json:"createdTime"`
	UpdatedTime int64     `json:"updatedTime"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// Message is a single conversation entry. During a turn exactly one
// assistant message is in flight; it is mutated in place as segments arrive
// and becomes immutable once the terminal segment is received.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Attachments []Attachment `json:"attachments"`
	Content     Content      `json:"content"`
	Timestamp   int64        `json:"timestamp"`

	// Hidden marks internal scaffolding (function-result messages) that is
	// fed back to the model but never shown in the client transcript.
	// Marked at creation so transcript filtering never has to sniff
	// message content.
	Hidden bool `json:"hidden,omitempty"`
}

// Attachment is user-supplied context attached to a message.
type Attachment struct {
	ID   string         `json:"id"`
	Type AttachmentType `json:"type"`
	Name string         `json:"name,omitempty"`
	// Language is set for code snippet attachments.
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
}

type AttachmentType string

const (
	AttachmentTypeFile        AttachmentType = "file"
	AttachmentTypeCodeSnippet AttachmentType = "codeSnippet"
)
