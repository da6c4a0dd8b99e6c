package models

const DefaultHistorySize = 12

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is a sliding window over the most recent messages of one
// session. Oldest messages are dropped first once Cap is exceeded.
type Conversation struct {
	Cap      int       `json:"cap"`
	Messages []Message `json:"messages"`
}

func NewConversation(capacity int) *Conversation {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &Conversation{Cap: capacity, Messages: make([]Message, 0, capacity)}
}

func (c *Conversation) Append(role Role, content string) {
	c.Messages = append(c.Messages, Message{Role: role, Content: content})
	c.Truncate()
}

func (c *Conversation) Truncate() {
	if c.Cap <= 0 || len(c.Messages) <= c.Cap {
		return
	}
	kept := make([]Message, c.Cap)
	copy(kept, c.Messages[len(c.Messages)-c.Cap:])
	c.Messages = kept
}

func (c *Conversation) Len() int {
	return len(c.Messages)
}

// LastUserMessage returns the content of the newest user entry in messages.
func LastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
