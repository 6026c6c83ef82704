package runtime

// Role identifies the sender of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentPart is a single piece of structured message content. Most messages
// carry a single TextPart; multi-part content is used for tool-result blocks
// and multimodal input that a caller constructs directly.
type ContentPart struct {
	// Type discriminates the part ("text", "tool-result", "tool-error").
	Type string

	// Text holds the content for Type == "text".
	Text string

	// Value holds arbitrary structured content for non-text parts (e.g. a
	// tool result payload before it is stringified into message content).
	Value interface{}
}

// TextPart constructs a plain-text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// Message is one entry in a run's conversation log.
//
// Content is the canonical string form; Parts carries structured content
// when a caller needs more than plain text. Both MAY be populated; String()
// prefers Content when non-empty, else concatenates the text of Parts.
type Message struct {
	Role Role

	// Content is the string form of the message. For tool messages this is
	// the stringified tool result.
	Content string

	// Parts optionally carries structured content (multimodal input, or a
	// tool result prior to stringification).
	Parts []ContentPart

	// ToolCallID correlates a tool message with the call that produced it.
	ToolCallID string

	// Name is an optional identifier for the message sender (e.g. a tool
	// name, or a named participant in a multi-agent conversation).
	Name string
}

// String returns the message's textual content.
func (m Message) String() string {
	if m.Content != "" {
		return m.Content
	}
	var out string
	for _, p := range m.Parts {
		if p.Type == "text" {
			out += p.Text
		}
	}
	return out
}

// UserMessage constructs a user-role message from plain text.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// SystemMessage constructs a system-role message from plain text.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// AssistantMessage constructs an assistant-role message from plain text.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolMessage constructs a tool-result message correlated to toolCallID.
func ToolMessage(toolCallID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID, Name: name}
}
