package types

// MessageRole identifies who produced a Message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message is one turn of a conversation: a role plus one or more content
// parts (a turn can mix text, images, and tool results in a single message).
type Message struct {
	Role    MessageRole   `json:"role"`
	Content []ContentPart `json:"content"`
	Name    string        `json:"name,omitempty"`
}

// ContentPart is one block within a Message's Content slice. Concrete
// implementations below (TextContent, ImageContent, ...) each report their
// own kind via ContentType so a consumer can type-switch without reflection.
type ContentPart interface {
	ContentType() string
}

type TextContent struct {
	Text string `json:"text"`
}

func (t TextContent) ContentType() string { return "text" }

// ReasoningContent carries a model's exposed chain-of-thought, for providers
// that surface it (e.g. extended-thinking or reasoning-token responses).
type ReasoningContent struct {
	Text string `json:"text"`
}

func (r ReasoningContent) ContentType() string { return "reasoning" }

type ImageContent struct {
	Image    []byte `json:"image"`
	MimeType string `json:"mimeType"`
	// URL is set instead of Image when the content references a remotely
	// hosted image rather than embedding bytes.
	URL string `json:"url,omitempty"`
}

func (i ImageContent) ContentType() string { return "image" }

type FileContent struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename,omitempty"`
}

func (f FileContent) ContentType() string { return "file" }

// ToolResultContent reports the outcome of one tool call back to the model.
// Output, when set, takes precedence over the legacy Result field.
type ToolResultContent struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`

	// Result is the plain-value form kept for callers not yet using Output.
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`

	// Output carries structured, possibly multi-block content; prefer it
	// over Result for new tool implementations.
	Output *ToolResultOutput `json:"output,omitempty"`
}

func (t ToolResultContent) ContentType() string { return "tool-result" }

type ToolResultOutputType string

const (
	ToolResultOutputText    ToolResultOutputType = "text"
	ToolResultOutputJSON    ToolResultOutputType = "json"
	ToolResultOutputContent ToolResultOutputType = "content"
	ToolResultOutputError   ToolResultOutputType = "error"
)

// ToolResultOutput is the structured form of a tool result: Value holds a
// scalar (text/json/error types), Content holds a block sequence (content
// type), never both.
type ToolResultOutput struct {
	Type    ToolResultOutputType     `json:"type"`
	Value   interface{}              `json:"value,omitempty"`
	Content []ToolResultContentBlock `json:"content,omitempty"`
}

// ToolResultContentBlock is one block of a structured tool result.
type ToolResultContentBlock interface {
	ToolResultContentType() string
}

type TextContentBlock struct {
	Text            string                 `json:"text"`
	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

func (t TextContentBlock) ToolResultContentType() string { return "text" }

type ImageContentBlock struct {
	Data            []byte                 `json:"data"`
	MediaType       string                 `json:"mediaType"`
	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

func (i ImageContentBlock) ToolResultContentType() string { return "image" }

type FileContentBlock struct {
	Data            []byte                 `json:"data"`
	MediaType       string                 `json:"mediaType"`
	Filename        string                 `json:"filename,omitempty"`
	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

func (f FileContentBlock) ToolResultContentType() string { return "file" }

// CustomContentBlock carries a provider-specific block that doesn't fit the
// standard text/image/file shapes, e.g. Anthropic's tool-reference blocks.
// ProviderOptions is expected to be keyed by provider name, e.g.
// map[string]interface{}{"anthropic": map[string]interface{}{"type": "tool-reference"}}.
type CustomContentBlock struct {
	ProviderOptions map[string]interface{} `json:"providerOptions"`
}

func (c CustomContentBlock) ToolResultContentType() string { return "custom" }

// Prompt is either a flat Text string or a Messages conversation, never
// both; IsSimple/IsMessages tell a provider which form it received.
type Prompt struct {
	Messages []Message
	System   string
	Text     string
}

func (p Prompt) IsSimple() bool   { return p.Text != "" && len(p.Messages) == 0 }
func (p Prompt) IsMessages() bool { return len(p.Messages) > 0 }

// SimpleTextResult builds a ToolResultContent carrying a plain string via
// the legacy Result field.
func SimpleTextResult(toolCallID, toolName, result string) ToolResultContent {
	return ToolResultContent{ToolCallID: toolCallID, ToolName: toolName, Result: result}
}

// SimpleJSONResult builds a ToolResultContent carrying an arbitrary JSON-able
// value via the legacy Result field.
func SimpleJSONResult(toolCallID, toolName string, result interface{}) ToolResultContent {
	return ToolResultContent{ToolCallID: toolCallID, ToolName: toolName, Result: result}
}

// ContentResult builds a ToolResultContent from structured content blocks,
// the preferred shape for tool results with more than plain text.
func ContentResult(toolCallID, toolName string, blocks ...ToolResultContentBlock) ToolResultContent {
	return ToolResultContent{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Output:     &ToolResultOutput{Type: ToolResultOutputContent, Content: blocks},
	}
}

// ErrorResult builds a ToolResultContent reporting a failed tool call.
func ErrorResult(toolCallID, toolName, errorMsg string) ToolResultContent {
	return ToolResultContent{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Error:      errorMsg,
		Output:     &ToolResultOutput{Type: ToolResultOutputError, Value: errorMsg},
	}
}
