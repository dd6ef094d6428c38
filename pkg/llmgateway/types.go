// Package llmgateway implements the LLM Gateway (C2): a single
// schema-constrained chat-completion operation with tool-call support,
// grounded on the teacher's pkg/agent LLMClient vocabulary (ConversationMessage,
// ToolDefinition, ToolCall, role constants) but adapted from the teacher's
// streaming gRPC-to-sidecar design to a synchronous HTTP call against an
// OpenAI-compatible chat-completions endpoint (see DESIGN.md).
package llmgateway

// Conversation message roles, kept identical to the teacher's
// pkg/agent.RoleSystem/RoleUser/RoleAssistant/RoleTool constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of the conversation sent to Complete.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // set on assistant messages that requested tool calls
	ToolCallID string     // set on tool-role reply messages
	ToolName   string     // set on tool-role reply messages
}

// ToolDefinition describes a callable tool offered to the model (§4.2).
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema string // JSON Schema, serialised
}

// ToolCall is the model's request to invoke one tool (§4.2).
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON, validated against the tool's ParametersSchema
}

// ToolChoice controls whether/which tool the model must call (§4.2).
type ToolChoice struct {
	Mode string // "auto", "required", or "named"
	Name string // set only when Mode == "named"
}

var (
	ToolChoiceAuto     = ToolChoice{Mode: "auto"}
	ToolChoiceRequired = ToolChoice{Mode: "required"}
)

// ToolChoiceNamed pins the model to a single, specific tool.
func ToolChoiceNamed(name string) ToolChoice {
	return ToolChoice{Mode: "named", Name: name}
}

// Options configures one Complete call (§4.2).
type Options struct {
	ResponseSchema   string // JSON Schema the response content must validate against; "" = unconstrained
	Tools            []ToolDefinition
	ToolChoice       ToolChoice
	Temperature      float64
	MaxSchemaRetries int // 0 = use Gateway default
}

// Response is the result of one Complete call (§4.2).
type Response struct {
	Content   string
	ToolCalls []ToolCall
}
