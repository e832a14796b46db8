package llm

// Role constants for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
	RoleModel     = "model" // Gemini Specific
)

// StopReason constants define normalized reasons for LLM generation termination.
// All providers must normalize their native stop reasons to these values.
const (
	StopReasonStop    = "stop"     // Normal completion
	StopReasonLength  = "length"   // Output truncated due to token limit
	StopReasonToolUse = "tool_use" // Model requested one or more tool calls
)
