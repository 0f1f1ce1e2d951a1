package contract

// Role tags one side of the conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// UserType distinguishes anonymous shoppers from signed-in ones.
type UserType string

const (
	UserGuest         UserType = "guest"
	UserAuthenticated UserType = "authenticated"
)

// ChatMessage is one role-tagged entry sent to the language model gateway.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions tunes a single gateway call. A negative Temperature or a
// non-positive MaxTokens means "use the configured default".
type GenerateOptions struct {
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Usage is the token accounting returned by the model backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Generation is the gateway's normalized output, whichever provider answered.
type Generation struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// IntentType is the closed classification vocabulary.
type IntentType string

const (
	IntentProductSearch   IntentType = "product_search"
	IntentProductDetails  IntentType = "product_details"
	IntentAddToCart       IntentType = "add_to_cart"
	IntentViewCart        IntentType = "view_cart"
	IntentCartManagement  IntentType = "cart_management"
	IntentGeneralQuestion IntentType = "general_question"
	IntentGreeting        IntentType = "greeting"
)

// KnownIntent reports whether t belongs to the closed vocabulary.
func KnownIntent(t IntentType) bool {
	switch t {
	case IntentProductSearch, IntentProductDetails, IntentAddToCart,
		IntentViewCart, IntentCartManagement, IntentGeneralQuestion,
		IntentGreeting:
		return true
	}
	return false
}

// Intent is the classifier's ephemeral guess at what the user wants this
// turn. It is never persisted.
type Intent struct {
	Type         IntentType     `json:"intent"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

// RequiresTools is derived, not independently settable: the turn needs
// capability calls iff the classifier suggested at least one.
func (i Intent) RequiresTools() bool {
	return len(i.Capabilities) > 0
}

// CallContext carries cross-cutting data into a capability call that is not
// part of the conversational parameters.
type CallContext struct {
	CustomerToken string
	CartID        string
}

// ParameterSpec declares one input of a capability.
type ParameterSpec struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// CapabilityInfo describes one named backend operation the registry exposes.
type CapabilityInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterSpec `json:"parameters,omitempty"`
}

// CapabilityResult is the outcome of one dispatched operation. It is folded
// into the next assistant message, never persisted directly.
type CapabilityResult struct {
	Name    string `json:"capability"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// TurnResult is what one processed turn hands back to the caller.
type TurnResult struct {
	Reply     string     `json:"response"`
	SessionID string     `json:"session_id"`
	UserType  UserType   `json:"user_type"`
	ToolsUsed []string   `json:"tools_used"`
	Intent    IntentType `json:"intent"`
	CartID    string     `json:"cart_id,omitempty"`
	Usage     Usage      `json:"usage"`
}
