package core

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn is a single message in a conversation. The first turn of every
// session is the system prompt; all later turns alternate between user
// and assistant in submission order.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatParameters is the completion configuration resolved once at startup.
// Defaults are applied when the config file is loaded; downstream code never
// special-cases missing fields.
type ChatParameters struct {
	Deployment       string   `json:"deploymentName"`
	MaxResponseLen   int      `json:"maxResponseLength"`
	Temperature      float32  `json:"temperature"`
	TopProbability   float32  `json:"topProbablities"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	FrequencyPenalty float32  `json:"frequencyPenalty"`
	PresencePenalty  float32  `json:"presencePenalty"`
}
