package mesh

// Side holds the message ids one agent contributed to an interaction.
type Side struct {
	RequestMessageID  string `json:"request_message_id"`
	ResponseMessageID string `json:"response_message_id,omitempty"`
}

// AgentInteraction is one peer call from AgentA to AgentB. AgentA is nil until
// the caller's tool callback has observed the result.
type AgentInteraction struct {
	InteractionID string `json:"interaction_id"`
	AgentAID      string `json:"agent_a_id"`
	AgentBID      string `json:"agent_b_id"`
	Query         string `json:"query"`
	AgentA        *Side  `json:"agent_a_metadata,omitempty"`
	AgentB        Side   `json:"agent_b_metadata"`
}

// UserInteraction is one top-level query issued to the mesh. While the query
// is in flight the response fields are empty.
type UserInteraction struct {
	InteractionID     string `json:"interaction_id"`
	AgentID           string `json:"agent_id"`
	RequestMessageID  string `json:"request_message_id"`
	RequestContent    string `json:"request_content"`
	ResponseMessageID string `json:"response_message_id,omitempty"`
	ResponseContent   string `json:"response_content,omitempty"`
}

// Pending reports whether the interaction is still waiting for its response.
func (u UserInteraction) Pending() bool { return u.ResponseMessageID == "" }

// TraceKey is the key carrying the trace id in peer tool results.
const TraceKey = "__trace_id"

// PeerResult is what a talk_to_<agent> tool returns to the caller.
type PeerResult struct {
	Response string `json:"response"`
	TraceID  string `json:"__trace_id"`
}

// traceID extracts a trace id from a tool result. Only PeerResult values and
// string-keyed mappings carry one.
func traceID(result any) (string, bool) {
	switch r := result.(type) {
	case PeerResult:
		return r.TraceID, r.TraceID != ""
	case *PeerResult:
		if r == nil {
			return "", false
		}
		return r.TraceID, r.TraceID != ""
	case map[string]any:
		id, ok := r[TraceKey].(string)
		return id, ok && id != ""
	case map[string]string:
		id, ok := r[TraceKey]
		return id, ok && id != ""
	}
	return "", false
}
