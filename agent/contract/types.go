package contract

import "strings"

// DepartmentIntent names the department that should own a request. The
// sentinel IntentUnknown means no department is a confident match; it never
// has an agent bound to it and is filtered out before dispatch.
type DepartmentIntent string

const (
	IntentHR      DepartmentIntent = "hr"
	IntentTech    DepartmentIntent = "tech"
	IntentFinance DepartmentIntent = "finance"
	IntentUnknown DepartmentIntent = "unknown"
)

// KnownIntents returns the dispatchable departments, excluding IntentUnknown.
func KnownIntents() []DepartmentIntent {
	return []DepartmentIntent{IntentHR, IntentTech, IntentFinance}
}

// ParseDepartmentIntent maps a free-form department name (as emitted by a
// model) onto the enum. Unrecognized names resolve to IntentUnknown.
func ParseDepartmentIntent(raw string) DepartmentIntent {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hr", "human-resources", "human resources", "human_resources", "people":
		return IntentHR
	case "tech", "technical-support", "technical support", "technical_support", "it", "support":
		return IntentTech
	case "finance", "financial", "accounting", "billing":
		return IntentFinance
	default:
		return IntentUnknown
	}
}

func (d DepartmentIntent) IsUnknown() bool {
	return d == IntentUnknown || d == ""
}

// AgentName is the display name used when agent answers are quoted back to
// other agents as conversation history.
func (d DepartmentIntent) AgentName() string {
	return string(d) + "-agent"
}

// ClassificationResult is the classifier's verdict for one routed question.
// Intents is ordered, deduplicated, and holds 1-3 entries; when nothing
// matches it holds exactly [IntentUnknown].
type ClassificationResult struct {
	Intents    []DepartmentIntent `json:"intents"`
	Confidence float64            `json:"confidence"`
	Reasoning  string             `json:"reasoning"`
}

// Handoff asks the router to additionally engage another department.
type Handoff struct {
	Target  DepartmentIntent `json:"target"`
	Reason  string           `json:"reason,omitempty"`
	Context string           `json:"context,omitempty"`
}

// Note returns the directive text carried into the follow-up queue entry.
// Context takes precedence over Reason when both are present.
func (h *Handoff) Note() string {
	if h == nil {
		return ""
	}
	if ctx := strings.TrimSpace(h.Context); ctx != "" {
		return ctx
	}
	return strings.TrimSpace(h.Reason)
}

// AgentResult is one domain agent's grounded answer.
type AgentResult struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources,omitempty"`
	Handoff *Handoff `json:"handoff,omitempty"`
}

// AgentTurn records one completed agent invocation. Turns are appended to
// the transcript in dispatch order and never mutated afterwards.
type AgentTurn struct {
	Intent DepartmentIntent `json:"intent"`
	Result AgentResult      `json:"result"`
}

// RouteResult is the terminal artifact of one Route call. Unresolved lists
// intents that were still queued, unvisited, when the turn budget ran out.
type RouteResult struct {
	Classification ClassificationResult `json:"classification"`
	Turns          []AgentTurn          `json:"turns"`
	Unresolved     []DepartmentIntent   `json:"unresolved,omitempty"`
}

// Passage is a retrieved evidence snippet tied to a department's corpus.
type Passage struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
