package prompt

import (
	_ "embed"
	"strings"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/hr.txt
	hrRaw string

	//go:embed template/tech.txt
	techRaw string

	//go:embed template/finance.txt
	financeRaw string
)

// PromptSet holds the loaded system prompts.
type PromptSet struct {
	Classifier string
	HR         string
	Tech       string
	Finance    string
}

// LoadPromptSet returns the embedded prompts, trimmed. Safe to call
// concurrently.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier: strings.TrimSpace(classifierRaw),
		HR:         strings.TrimSpace(hrRaw),
		Tech:       strings.TrimSpace(techRaw),
		Finance:    strings.TrimSpace(financeRaw),
	}
}

// For returns the department prompt for a dispatchable intent; the empty
// string for anything else.
func (p PromptSet) For(intent contractx.DepartmentIntent) string {
	switch intent {
	case contractx.IntentHR:
		return p.HR
	case contractx.IntentTech:
		return p.Tech
	case contractx.IntentFinance:
		return p.Finance
	default:
		return ""
	}
}
