// Package llm holds the chat-model configuration shared by the classifier
// and the domain agents, with optional per-role model overrides.
package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
	openrouterx "github.com/razaqfatiu/m3-multi-agent-system/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	ClassifierModel string `envconfig:"CLASSIFIER_MODEL" split_words:"true"`
	HRModel         string `envconfig:"HR_MODEL" split_words:"true"`
	TechModel       string `envconfig:"TECH_MODEL" split_words:"true"`
	FinanceModel    string `envconfig:"FINANCE_MODEL" split_words:"true"`

	ClassifierTemperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" split_words:"true" default:"-1"`
	AgentTemperature      float32 `envconfig:"AGENT_TEMPERATURE" split_words:"true" default:"-1"`

	RetrievalTopK int `envconfig:"RETRIEVAL_TOP_K" split_words:"true" default:"4"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterForClassifier resolves the model configuration for the intent
// classifier.
func (c Config) OpenRouterForClassifier() openrouterx.Config {
	return c.openRouter(c.ClassifierModel, c.ClassifierTemperature)
}

// OpenRouterFor resolves the model configuration for one department's
// agent, falling back to the default model when no override is set.
func (c Config) OpenRouterFor(intent contractx.DepartmentIntent) openrouterx.Config {
	override := ""
	switch intent {
	case contractx.IntentHR:
		override = c.HRModel
	case contractx.IntentTech:
		override = c.TechModel
	case contractx.IntentFinance:
		override = c.FinanceModel
	}
	return c.openRouter(override, c.AgentTemperature)
}

func (c Config) openRouter(modelOverride string, tempOverride float32) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	if v := strings.TrimSpace(modelOverride); v != "" {
		modelName = v
	}
	temp := c.Temperature
	if tempOverride >= 0 {
		temp = tempOverride
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
