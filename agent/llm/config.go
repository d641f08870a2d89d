package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	openrouterx "github.com/tanpawarit/bankerai/pkg/openrouter"
)

// Role names a consumer of a chat model.
type Role string

const (
	RoleGeneral    Role = "general"
	RoleFinance    Role = "finance"
	RoleImprover   Role = "improver"
	RoleSummarizer Role = "summarizer"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true" default:"BankerAI"`

	GeneralModel          string  `envconfig:"GENERAL_MODEL" split_words:"true"`
	FinanceModel          string  `envconfig:"FINANCE_MODEL" split_words:"true"`
	ImproverModel         string  `envconfig:"IMPROVER_MODEL" split_words:"true"`
	SummarizerModel       string  `envconfig:"SUMMARIZER_MODEL" split_words:"true"`
	GeneralTemperature    float32 `envconfig:"GENERAL_TEMPERATURE" split_words:"true" default:"0.2"`
	FinanceTemperature    float32 `envconfig:"FINANCE_TEMPERATURE" split_words:"true" default:"0.1"`
	ImproverTemperature   float32 `envconfig:"IMPROVER_TEMPERATURE" split_words:"true" default:"-1"`
	SummarizerTemperature float32 `envconfig:"SUMMARIZER_TEMPERATURE" split_words:"true" default:"-1"`
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

// OpenRouterFor resolves the model settings of role. Empty role models fall
// back to Model and negative role temperatures fall back to Temperature.
func (c Config) OpenRouterFor(role Role) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(model string, temperature float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if temperature >= 0 {
			temp = temperature
		}
	}

	switch role {
	case RoleGeneral:
		override(c.GeneralModel, c.GeneralTemperature)
	case RoleFinance:
		override(c.FinanceModel, c.FinanceTemperature)
	case RoleImprover:
		override(c.ImproverModel, c.ImproverTemperature)
	case RoleSummarizer:
		override(c.SummarizerModel, c.SummarizerTemperature)
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
