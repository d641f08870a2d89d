package router

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

//go:embed knowledge.yaml
var defaultKnowledge []byte

// KnowledgeBase is the static input of the classifier.
type KnowledgeBase struct {
	Tickers    map[string]string `yaml:"tickers"`
	Vocabulary []string          `yaml:"vocabulary"`
}

func DefaultKnowledgeBase() KnowledgeBase {
	kb, err := ParseKnowledgeBase(defaultKnowledge)
	if err != nil {
		panic(fmt.Sprintf("router: embedded knowledge base: %v", err))
	}
	return kb
}

// LoadKnowledgeBase reads a YAML knowledge base, or returns the embedded one when path is empty.
func LoadKnowledgeBase(path string) (KnowledgeBase, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultKnowledgeBase(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return KnowledgeBase{}, fmt.Errorf("read knowledge base: %w", err)
	}
	return ParseKnowledgeBase(raw)
}

// ParseKnowledgeBase decodes raw YAML and normalizes company names to lower case
// and tickers to upper case.
func ParseKnowledgeBase(raw []byte) (KnowledgeBase, error) {
	var decoded KnowledgeBase
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return KnowledgeBase{}, fmt.Errorf("%w: decode knowledge base: %v", contractx.ErrValidation, err)
	}

	kb := KnowledgeBase{
		Tickers:    make(map[string]string, len(decoded.Tickers)),
		Vocabulary: make([]string, 0, len(decoded.Vocabulary)),
	}
	for company, ticker := range decoded.Tickers {
		company = strings.ToLower(strings.TrimSpace(company))
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if company == "" || ticker == "" {
			return KnowledgeBase{}, fmt.Errorf("%w: empty company or ticker in knowledge base", contractx.ErrValidation)
		}
		kb.Tickers[company] = ticker
	}
	for _, term := range decoded.Vocabulary {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			kb.Vocabulary = append(kb.Vocabulary, term)
		}
	}
	return kb, nil
}
