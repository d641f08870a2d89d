package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

var (
	//go:embed template/improve.txt
	improveRaw string

	//go:embed template/summary.txt
	summaryRaw string

	//go:embed template/finance.txt
	financeRaw string

	//go:embed template/general.txt
	generalRaw string

	//go:embed template/general_finance.txt
	generalFinanceRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Improve        string
	Summary        string
	Finance        string
	General        string
	GeneralFinance string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Improve:        strings.TrimSpace(improveRaw),
		Summary:        strings.TrimSpace(summaryRaw),
		Finance:        strings.TrimSpace(financeRaw),
		General:        strings.TrimSpace(generalRaw),
		GeneralFinance: strings.TrimSpace(generalFinanceRaw),
	}
}

// Require returns ErrPromptMissing when p is blank.
func Require(name, p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("%w: %s", contractx.ErrPromptMissing, name)
	}
	return nil
}
