package router

import (
	"fmt"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/monitor"
)

const componentSelector = "AgentSelector"

// AgentOrder is the order agents are requested in when all of them apply.
var AgentOrder = []contractx.AgentID{
	contractx.AgentFinance,
	contractx.AgentMarketData,
	contractx.AgentFilings,
	contractx.AgentSocialSentiment,
	contractx.AgentGeneral,
}

// Plan maps a classification outcome to the agents to run. It never returns an empty list.
func Plan(isFinance bool, tickers []string) []contractx.AgentID {
	switch {
	case !isFinance:
		return []contractx.AgentID{contractx.AgentGeneral}
	case len(tickers) > 0:
		return append([]contractx.AgentID(nil), AgentOrder...)
	default:
		return []contractx.AgentID{
			contractx.AgentFinance,
			contractx.AgentSocialSentiment,
			contractx.AgentGeneral,
		}
	}
}

type Selector struct {
	classifier *Classifier
	monitor    contractx.Monitor
}

func NewSelector(classifier *Classifier, mon contractx.Monitor) *Selector {
	return &Selector{classifier: classifier, monitor: monitor.OrNop(mon)}
}

// Select decides the agents for query. Any fault while evaluating the policy
// yields the general agent alone.
func (s *Selector) Select(query string, tickers []string) (agents []contractx.AgentID) {
	defer func() {
		if r := recover(); r != nil {
			s.monitor.LogError(componentSelector, "error determining agents", map[string]any{
				"panic": fmt.Sprint(r),
			})
			agents = []contractx.AgentID{contractx.AgentGeneral}
		}
	}()
	return Plan(s.classifier.IsFinanceQuery(query), tickers)
}
