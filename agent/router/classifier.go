package router

import (
	"regexp"
	"slices"
	"strings"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/monitor"
)

const componentClassifier = "Classifier"

var tickerLike = regexp.MustCompile(wordStart + `[A-Z]{2,5}` + wordEnd)

// Classification is what the classifier extracts from one query.
type Classification struct {
	Companies []string `json:"companies"`
	Tickers   []string `json:"tickers"`
	IsFinance bool     `json:"is_finance"`
}

// Classifier is built once and is safe for concurrent use.
type Classifier struct {
	tickers    map[string]string
	companies  []termMatcher
	vocabulary []termMatcher
	corpus     Corpus
}

// NewClassifier extends kb with the company names and topics of the PDF documents
// found in corpusDir. Scan failures are reported to mon and leave kb unextended.
func NewClassifier(kb KnowledgeBase, corpusDir string, mon contractx.Monitor) *Classifier {
	mon = monitor.OrNop(mon)

	corpus, err := ScanCorpus(corpusDir)
	if err != nil {
		mon.LogError(componentClassifier, "error loading additional keywords", map[string]any{
			"corpus_dir": corpusDir,
			"error":      err.Error(),
		})
		corpus = Corpus{Dir: corpusDir}
	}

	companies := make([]string, 0, len(kb.Tickers)+len(corpus.Documents))
	for company := range kb.Tickers {
		companies = append(companies, company)
	}
	vocabulary := slices.Clone(kb.Vocabulary)
	for _, doc := range corpus.Documents {
		companies = append(companies, doc.Company())
		vocabulary = append(vocabulary, doc.Topic())
	}
	slices.Sort(companies)

	tickers := make(map[string]string, len(kb.Tickers))
	for company, ticker := range kb.Tickers {
		tickers[strings.ToLower(company)] = ticker
	}

	return &Classifier{
		tickers:    tickers,
		companies:  compileMatchers(companies),
		vocabulary: compileMatchers(vocabulary),
		corpus:     corpus,
	}
}

func (c *Classifier) Corpus() Corpus { return c.corpus }

// Vocabulary lists the finance terms in match order.
func (c *Classifier) Vocabulary() []string {
	out := make([]string, len(c.vocabulary))
	for i, m := range c.vocabulary {
		out[i] = m.term
	}
	return out
}

func (c *Classifier) Classify(query string) Classification {
	companies := c.ExtractCompanies(query)
	return Classification{
		Companies: companies,
		Tickers:   c.MapToTickers(companies),
		IsFinance: c.IsFinanceQuery(query),
	}
}

// ExtractCompanies returns the sorted set of known companies named in query.
func (c *Classifier) ExtractCompanies(query string) []string {
	if strings.TrimSpace(query) == "" {
		return []string{}
	}
	lower := strings.ToLower(query)
	found := make([]string, 0, 2)
	for _, m := range c.companies {
		if m.match(lower) {
			found = append(found, m.term)
		}
	}
	return contractx.SortedSet(found)
}

// MapToTickers returns the sorted set of tickers for companies. Unknown
// companies are skipped.
func (c *Classifier) MapToTickers(companies []string) []string {
	tickers := make([]string, 0, len(companies))
	for _, company := range companies {
		if ticker, ok := c.tickers[strings.ToLower(strings.TrimSpace(company))]; ok {
			tickers = append(tickers, ticker)
		}
	}
	return contractx.SortedSet(tickers)
}

// IsFinanceQuery reports a vocabulary hit, a ticker-like token in the raw query,
// or a known company name.
func (c *Classifier) IsFinanceQuery(query string) bool {
	if strings.TrimSpace(query) == "" {
		return false
	}
	lower := strings.ToLower(query)
	for _, m := range c.vocabulary {
		if m.match(lower) {
			return true
		}
	}
	if tickerLike.MatchString(query) {
		return true
	}
	for _, m := range c.companies {
		if m.match(lower) {
			return true
		}
	}
	return false
}
