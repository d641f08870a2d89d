package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

const (
	bullishThreshold = 0.15
	maxTopPosts      = 5
)

var (
	positiveWords = map[string]struct{}{
		"bullish": {}, "buy": {}, "buying": {}, "growth": {}, "beat": {}, "beats": {}, "strong": {},
		"up": {}, "gain": {}, "gains": {}, "moon": {}, "profit": {}, "profitable": {}, "rally": {},
		"upgrade": {}, "outperform": {}, "record": {}, "surge": {}, "calls": {},
	}
	negativeWords = map[string]struct{}{
		"bearish": {}, "sell": {}, "selling": {}, "drop": {}, "miss": {}, "missed": {}, "weak": {},
		"down": {}, "loss": {}, "losses": {}, "crash": {}, "lawsuit": {}, "downgrade": {},
		"underperform": {}, "layoffs": {}, "plunge": {}, "puts": {}, "overvalued": {},
	}
	wordPattern = regexp.MustCompile(`[a-z']+`)
)

type Post struct {
	Title     string  `json:"title"`
	Subreddit string  `json:"subreddit"`
	Score     int     `json:"score"`
	Sentiment float64 `json:"sentiment"`
	URL       string  `json:"url,omitempty"`
}

type SentimentReport struct {
	Query         string  `json:"query"`
	PostsAnalyzed int     `json:"posts_analyzed"`
	AverageScore  float64 `json:"average_score"`
	Label         string  `json:"label"`
	Positive      int     `json:"positive_posts"`
	Negative      int     `json:"negative_posts"`
	Neutral       int     `json:"neutral_posts"`
	TopPosts      []Post  `json:"top_posts"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				Selftext  string `json:"selftext"`
				Score     int    `json:"score"`
				Subreddit string `json:"subreddit"`
				Permalink string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// SocialSentiment scores recent posts from a Reddit-compatible search API.
type SocialSentiment struct {
	baseURL   string
	userAgent string
	limit     int
	client    *http.Client
	now       func() time.Time
}

func NewSocialSentiment(baseURL, userAgent string, limit int, client *http.Client) (*SocialSentiment, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: sentiment url: %v", contractx.ErrValidation, err)
	}
	if limit <= 0 {
		limit = 25
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SocialSentiment{baseURL: baseURL, userAgent: userAgent, limit: limit, client: client, now: time.Now}, nil
}

func (s *SocialSentiment) ID() contractx.AgentID { return contractx.AgentSocialSentiment }

func (s *SocialSentiment) Invoke(ctx context.Context, req contractx.Request) (*contractx.Response, error) {
	q := searchTerms(req.Context)
	posts, err := s.search(ctx, q)
	if err != nil {
		return nil, err
	}

	report := scorePosts(q, posts)
	completed := s.now()
	return respond(req, contractx.AgentSocialSentiment.ResultKey(), report, contractx.StatusSuccess, map[string]any{
		"last_sentiment_query": completed.Format(time.RFC3339),
	}, completed), nil
}

// searchTerms prefers tickers, then companies, then the raw query.
func searchTerms(rc contractx.RequestContext) string {
	switch {
	case len(rc.Tickers) > 0:
		return strings.Join(rc.Tickers, " OR ")
	case len(rc.Companies) > 0:
		return strings.Join(rc.Companies, " OR ")
	default:
		return strings.TrimSpace(rc.Query)
	}
}

type rawPost struct {
	title, body, subreddit, permalink string
	score                             int
}

func (s *SocialSentiment) search(ctx context.Context, q string) ([]rawPost, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("sort", "new")
	params.Set("t", "week")
	params.Set("limit", strconv.Itoa(s.limit))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build sentiment request: %w", err)
	}
	if s.userAgent != "" {
		httpReq.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute sentiment request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read sentiment response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sentiment http status=%d", resp.StatusCode)
	}

	var parsed listing
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode sentiment listing: %w", err)
	}
	posts := make([]rawPost, 0, len(parsed.Data.Children))
	for _, child := range parsed.Data.Children {
		d := child.Data
		posts = append(posts, rawPost{
			title:     d.Title,
			body:      d.Selftext,
			subreddit: d.Subreddit,
			permalink: d.Permalink,
			score:     d.Score,
		})
	}
	return posts, nil
}

// scorePosts gives each post a polarity in [-1, 1] from word counts and
// labels the average.
func scorePosts(q string, posts []rawPost) SentimentReport {
	report := SentimentReport{Query: q, Label: "neutral", TopPosts: []Post{}}
	if len(posts) == 0 {
		return report
	}

	var total float64
	for _, p := range posts {
		score := polarity(p.title + " " + p.body)
		total += score
		switch {
		case score > 0:
			report.Positive++
		case score < 0:
			report.Negative++
		default:
			report.Neutral++
		}
		if len(report.TopPosts) < maxTopPosts {
			post := Post{Title: p.title, Subreddit: p.subreddit, Score: p.score, Sentiment: score}
			if p.permalink != "" {
				post.URL = "https://www.reddit.com" + p.permalink
			}
			report.TopPosts = append(report.TopPosts, post)
		}
	}

	report.PostsAnalyzed = len(posts)
	report.AverageScore = total / float64(len(posts))
	switch {
	case report.AverageScore > bullishThreshold:
		report.Label = "bullish"
	case report.AverageScore < -bullishThreshold:
		report.Label = "bearish"
	}
	return report
}

func polarity(text string) float64 {
	var pos, neg int
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}
