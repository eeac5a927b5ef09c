// Package gemini implements the AI query adapter against the Gemini
// generateContent endpoint. All responses cross a strict validation boundary:
// a malformed or shape-mismatched payload becomes domain.ErrUpstreamQuery,
// never a trusted field and never a parse panic.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"goldminer/internal/domain"
)

const defaultTimeout = 30 * time.Second

// KeyStore resolves the API key from persistent storage when the environment
// does not supply one.
type KeyStore interface {
	GeminiAPIKey(ctx context.Context) (string, error)
}

type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Keys       KeyStore
}

// Client talks to the Gemini API. A client without a resolvable key is still
// constructable; calls then fail with domain.ErrNotConfigured so the feature
// degrades instead of the process crashing.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	keys    KeyStore
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
		keys:    opts.Keys,
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	Tools            []tool            `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature      float64         `json:"temperature,omitempty"`
	CandidateCount   int             `json:"candidateCount,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content           content `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

const keywordSchema = `{
  "type": "ARRAY",
  "items": {
    "type": "OBJECT",
    "properties": {
      "keyword": {"type": "STRING"},
      "searchVolume": {"type": "NUMBER"},
      "documentCount": {"type": "NUMBER"},
      "goldScore": {"type": "NUMBER"},
      "trend": {"type": "STRING", "description": "up, down, or stable"},
      "category": {"type": "STRING"}
    },
    "required": ["keyword", "searchVolume", "documentCount", "goldScore", "trend", "category"]
  }
}`

const longTailSchema = `{
  "type": "ARRAY",
  "items": {
    "type": "OBJECT",
    "properties": {
      "phrase": {"type": "STRING"},
      "intent": {"type": "STRING", "description": "Transactional, Informational, Comparison"},
      "why": {"type": "STRING", "description": "Why this is a good keyword"}
    },
    "required": ["phrase", "intent", "why"]
  }
}`

type minedKeywordPayload struct {
	Keyword       string   `json:"keyword"`
	SearchVolume  *float64 `json:"searchVolume"`
	DocumentCount *float64 `json:"documentCount"`
	GoldScore     *float64 `json:"goldScore"`
	Trend         string   `json:"trend"`
	Category      string   `json:"category"`
	// Accepted but ignored: the ratio is derived locally, never trusted.
	CompetitionRatio *float64 `json:"competitionRatio"`
}

type longTailPayload struct {
	Phrase string `json:"phrase"`
	Intent string `json:"intent"`
	Why    string `json:"why"`
}

// MineKeywords asks the model for count related keywords around the seed and
// returns them in response order. The competition ratio is derived here, not
// trusted from the model.
func (c *Client) MineKeywords(ctx context.Context, seed string, count int, market string) ([]domain.KeywordRecord, error) {
	prompt := fmt.Sprintf(
		"Target Keyword: %q\n"+
			"Task: Generate %d related long-tail keywords that would be valuable for SEO/Marketing in the %s market.\n"+
			"For each keyword, provide estimated monthly search volume and document count (simulated but realistic for that market, e.g. Naver/Google).\n"+
			"Calculate a 'goldScore' from 0 to 100 where higher means better opportunity (high search, low competition).",
		seed, count, marketName(market))

	text, _, err := c.generate(ctx, prompt, &generationConfig{
		CandidateCount:   1,
		ResponseMimeType: "application/json",
		ResponseSchema:   json.RawMessage(keywordSchema),
	}, nil)
	if err != nil {
		return nil, err
	}

	var payload []minedKeywordPayload
	if err := decodeStrict(text, &payload); err != nil {
		return nil, err
	}

	titler := cases.Title(language.Und)
	records := make([]domain.KeywordRecord, 0, len(payload))
	for i, item := range payload {
		rec, err := item.toRecord(i, titler)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p minedKeywordPayload) toRecord(index int, titler cases.Caser) (domain.KeywordRecord, error) {
	var zero domain.KeywordRecord
	keyword := strings.TrimSpace(p.Keyword)
	if keyword == "" {
		return zero, fmt.Errorf("record %d: empty keyword: %w", index, domain.ErrUpstreamQuery)
	}
	if p.SearchVolume == nil || *p.SearchVolume <= 0 {
		return zero, fmt.Errorf("record %d: missing or non-positive searchVolume: %w", index, domain.ErrUpstreamQuery)
	}
	if p.DocumentCount == nil || *p.DocumentCount < 0 {
		return zero, fmt.Errorf("record %d: missing documentCount: %w", index, domain.ErrUpstreamQuery)
	}
	if p.GoldScore == nil || *p.GoldScore < 0 || *p.GoldScore > 100 {
		return zero, fmt.Errorf("record %d: goldScore out of range: %w", index, domain.ErrUpstreamQuery)
	}
	trend, ok := parseTrend(p.Trend)
	if !ok {
		return zero, fmt.Errorf("record %d: unknown trend %q: %w", index, p.Trend, domain.ErrUpstreamQuery)
	}
	volume := int64(*p.SearchVolume)
	docs := int64(*p.DocumentCount)
	return domain.KeywordRecord{
		ID:               "kw-" + uuid.NewString(),
		Keyword:          keyword,
		SearchVolume:     volume,
		DocumentCount:    docs,
		CompetitionRatio: round2(float64(docs) / float64(volume)),
		GoldScore:        *p.GoldScore,
		Trend:            trend,
		Category:         titler.String(strings.TrimSpace(p.Category)),
	}, nil
}

// ExpandLongTail asks for ten purchase- or urgency-oriented variants of the
// base keyword.
func (c *Client) ExpandLongTail(ctx context.Context, keyword string) ([]domain.LongTailPhrase, error) {
	prompt := fmt.Sprintf(
		"Base Keyword: %q\n"+
			"Generate 10 highly profitable long-tail keywords (3-5 words) starting with or including this base.\n"+
			"Focus on phrases used by people ready to buy or seeking urgent information.\n"+
			"Categories: 'Transactional', 'Informational', 'Comparison'.",
		keyword)

	text, _, err := c.generate(ctx, prompt, &generationConfig{
		CandidateCount:   1,
		ResponseMimeType: "application/json",
		ResponseSchema:   json.RawMessage(longTailSchema),
	}, nil)
	if err != nil {
		return nil, err
	}

	var payload []longTailPayload
	if err := decodeStrict(text, &payload); err != nil {
		return nil, err
	}

	phrases := make([]domain.LongTailPhrase, 0, len(payload))
	for i, item := range payload {
		phrase := strings.TrimSpace(item.Phrase)
		if phrase == "" {
			return nil, fmt.Errorf("phrase %d: empty: %w", i, domain.ErrUpstreamQuery)
		}
		intent, ok := parseIntent(item.Intent)
		if !ok {
			return nil, fmt.Errorf("phrase %d: unknown intent %q: %w", i, item.Intent, domain.ErrUpstreamQuery)
		}
		phrases = append(phrases, domain.LongTailPhrase{
			Phrase: phrase,
			Intent: intent,
			Why:    strings.TrimSpace(item.Why),
		})
	}
	return phrases, nil
}

// SearchInsights runs a search-grounded intent and competitiveness summary
// for the keyword.
func (c *Client) SearchInsights(ctx context.Context, keyword, market string) (*domain.SearchInsight, error) {
	prompt := fmt.Sprintf(
		"Analyze the current search intent and market competitiveness for the keyword: %q in the %s market. Provide a summary.",
		keyword, marketName(market))

	text, resp, err := c.generate(ctx, prompt, nil, []tool{{GoogleSearch: &struct{}{}}})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty insight summary: %w", domain.ErrUpstreamQuery)
	}

	insight := &domain.SearchInsight{Summary: text}
	for _, cand := range resp.Candidates {
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web.URI == "" {
				continue
			}
			insight.Sources = append(insight.Sources, domain.InsightSource{
				Title: chunk.Web.Title,
				URI:   chunk.Web.URI,
			})
		}
	}
	return insight, nil
}

func (c *Client) generate(ctx context.Context, prompt string, cfg *generationConfig, tools []tool) (string, *generateResponse, error) {
	key, err := c.resolveKey(ctx)
	if err != nil {
		return "", nil, err
	}

	payload := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
		GenerationConfig: cfg,
		Tools:            tools,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", key)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", nil, fmt.Errorf("gemini request: %v: %w", err, domain.ErrUpstreamQuery)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("gemini status %d: %w", resp.StatusCode, domain.ErrUpstreamQuery)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil, fmt.Errorf("decode envelope: %v: %w", err, domain.ErrUpstreamQuery)
	}
	text := extractText(out)
	if text == "" {
		return "", nil, fmt.Errorf("no candidate text: %w", domain.ErrUpstreamQuery)
	}
	return text, &out, nil
}

func (c *Client) resolveKey(ctx context.Context) (string, error) {
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	if c.keys != nil {
		key, err := c.keys.GeminiAPIKey(ctx)
		if err != nil {
			return "", fmt.Errorf("load stored api key: %w", err)
		}
		if key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("gemini api key missing: %w", domain.ErrNotConfigured)
}

func extractText(resp generateResponse) string {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if strings.TrimSpace(p.Text) != "" {
				return p.Text
			}
		}
	}
	return ""
}

// decodeStrict unwraps optional code fences and decodes into v, rejecting
// unknown fields and trailing garbage.
func decodeStrict(raw string, v any) error {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return fmt.Errorf("empty payload: %w", domain.ErrUpstreamQuery)
	}
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, domain.ErrUpstreamQuery)
	}
	return nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func parseTrend(raw string) (domain.Trend, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up":
		return domain.TrendUp, true
	case "down":
		return domain.TrendDown, true
	case "stable":
		return domain.TrendStable, true
	}
	return "", false
}

func parseIntent(raw string) (domain.Intent, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "transactional":
		return domain.IntentTransactional, true
	case "informational":
		return domain.IntentInformational, true
	case "comparison":
		return domain.IntentComparison, true
	}
	return "", false
}

func marketName(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "kr", "":
		return "Korean"
	case "jp":
		return "Japanese"
	case "us":
		return "US"
	case "id":
		return "Indonesian"
	default:
		return strings.ToUpper(code)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
