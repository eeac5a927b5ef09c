package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"goldminer/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func clientWithResponse(t *testing.T, status int, body string) *Client {
	t.Helper()
	return NewClient(Options{
		APIKey: "test-key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
				t.Fatalf("x-goog-api-key = %q, want test-key", got)
			}
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     http.Header{"Content-Type": []string{"application/json"}},
			}, nil
		})},
	})
}

func envelope(text string) string {
	quoted := strings.ReplaceAll(text, `"`, `\"`)
	quoted = strings.ReplaceAll(quoted, "\n", `\n`)
	return `{"candidates":[{"content":{"role":"model","parts":[{"text":"` + quoted + `"}]}}]}`
}

func TestMineKeywordsParsesAndDerivesRatio(t *testing.T) {
	payload := `[{"keyword":"카페 창업 비용","searchVolume":12000,"documentCount":3000,"goldScore":87,"trend":"up","category":"business"}]`
	c := clientWithResponse(t, http.StatusOK, envelope(payload))

	records, err := c.MineKeywords(context.Background(), "카페", 5, "kr")
	if err != nil {
		t.Fatalf("MineKeywords() unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Keyword != "카페 창업 비용" {
		t.Fatalf("Keyword = %q", rec.Keyword)
	}
	if rec.CompetitionRatio != 0.25 {
		t.Fatalf("CompetitionRatio = %v, want 0.25", rec.CompetitionRatio)
	}
	if rec.Trend != domain.TrendUp {
		t.Fatalf("Trend = %q, want up", rec.Trend)
	}
	if rec.Category != "Business" {
		t.Fatalf("Category = %q, want Business", rec.Category)
	}
	if !strings.HasPrefix(rec.ID, "kw-") {
		t.Fatalf("ID = %q, want kw- prefix", rec.ID)
	}
}

func TestMineKeywordsUnwrapsCodeFence(t *testing.T) {
	fenced := "```json\n[{\"keyword\":\"seed a\",\"searchVolume\":100,\"documentCount\":50,\"goldScore\":40,\"trend\":\"stable\",\"category\":\"misc\"}]\n```"
	c := clientWithResponse(t, http.StatusOK, envelope(fenced))

	records, err := c.MineKeywords(context.Background(), "seed", 5, "kr")
	if err != nil {
		t.Fatalf("MineKeywords() unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].CompetitionRatio != 0.5 {
		t.Fatalf("records = %+v", records)
	}
}

func TestMineKeywordsRejectsMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: envelope("definitely not json")},
		{name: "missing search volume", body: envelope(`[{"keyword":"x","documentCount":10,"goldScore":50,"trend":"up","category":"c"}]`)},
		{name: "zero search volume", body: envelope(`[{"keyword":"x","searchVolume":0,"documentCount":10,"goldScore":50,"trend":"up","category":"c"}]`)},
		{name: "gold score out of range", body: envelope(`[{"keyword":"x","searchVolume":10,"documentCount":1,"goldScore":140,"trend":"up","category":"c"}]`)},
		{name: "unknown trend", body: envelope(`[{"keyword":"x","searchVolume":10,"documentCount":1,"goldScore":50,"trend":"sideways","category":"c"}]`)},
		{name: "empty keyword", body: envelope(`[{"keyword":" ","searchVolume":10,"documentCount":1,"goldScore":50,"trend":"up","category":"c"}]`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := clientWithResponse(t, http.StatusOK, tc.body)
			if _, err := c.MineKeywords(context.Background(), "seed", 5, "kr"); !errors.Is(err, domain.ErrUpstreamQuery) {
				t.Fatalf("MineKeywords() = %v, want ErrUpstreamQuery", err)
			}
		})
	}
}

func TestMineKeywordsUpstreamStatus(t *testing.T) {
	c := clientWithResponse(t, http.StatusInternalServerError, `{"error":{"message":"boom"}}`)
	if _, err := c.MineKeywords(context.Background(), "seed", 5, "kr"); !errors.Is(err, domain.ErrUpstreamQuery) {
		t.Fatalf("MineKeywords() = %v, want ErrUpstreamQuery", err)
	}
}

func TestMineKeywordsMissingKey(t *testing.T) {
	c := NewClient(Options{})
	if _, err := c.MineKeywords(context.Background(), "seed", 5, "kr"); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("MineKeywords() = %v, want ErrNotConfigured", err)
	}
}

type staticKeyStore struct {
	key string
}

func (s staticKeyStore) GeminiAPIKey(context.Context) (string, error) {
	return s.key, nil
}

func TestResolveKeyFallsBackToStore(t *testing.T) {
	c := NewClient(Options{Keys: staticKeyStore{key: "stored-key"}})
	key, err := c.resolveKey(context.Background())
	if err != nil {
		t.Fatalf("resolveKey() unexpected error: %v", err)
	}
	if key != "stored-key" {
		t.Fatalf("resolveKey() = %q, want stored-key", key)
	}
}

func TestExpandLongTailNormalizesIntent(t *testing.T) {
	payload := `[{"phrase":"카페 창업 비용 계산","intent":"transactional","why":"buyers compare startup costs"}]`
	c := clientWithResponse(t, http.StatusOK, envelope(payload))

	phrases, err := c.ExpandLongTail(context.Background(), "카페 창업")
	if err != nil {
		t.Fatalf("ExpandLongTail() unexpected error: %v", err)
	}
	if len(phrases) != 1 {
		t.Fatalf("len(phrases) = %d, want 1", len(phrases))
	}
	if phrases[0].Intent != domain.IntentTransactional {
		t.Fatalf("Intent = %q, want Transactional", phrases[0].Intent)
	}
}

func TestExpandLongTailRejectsUnknownIntent(t *testing.T) {
	payload := `[{"phrase":"x y z","intent":"Navigational","why":"nope"}]`
	c := clientWithResponse(t, http.StatusOK, envelope(payload))
	if _, err := c.ExpandLongTail(context.Background(), "x"); !errors.Is(err, domain.ErrUpstreamQuery) {
		t.Fatalf("ExpandLongTail() = %v, want ErrUpstreamQuery", err)
	}
}

func TestSearchInsightsCollectsSources(t *testing.T) {
	body := `{"candidates":[{"content":{"role":"model","parts":[{"text":"Competitive niche with rising demand."}]},"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://example.com/a","title":"Source A"}},{"web":{"uri":"","title":"dropped"}}]}}]}`
	c := clientWithResponse(t, http.StatusOK, body)

	insight, err := c.SearchInsights(context.Background(), "카페", "kr")
	if err != nil {
		t.Fatalf("SearchInsights() unexpected error: %v", err)
	}
	if insight.Summary == "" {
		t.Fatal("Summary is empty")
	}
	if len(insight.Sources) != 1 || insight.Sources[0].URI != "https://example.com/a" {
		t.Fatalf("Sources = %+v", insight.Sources)
	}
}

func TestMarketName(t *testing.T) {
	tests := map[string]string{"kr": "Korean", "": "Korean", "jp": "Japanese", "de": "DE"}
	for in, want := range tests {
		if got := marketName(in); got != want {
			t.Fatalf("marketName(%q) = %q, want %q", in, got, want)
		}
	}
}
