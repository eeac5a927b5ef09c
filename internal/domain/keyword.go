package domain

// Trend classifies search-volume movement as reported by the AI endpoint.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// KeywordRecord is one mined keyword. Records are transient: the result list
// is replaced wholesale on every mining request and never persisted.
type KeywordRecord struct {
	ID               string  `json:"id"`
	Keyword          string  `json:"keyword"`
	SearchVolume     int64   `json:"searchVolume"`
	DocumentCount    int64   `json:"documentCount"`
	CompetitionRatio float64 `json:"competitionRatio"` // documentCount/searchVolume, 2 decimals
	GoldScore        float64 `json:"goldScore"`        // 0..100 opportunity metric, opaque
	Trend            Trend   `json:"trend"`
	Category         string  `json:"category"`
}

// Intent classifies a long-tail phrase by what the searcher wants.
type Intent string

const (
	IntentTransactional Intent = "Transactional"
	IntentInformational Intent = "Informational"
	IntentComparison    Intent = "Comparison"
)

// LongTailPhrase is one expanded variant of a selected keyword.
type LongTailPhrase struct {
	Phrase string `json:"phrase"`
	Intent Intent `json:"intent"`
	Why    string `json:"why"`
}

// InsightSource is one grounding reference behind a search insight.
type InsightSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// SearchInsight is a one-shot market summary for a keyword.
type SearchInsight struct {
	Summary string          `json:"summary"`
	Sources []InsightSource `json:"sources"`
}
