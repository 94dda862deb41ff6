package domain

import "time"

// Analysis is the extended heuristic pass over an article. Despite the
// ai_analysis column name inherited from the schema, everything here comes
// from keyword and regex heuristics, not a trained model.
type Analysis struct {
	Sentiment           SentimentDetail `json:"sentiment"`
	Topics              []Topic         `json:"topics"`
	Entities            Entities        `json:"entities"`
	EngagementScore     float64         `json:"engagement_score"`
	BreakingProbability float64         `json:"breaking_probability"`
	ReadabilityScore    float64         `json:"readability_score"`
	Keywords            []Keyword       `json:"keywords"`
	AnalyzedAt          time.Time       `json:"analyzed_at"`
}

// SentimentDetail carries the lexicon score with its label and confidence
type SentimentDetail struct {
	Score      float64 `json:"score"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Topic is a topic bucket hit with its confidence
type Topic struct {
	Topic      string  `json:"topic"`
	Confidence float64 `json:"confidence"`
}

// Entities holds naively extracted proper nouns bucketed by suffix heuristics
type Entities struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
	Dates         []string `json:"dates"`
}

// Keyword is a word frequency entry
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}
