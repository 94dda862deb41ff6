package classify

// Lexicon holds all keyword tables the classifier works from. Keeping the
// data separate from the scoring code lets deployments override individual
// tables from the config file without touching the logic.
type Lexicon struct {
	CategoryMap      map[string]string   `yaml:"category_map" json:"category_map"`
	BreakingKeywords []string            `yaml:"breaking_keywords" json:"breaking_keywords"`
	PositiveWords    []string            `yaml:"positive_words" json:"positive_words"`
	NegativeWords    []string            `yaml:"negative_words" json:"negative_words"`
	TopicBuckets     map[string][]string `yaml:"topic_buckets" json:"topic_buckets"`
	UrgentWords      []string            `yaml:"urgent_words" json:"urgent_words"`
	RecencyPhrases   []string            `yaml:"recency_phrases" json:"recency_phrases"`
	StopWords        []string            `yaml:"stop_words" json:"stop_words"`
	CommonPhrases    []string            `yaml:"common_phrases" json:"common_phrases"`
}

// DefaultLexicon returns the built-in keyword tables
func DefaultLexicon() Lexicon {
	return Lexicon{
		CategoryMap: map[string]string{
			"tech":          "technology",
			"gaming":        "games",
			"esports":       "games",
			"finance":       "business",
			"economy":       "business",
			"sports":        "sports",
			"entertainment": "culture",
			"health":        "health",
			"science":       "technology",
			"politics":      "politics",
			"world":         "world",
		},
		BreakingKeywords: []string{
			"breaking", "urgent", "alert", "developing", "just in",
			"exclusive", "confirmed", "official", "announced",
		},
		PositiveWords: []string{
			"good", "great", "success", "win", "positive", "growth", "increase", "breakthrough",
		},
		NegativeWords: []string{
			"bad", "crisis", "fail", "crash", "decline", "war", "conflict", "disaster",
		},
		TopicBuckets: map[string][]string{
			"technology": {"tech", "ai", "artificial intelligence", "machine learning", "blockchain",
				"cryptocurrency", "software", "internet", "digital", "innovation", "startup"},
			"business": {"economy", "finance", "market", "stock", "investment", "company",
				"earnings", "revenue", "profit", "merger", "acquisition", "trade"},
			"politics": {"government", "election", "president", "congress", "senate", "policy",
				"law", "legislation", "democrat", "republican", "voting"},
			"sports": {"game", "match", "championship", "tournament", "player", "team",
				"score", "win", "loss", "olympics", "football", "basketball"},
			"health": {"health", "medical", "disease", "treatment", "hospital", "doctor",
				"vaccine", "medicine", "wellness", "fitness", "covid"},
			"entertainment": {"movie", "film", "music", "celebrity", "actor", "singer",
				"concert", "album", "tv show", "streaming", "hollywood"},
			"games": {"gaming", "esports", "video game", "console", "pc gaming",
				"mobile game", "tournament", "streamer", "twitch", "steam"},
			"science": {"research", "study", "discovery", "space", "climate", "environment",
				"scientist", "experiment", "breakthrough", "nasa"},
		},
		UrgentWords: []string{
			"crisis", "emergency", "disaster", "attack", "death",
			"explosion", "crash", "fire", "earthquake",
		},
		RecencyPhrases: []string{"today", "now", "minutes ago"},
		StopWords: []string{
			"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of",
			"with", "by", "is", "are", "was", "were", "be", "been", "being", "have",
			"has", "had", "do", "does", "did", "will", "would", "could", "should",
		},
		CommonPhrases: []string{
			"in the", "on the", "for the", "to the", "of the", "and the",
			"is a", "was a", "has been", "have been", "will be", "can be",
			"this is", "that is", "there is", "it is", "we are", "they are",
		},
	}
}

// Merge overlays non-empty tables from other onto the lexicon, so a config
// file can replace one table while keeping the defaults for the rest
func (l Lexicon) Merge(other Lexicon) Lexicon {
	if len(other.CategoryMap) > 0 {
		l.CategoryMap = other.CategoryMap
	}
	if len(other.BreakingKeywords) > 0 {
		l.BreakingKeywords = other.BreakingKeywords
	}
	if len(other.PositiveWords) > 0 {
		l.PositiveWords = other.PositiveWords
	}
	if len(other.NegativeWords) > 0 {
		l.NegativeWords = other.NegativeWords
	}
	if len(other.TopicBuckets) > 0 {
		l.TopicBuckets = other.TopicBuckets
	}
	if len(other.UrgentWords) > 0 {
		l.UrgentWords = other.UrgentWords
	}
	if len(other.RecencyPhrases) > 0 {
		l.RecencyPhrases = other.RecencyPhrases
	}
	if len(other.StopWords) > 0 {
		l.StopWords = other.StopWords
	}
	if len(other.CommonPhrases) > 0 {
		l.CommonPhrases = other.CommonPhrases
	}
	return l
}
