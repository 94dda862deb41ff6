package classify

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kaitech/newspulse/pkg/domain"
)

var (
	tokenRe    = regexp.MustCompile(`[a-z0-9']+`)
	wordRe     = regexp.MustCompile(`\S+`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)

	orgSuffixRe = regexp.MustCompile(`\b(Inc|Corp|Ltd|Company|Organization)\b`)
	locSuffixRe = regexp.MustCompile(`\b(City|State|Country|Street)\b`)

	dateRe = regexp.MustCompile(`(?i)\b\d{1,2}/\d{1,2}/\d{4}|\b\d{4}-\d{2}-\d{2}|\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`)

	// smaller set than the breaking detector, used only for the engagement bonus
	engagementBreaking = []string{"breaking", "urgent", "just in", "developing"}
)

// Analyze runs the extended heuristic pass. Malformed or empty input never
// errors; it just produces mid-range defaults.
func (c *Classifier) Analyze(title, content string, now time.Time) *domain.Analysis {
	text := strings.ToLower(title + " " + content)
	tokens := tokenRe.FindAllString(text, -1)

	sentiment := c.sentimentDetail(tokens)

	return &domain.Analysis{
		Sentiment:           sentiment,
		Topics:              c.topics(text),
		Entities:            c.entities(title + " " + content),
		EngagementScore:     c.predictEngagement(title, content, sentiment.Label),
		BreakingProbability: c.BreakingProbability(title, content),
		ReadabilityScore:    ReadabilityScore(text),
		Keywords:            c.keywords(tokens),
		AnalyzedAt:          now,
	}
}

// sentimentDetail scores tokens against the sentiment lexicons and maps the
// normalized score into a label with confidence, thresholded at +-0.1
func (c *Classifier) sentimentDetail(tokens []string) domain.SentimentDetail {
	if len(tokens) == 0 {
		return domain.SentimentDetail{Label: "neutral", Confidence: 1.0}
	}

	var sum float64
	for _, tok := range tokens {
		switch {
		case matchesLexicon(tok, c.lex.PositiveWords):
			sum++
		case matchesLexicon(tok, c.lex.NegativeWords):
			sum--
		}
	}
	score := sum / float64(len(tokens))

	var label string
	var confidence float64
	switch {
	case score > 0.1:
		label = "positive"
		confidence = clamp(score)
	case score < -0.1:
		label = "negative"
		confidence = clamp(-score)
	default:
		label = "neutral"
		confidence = 1.0 - absFloat(score)
	}

	return domain.SentimentDetail{Score: score, Label: label, Confidence: confidence}
}

// matchesLexicon treats a shared prefix as a match, a cheap stand-in for
// stemming so "wins" hits "win" and "crashed" hits "crash"
func matchesLexicon(token string, words []string) bool {
	for _, w := range words {
		if strings.HasPrefix(token, w) {
			return true
		}
	}
	return false
}

// topics scores each bucket as hits over bucket size and returns the top
// three nonzero buckets
func (c *Classifier) topics(text string) []domain.Topic {
	scored := make([]domain.Topic, 0, len(c.lex.TopicBuckets))
	for topic, keywords := range c.lex.TopicBuckets {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > 0 {
			scored = append(scored, domain.Topic{Topic: topic, Confidence: float64(hits) / float64(len(keywords))})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Confidence != scored[j].Confidence {
			return scored[i].Confidence > scored[j].Confidence
		}
		return scored[i].Topic < scored[j].Topic
	})

	if len(scored) > 3 {
		scored = scored[:3]
	}
	return scored
}

// entities buckets capitalized tokens by suffix heuristics. This is
// deliberately crude keyword matching, not NER.
func (c *Classifier) entities(text string) domain.Entities {
	entities := domain.Entities{
		People:        []string{},
		Organizations: []string{},
		Locations:     []string{},
		Dates:         []string{},
	}

	for _, word := range wordRe.FindAllString(text, -1) {
		if len(word) <= 2 {
			continue
		}
		first, rest := word[:1], word[1:]
		if first != strings.ToUpper(first) || first == strings.ToLower(first) || rest != strings.ToLower(rest) {
			continue
		}
		switch {
		case orgSuffixRe.MatchString(word):
			entities.Organizations = append(entities.Organizations, word)
		case locSuffixRe.MatchString(word):
			entities.Locations = append(entities.Locations, word)
		default:
			entities.People = append(entities.People, word)
		}
	}

	if dates := dateRe.FindAllString(text, -1); dates != nil {
		entities.Dates = dates
	}
	return entities
}

// predictEngagement applies additive bonuses for title shape, content
// length, sentiment polarity and breaking keywords, clamped to 1.0
func (c *Classifier) predictEngagement(title, content, sentimentLabel string) float64 {
	score := 0.5

	titleLen := len(title)
	if titleLen >= 30 && titleLen <= 60 {
		score += 0.1
	}
	if strings.Contains(title, "?") {
		score += 0.1
	}
	if strings.Contains(title, "!") {
		score += 0.05
	}
	if strings.ContainsAny(title, "0123456789") {
		score += 0.1
	}

	contentLen := len(content)
	if contentLen > 200 && contentLen < 2000 {
		score += 0.1
	}

	switch sentimentLabel {
	case "positive":
		score += 0.1
	case "negative":
		score += 0.05 // negative news can still pull readers in
	}

	lowerTitle := strings.ToLower(title)
	for _, kw := range engagementBreaking {
		if strings.Contains(lowerTitle, kw) {
			score += 0.2
			break
		}
	}

	return clamp(score)
}

// BreakingProbability is a weighted sum of breaking indicators (0.2 each),
// urgent words (0.1 each) and recency phrases (0.1 total), clamped to 1.0
func (c *Classifier) BreakingProbability(title, content string) float64 {
	text := strings.ToLower(title + " " + content)

	var probability float64
	for _, kw := range c.lex.BreakingKeywords {
		if strings.Contains(text, kw) {
			probability += 0.2
		}
	}
	for _, w := range c.lex.UrgentWords {
		if strings.Contains(text, w) {
			probability += 0.1
		}
	}
	for _, phrase := range c.lex.RecencyPhrases {
		if strings.Contains(text, phrase) {
			probability += 0.1
			break
		}
	}

	return clamp(probability)
}

// ReadabilityScore computes the Flesch Reading Ease formula and rescales it
// to [0,1]
func ReadabilityScore(text string) float64 {
	sentences := 0
	for _, s := range sentenceRe.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	words := wordRe.FindAllString(text, -1)
	if sentences == 0 || len(words) == 0 {
		return 0
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	avgSentenceLen := float64(len(words)) / float64(sentences)
	avgSyllables := float64(syllables) / float64(len(words))
	flesch := 206.835 - 1.015*avgSentenceLen - 84.6*avgSyllables

	return clamp(flesch / 100)
}

// countSyllables counts vowel clusters with a trailing-e adjustment
func countSyllables(word string) int {
	word = strings.ToLower(word)
	if len(word) <= 3 {
		return 1
	}

	count := 0
	previousWasVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !previousWasVowel {
			count++
		}
		previousWasVowel = isVowel
	}

	if strings.HasSuffix(word, "e") {
		count--
	}
	if count < 1 {
		return 1
	}
	return count
}

// keywords returns the ten most frequent tokens after stop-word and
// short-token filtering
func (c *Classifier) keywords(tokens []string) []domain.Keyword {
	stop := make(map[string]struct{}, len(c.lex.StopWords))
	for _, w := range c.lex.StopWords {
		stop[w] = struct{}{}
	}

	freq := map[string]int{}
	for _, tok := range tokens {
		if len(tok) <= 3 {
			continue
		}
		if _, ok := stop[tok]; ok {
			continue
		}
		freq[tok]++
	}

	result := make([]domain.Keyword, 0, len(freq))
	for word, count := range freq {
		result = append(result, domain.Keyword{Word: word, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Word < result[j].Word
	})

	if len(result) > 10 {
		result = result[:10]
	}
	return result
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
