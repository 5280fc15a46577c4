// Package analysis implements the rule-based NLP engine (keywords,
// sentiment, intent, escalation risk) that the pipeline orchestrator and
// live session manager call after transcription. It is deliberately a
// lexicon/pattern engine, not a model: the source system names this "a
// rule-based reference implementation", and no sentiment/intent library
// exists anywhere in the retrieved reference corpus to ground a different
// design on.
package analysis

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var punctuation = regexp.MustCompile(`[^a-z0-9\s]`)
var whitespace = regexp.MustCompile(`\s+`)

// Preprocess lowercases text, strips punctuation/special characters, and
// collapses whitespace.
func Preprocess(text string) string {
	lower := strings.ToLower(text)
	stripped := punctuation.ReplaceAllString(lower, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(stripped, " "))
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"being": true, "to": true, "of": true, "in": true, "on": true, "at": true,
	"for": true, "with": true, "about": true, "as": true, "by": true, "from": true,
	"that": true, "this": true, "these": true, "those": true, "it": true, "its": true,
	"he": true, "she": true, "they": true, "we": true, "you": true, "your": true,
	"i": true, "me": true, "my": true, "our": true, "us": true, "his": true, "her": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "can": true, "could": true, "should": true, "not": true,
	"so": true, "just": true, "if": true, "then": true, "than": true, "there": true,
	"their": true, "them": true, "what": true, "which": true, "who": true, "when": true,
	"where": true, "how": true, "all": true, "any": true, "some": true, "no": true,
	"out": true, "up": true, "down": true, "into": true, "over": true, "after": true,
	"um": true, "uh": true, "okay": true, "yeah": true, "like": true,
}

var numeric = regexp.MustCompile(`^[0-9]+$`)

// ExtractKeywords tokenizes text, drops stopwords, tokens of length <= 2,
// and purely numeric tokens, then returns the 10 most frequent remaining
// tokens (ties broken by first appearance).
func ExtractKeywords(text string) []string {
	clean := Preprocess(text)
	if clean == "" {
		return nil
	}
	tokens := strings.Fields(clean)

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, tok := range tokens {
		if len(tok) <= 2 || stopwords[tok] || numeric.MatchString(tok) {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > 10 {
		order = order[:10]
	}
	return order
}

// SentimentResult is the compound-score classification.
type SentimentResult struct {
	Label string // "positive" | "negative" | "neutral"
	Score int    // -100..100
}

var positiveWords = map[string]float64{
	"good": 0.5, "great": 0.7, "excellent": 0.9, "happy": 0.6, "thanks": 0.4,
	"thank": 0.4, "love": 0.8, "awesome": 0.8, "perfect": 0.8, "pleased": 0.6,
	"satisfied": 0.5, "helpful": 0.5, "wonderful": 0.8, "appreciate": 0.5,
	"resolved": 0.4, "easy": 0.3, "fast": 0.3, "amazing": 0.8,
}

var negativeWords = map[string]float64{
	"bad": -0.5, "terrible": -0.8, "awful": -0.8, "angry": -0.7, "hate": -0.8,
	"frustrated": -0.6, "disappointed": -0.6, "problem": -0.4, "issue": -0.3,
	"broken": -0.5, "slow": -0.3, "worst": -0.9, "horrible": -0.8, "useless": -0.6,
	"unacceptable": -0.7, "refund": -0.3, "cancel": -0.4, "complaint": -0.5,
	"annoyed": -0.5, "confused": -0.3,
}

// AnalyzeSentiment computes a VADER-style compound score: the mean of each
// matched word's valence, clamped to [-1, 1].
func AnalyzeSentiment(text string) SentimentResult {
	tokens := strings.Fields(Preprocess(text))
	if len(tokens) == 0 {
		return SentimentResult{Label: "neutral", Score: 0}
	}

	var sum float64
	var matched int
	for _, tok := range tokens {
		if v, ok := positiveWords[tok]; ok {
			sum += v
			matched++
		} else if v, ok := negativeWords[tok]; ok {
			sum += v
			matched++
		}
	}

	var compound float64
	if matched > 0 {
		compound = sum / float64(matched)
	}
	if compound > 1 {
		compound = 1
	}
	if compound < -1 {
		compound = -1
	}

	label := "neutral"
	switch {
	case compound >= 0.05:
		label = "positive"
	case compound <= -0.05:
		label = "negative"
	}

	return SentimentResult{Label: label, Score: int(round(100 * compound))}
}

// IntentLabels is the fixed label set intent classification scores across.
var IntentLabels = []string{
	"customer support request",
	"sales inquiry",
	"complaint or issue",
	"general information",
	"appointment booking",
	"technical problem",
	"billing question",
	"product inquiry",
}

var intentPatterns = map[string][]string{
	"customer support request": {"help", "support", "assist", "question", "how do i"},
	"sales inquiry":            {"price", "pricing", "quote", "buy", "purchase", "cost", "discount"},
	"complaint or issue":       {"complain", "complaint", "unhappy", "disappointed", "terrible", "worst", "refund"},
	"general information":      {"information", "info", "tell me about", "what is", "explain"},
	"appointment booking":      {"appointment", "schedule", "book", "reservation", "available time", "reschedule"},
	"technical problem":        {"error", "bug", "crash", "not working", "broken", "technical", "troubleshoot"},
	"billing question":         {"bill", "billing", "invoice", "charge", "payment", "subscription"},
	"product inquiry":          {"feature", "product", "spec", "specification", "compare", "model"},
}

// IntentResult is the picked label and its confidence.
type IntentResult struct {
	Label      string
	Confidence float64 // 0-100
}

// ClassifyIntent scores text's preprocessed form against each label's
// keyword patterns (a match contributes its own token length, rewarding
// longer/more specific phrases) and returns the top-scoring label.
// Confidence is score divided by the longest matched pattern's length;
// zero matches defaults to "general information" at confidence 10.
func ClassifyIntent(text string) IntentResult {
	clean := " " + Preprocess(text) + " "

	bestLabel := ""
	bestScore := 0
	bestMaxPatternLen := 0

	for _, label := range IntentLabels {
		score := 0
		maxPatternLen := 0
		for _, pattern := range intentPatterns[label] {
			needle := " " + pattern + " "
			if strings.Contains(clean, needle) || strings.Contains(clean, pattern) {
				plen := len(strings.Fields(pattern))
				score += plen
				if plen > maxPatternLen {
					maxPatternLen = plen
				}
			}
		}
		if score > bestScore {
			bestScore = score
			bestLabel = label
			bestMaxPatternLen = maxPatternLen
		}
	}

	if bestScore == 0 {
		return IntentResult{Label: "general information", Confidence: 10}
	}

	confidence := float64(bestScore) / float64(bestMaxPatternLen)
	if confidence > 1 {
		confidence = 1
	}
	return IntentResult{Label: bestLabel, Confidence: round(confidence * 100)}
}

var riskKeywords = []string{
	"lawsuit", "sue", "legal action", "attorney", "lawyer", "fraud", "scam",
	"never again", "cancel my", "unacceptable", "furious", "disgusted",
}

var urgencyKeywords = []string{
	"immediately", "urgent", "right now", "emergency", "asap",
}

var complianceKeywords = []string{
	"gdpr", "hipaa", "compliance", "regulation", "data breach", "privacy violation",
}

// RiskResult is the escalation-risk classification.
type RiskResult struct {
	EscalationRisk string // "low" | "medium" | "high"
	RiskScore      int    // 0-100
	UrgencyLevel   string // "normal" | "high" | "critical"
	ComplianceRisk string // "none" | "medium" | "high"
}

// ClassifyRisk counts risk/urgency/compliance keyword hits and applies the
// documented thresholds, then folds in a sentiment-driven bump.
func ClassifyRisk(text string, sentiment SentimentResult) RiskResult {
	clean := Preprocess(text)

	riskHits := countHits(clean, riskKeywords)
	urgencyHits := countHits(clean, urgencyKeywords)
	complianceHits := countHits(clean, complianceKeywords)

	escalation := "low"
	riskScore := 0
	switch {
	case riskHits >= 3:
		escalation = "high"
		riskScore = 80
	case riskHits >= 1:
		escalation = "medium"
		riskScore = 50
	}

	urgencyLevel := "normal"
	switch {
	case urgencyHits >= 2:
		urgencyLevel = "critical"
	case urgencyHits >= 1:
		urgencyLevel = "high"
	}

	complianceRisk := "none"
	switch {
	case complianceHits >= 2:
		complianceRisk = "high"
	case complianceHits >= 1:
		complianceRisk = "medium"
	}

	if sentiment.Label == "negative" {
		riskScore += 20
		if riskScore > 100 {
			riskScore = 100
		}
		if escalation == "low" {
			escalation = "medium"
		}
	}

	return RiskResult{
		EscalationRisk: escalation,
		RiskScore:      riskScore,
		UrgencyLevel:   urgencyLevel,
		ComplianceRisk: complianceRisk,
	}
}

func countHits(clean string, phrases []string) int {
	count := 0
	for _, phrase := range phrases {
		if strings.Contains(clean, phrase) {
			count++
		}
	}
	return count
}

func round(f float64) float64 {
	return math.Round(f)
}
