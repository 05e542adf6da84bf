// Package replyscore is a lightweight quality gate for drafted replies.
// Replies that read as operator insight score high; fluff, sales pitches and
// hype score low.
package replyscore

import "strings"

// MaxReplyLength is the maximum reply length in characters.
const MaxReplyLength = 240

// DefaultMinScore is the default acceptance threshold.
const DefaultMinScore = 2

var infraSignals = []string{
	"routing",
	"handoff",
	"triage",
	"state",
	"memory",
	"context",
	"uptime",
	"retries",
	"rate limit",
	"webhook",
	"infra",
	"deployment",
	"production",
	"orchestration",
	"queue",
	"idempot",
	"observability",
	"monitor",
	"slo",
}

var validationPhrases = []string{
	"at that volume",
	"makes sense",
	"common issue",
	"usually the bottleneck",
	"first thing i'd check",
	"depends on your flow",
	"the unlock",
	"that's the gap",
	"worth trying",
}

var fluffPhrases = []string{"totally", "same", "this!", "so true", "love this", "facts"}

var salesyPhrases = []string{
	"check us out",
	"our platform",
	"we can help",
	"dm me",
	"sign up",
	"join now",
}

var hypeWords = []string{"revolutionary", "game-changing", "disrupt", "next-gen"}

// Normalize trims text and cuts it to MaxReplyLength characters.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	if r := []rune(text); len(r) > MaxReplyLength {
		text = strings.TrimSpace(string(r[:MaxReplyLength]))
	}
	return text
}

// Score returns the heuristic quality score of text. The score is not clamped.
func Score(text string) int {
	t := strings.ToLower(text)
	score := 0

	hasInfra := containsAny(t, infraSignals)
	if hasInfra {
		score += 2
	}
	hasValidation := containsAny(t, validationPhrases)
	if hasValidation {
		score += 2
	}
	// a question only counts when the reply already says something
	if strings.Contains(t, "?") && (hasInfra || hasValidation) {
		score++
	}
	if containsAny(t, fluffPhrases) {
		score -= 3
	}
	if containsAny(t, salesyPhrases) {
		score -= 4
	}
	if containsAny(t, hypeWords) {
		score -= 2
	}
	return score
}

// Gate accepts replies scoring at least MinScore.
type Gate struct {
	MinScore int
}

// Accept normalizes text and scores it. The normalized text is returned
// whether or not it was accepted so callers can log it.
func (g Gate) Accept(text string) (string, int, bool) {
	reply := Normalize(text)
	if reply == "" {
		return reply, 0, false
	}
	score := Score(reply)
	return reply, score, score >= g.MinScore
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
