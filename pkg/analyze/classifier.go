// Package analyze assigns each stored item a feedback category, a short
// summary label and a triage priority using ordered phrase rules.
package analyze

import "strings"

// Categories maps every known category to its description, in triage order.
var Categories = []CategoryInfo{
	{"feature_request", "Suggestions for new features or improvements"},
	{"question", "Questions about how something works"},
	{"bug_report", "Reports of issues or problems"},
	{"criticism", "Negative feedback or complaints"},
	{"praise", "Positive feedback and appreciation"},
	{"joke", "Humorous responses, memes"},
	{"spam", "Promotional content, irrelevant"},
	{"other", "Doesn't fit other categories"},
}

// CategoryInfo describes one feedback category.
type CategoryInfo struct {
	Name        string
	Description string
}

// Verdict is the classification produced for one item.
type Verdict struct {
	Category string
	Summary  string
	Priority int
}

var featurePhrases = []string{
	"would be nice", "should add", "can you add", "feature request",
	"it would be great", "please add", "wish it", "want to see",
	"suggestion:", "idea:", "could you",
}

var questionWords = []string{
	"how", "what", "where", "when", "why", "does", "can", "is it", "will",
}

var bugPhrases = []string{
	"doesn't work", "not working", "broken", "bug", "error", "issue",
	"problem", "crash", "fail",
}

var criticismPhrases = []string{
	"hate", "terrible", "awful", "worst", "sucks", "disappointed",
	"waste", "useless", "don't like",
}

var praisePhrases = []string{
	"love", "amazing", "awesome", "great", "perfect", "thank",
	"beautiful", "excellent", "brilliant", "goat", "fire", "based",
}

var jokePhrases = []string{
	"lol", "lmao", "haha", "bruh", "fr fr", "no cap", "deadass",
}

var spamPhrases = []string{
	"check my", "dm me", "follow me", "$", "crypto", "nft", "airdrop",
	"giveaway", "click here", "join",
}

// Classify categorizes one item's text. Rules apply in priority order;
// the first match wins.
func Classify(text string) Verdict {
	lower := strings.ToLower(text)

	if containsAny(lower, featurePhrases) {
		return Verdict{"feature_request", "Potential feature suggestion", 2}
	}
	if strings.Contains(text, "?") && containsAny(lower, questionWords) {
		return Verdict{"question", "User question", 1}
	}
	if containsAny(lower, bugPhrases) {
		return Verdict{"bug_report", "Potential issue report", 2}
	}
	if containsAny(lower, criticismPhrases) {
		return Verdict{"criticism", "Negative feedback", 1}
	}
	if containsAny(lower, praisePhrases) {
		return Verdict{"praise", "Positive feedback", 0}
	}
	if containsAny(lower, jokePhrases) || len(text) < 20 {
		return Verdict{"joke", "Casual/joke response", 0}
	}
	if containsAny(lower, spamPhrases) {
		return Verdict{"spam", "Promotional content", 0}
	}
	return Verdict{"other", "General response", 0}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
