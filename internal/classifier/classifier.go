// Package classifier turns free news text into a structured event
// classification: event type, severity, confirmation status and affected
// assets. It is deliberate keyword matching, not NLP; the tables are small
// and auditable.
package classifier

import (
	"strings"
	"time"

	"github.com/signalmesh/signalmesh/internal/assets"
	"github.com/signalmesh/signalmesh/internal/signal"
)

// Classification is the structured result for one article.
type Classification struct {
	Type      signal.EventType
	Severity  signal.Severity
	Confirmed bool
	Assets    []string
	Keywords  []string
	Sentiment string // positive|neutral|negative
	Timestamp time.Time
}

// typeKeywords are matched in declaration order; the first matching type
// wins, so the more damaging categories come first.
var typeKeywords = []struct {
	eventType signal.EventType
	words     []string
}{
	{signal.EventExploit, []string{"exploit", "hack", "hacked", "drained", "stolen", "breach", "attacker", "vulnerability"}},
	{signal.EventInsolvency, []string{"insolven", "bankrupt", "chapter 11", "withdrawals frozen", "withdrawals halted", "missing funds"}},
	{signal.EventDepeg, []string{"depeg", "lost its peg", "peg broken", "below peg"}},
	{signal.EventDelisting, []string{"delist", "removal from", "removed from trading"}},
	{signal.EventOutage, []string{"outage", "downtime", "network halt", "halted", "suspended", "degraded service"}},
	{signal.EventRegulatory, []string{"sec ", "lawsuit", "regulator", "sanction", "banned", "enforcement", "subpoena", "settlement"}},
}

// baseSeverity per event type, before text modifiers.
var baseSeverity = map[signal.EventType]signal.Severity{
	signal.EventExploit:    signal.SeverityHigh,
	signal.EventInsolvency: signal.SeverityHigh,
	signal.EventDepeg:      signal.SeverityMedium,
	signal.EventDelisting:  signal.SeverityMedium,
	signal.EventOutage:     signal.SeverityMedium,
	signal.EventRegulatory: signal.SeverityMedium,
}

var (
	escalateWords = []string{"major", "massive", "critical", "emergency", "billion", "collapse", "all funds"}
	downplayWords = []string{"minor", "small", "limited", "partial", "brief"}
	confirmWords  = []string{"confirmed", "official", "officially", "announced", "statement", "acknowledged"}
	rumorWords    = []string{"rumor", "rumour", "alleged", "allegedly", "unconfirmed", "reportedly", "speculation"}

	negativeWords = []string{"hack", "exploit", "lawsuit", "ban", "crash", "dump", "collapse", "fraud", "frozen", "halt", "insolven", "depeg", "delist", "stolen"}
	positiveWords = []string{"surge", "rally", "adoption", "approval", "partnership", "upgrade", "launch", "record high", "inflow"}
)

// Classifier classifies article text. Zero value is not usable; construct
// with New.
type Classifier struct{}

// New returns a classifier with the default keyword tables.
func New() *Classifier { return &Classifier{} }

// Classify returns the classification for an article and whether any event
// type matched at all. Confirmation is conservative: an article is confirmed
// only when confirmation language is present and no rumor language is.
func (c *Classifier) Classify(title, body string) (Classification, bool) {
	text := strings.ToLower(title + " " + body)

	var cls Classification
	matched := false
	for _, tk := range typeKeywords {
		for _, w := range tk.words {
			if strings.Contains(text, w) {
				cls.Type = tk.eventType
				cls.Keywords = append(cls.Keywords, strings.TrimSpace(w))
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}
	if !matched {
		return Classification{}, false
	}

	cls.Severity = baseSeverity[cls.Type]
	if containsAny(text, escalateWords) {
		cls.Severity = signal.SeverityHigh
	} else if containsAny(text, downplayWords) && cls.Severity != signal.SeverityHigh {
		cls.Severity = signal.SeverityLow
	}

	cls.Confirmed = containsAny(text, confirmWords) && !containsAny(text, rumorWords)
	cls.Assets = assets.FromText(title + " " + body)
	cls.Sentiment = c.Sentiment(text)
	cls.Timestamp = time.Now().UTC()
	return cls, true
}

// Sentiment scores lowercased text by keyword counts.
func (c *Classifier) Sentiment(text string) string {
	neg := countMatches(text, negativeWords)
	pos := countMatches(text, positiveWords)
	switch {
	case neg > pos:
		return "negative"
	case pos > neg:
		return "positive"
	default:
		return "neutral"
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func countMatches(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}
