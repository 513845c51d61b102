package discovery

import (
	"net/url"
	"strings"

	"github.com/pegwatch/pkg/models"
)

// Keyword tiers for judging whether a link or page region is about reserve
// transparency. High-value terms are near-unambiguous; low-value terms only
// matter in aggregate.
var (
	highValueKeywords = []string{
		"transparency", "proof of reserves", "proof-of-reserves",
		"attestation", "reserves report", "audit report",
	}
	mediumValueKeywords = []string{
		"reserves", "backing", "collateral", "treasury",
		"holdings", "redemption", "attestations",
	}
	lowValueKeywords = []string{
		"security", "compliance", "trust", "reports", "disclosures",
	}

	contextBoostPhrases = []string{
		"real-time", "independent accountant", "monthly report",
		"verified", "attested", "third-party",
	}
	uiPenaltyPhrases = []string{
		"launch app", "connect wallet", "swap", "trade now",
		"sign up", "log in", "get started",
	}

	pathBoostPatterns = []string{
		"/transparency", "/reserves", "/attestation", "/proof-of-reserves",
		"/por", "/audits", "/reports",
	}
	widgetParams = []string{"widget", "embed", "modal", "popup", "utm_"}
)

// minLinkScore is the floor below which a link does not count as a
// transparency signal at all.
const minLinkScore = 0.3

// scoreLink rates a single anchor in [0,1] by keyword weight, surrounding
// context, and URL path shape.
func scoreLink(l Link) float64 {
	haystack := strings.ToLower(l.Text + " " + l.URL)
	context := strings.ToLower(l.Context)

	var score float64
	switch {
	case containsAnyOf(haystack, highValueKeywords):
		score = 0.5
	case containsAnyOf(haystack, mediumValueKeywords):
		score = 0.3
	case containsAnyOf(haystack, lowValueKeywords):
		score = 0.15
	default:
		return 0
	}

	if containsAnyOf(context, contextBoostPhrases) {
		score += 0.15
	}
	if containsAnyOf(context, uiPenaltyPhrases) {
		score -= 0.3
	}

	if u, err := url.Parse(l.URL); err == nil {
		path := strings.ToLower(u.Path)
		if containsAnyOf(path, pathBoostPatterns) {
			score += 0.2
		}
		query := strings.ToLower(u.RawQuery)
		if query != "" && containsAnyOf(query, widgetParams) {
			score -= 0.2
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func containsAnyOf(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// Attestation firms that show up on stablecoin transparency pages. Matching
// is case-insensitive substring, so entries stay lowercase.
var attestationFirms = []string{
	"bdo", "deloitte", "grant thornton", "moore hong kong",
	"withum", "armanino", "bpm", "prescient assurance", "mha cayman",
}

// extractFields pulls whatever structured facts a page body reveals.
func extractFields(body string) models.EvidenceFields {
	lower := strings.ToLower(body)
	var f models.EvidenceFields

	if strings.Contains(lower, "proof of reserves") || strings.Contains(lower, "proof-of-reserves") {
		f.HasProofOfReserves = true
	}

	for _, firm := range attestationFirms {
		if strings.Contains(lower, firm) {
			f.AttestationProvider = firm
			break
		}
	}

	switch {
	case strings.Contains(lower, "real-time") || strings.Contains(lower, "real time"):
		f.UpdateFrequency = "real-time"
	case strings.Contains(lower, "daily"):
		f.UpdateFrequency = "daily"
	case strings.Contains(lower, "weekly"):
		f.UpdateFrequency = "weekly"
	case strings.Contains(lower, "monthly"):
		f.UpdateFrequency = "monthly"
	}

	if strings.Contains(lower, "independent accountant") || strings.Contains(lower, "verified by") {
		f.VerificationStatus = "verified"
	}

	return f
}
