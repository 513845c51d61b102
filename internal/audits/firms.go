package audits

import (
	"regexp"
	"strings"
	"time"
)

// firmPatterns maps a matching pattern to the canonical firm name. Patterns
// run case-insensitively against filenames and page text.
var firmPatterns = []struct {
	pattern *regexp.Regexp
	name    string
}{
	{regexp.MustCompile(`(?i)trail\s*of\s*bits|trailofbits`), "Trail of Bits"},
	{regexp.MustCompile(`(?i)openzeppelin`), "OpenZeppelin"},
	{regexp.MustCompile(`(?i)consensys|diligence`), "ConsenSys Diligence"},
	{regexp.MustCompile(`(?i)certik`), "CertiK"},
	{regexp.MustCompile(`(?i)quantstamp`), "Quantstamp"},
	{regexp.MustCompile(`(?i)chainsecurity`), "ChainSecurity"},
	{regexp.MustCompile(`(?i)peckshield`), "PeckShield"},
	{regexp.MustCompile(`(?i)slowmist`), "SlowMist"},
	{regexp.MustCompile(`(?i)halborn`), "Halborn"},
	{regexp.MustCompile(`(?i)sigma\s*prime|sigmaprime`), "Sigma Prime"},
	{regexp.MustCompile(`(?i)spearbit`), "Spearbit"},
	{regexp.MustCompile(`(?i)code4rena|code\s*arena`), "Code4rena"},
	{regexp.MustCompile(`(?i)sherlock`), "Sherlock"},
	{regexp.MustCompile(`(?i)hacken`), "Hacken"},
	{regexp.MustCompile(`(?i)coinspect`), "Coinspect"},
}

// tierOneFirms and tierTwoFirms drive the attestation-provider bonus in the
// transparency score. Lowercase for substring matching.
var (
	tierOneFirms = []string{
		"trail of bits", "openzeppelin", "consensys", "chainsecurity",
		"deloitte", "grant thornton", "bdo", "withum",
	}
	tierTwoFirms = []string{
		"certik", "quantstamp", "peckshield", "slowmist", "halborn",
		"sigma prime", "armanino", "moore",
	}
)

// FirmTier classifies an attestation or audit firm: 1 and 2 for the known
// tiers, 0 for anything else (including empty).
func FirmTier(firm string) int {
	if firm == "" {
		return 0
	}
	lower := strings.ToLower(firm)
	for _, f := range tierOneFirms {
		if strings.Contains(lower, f) {
			return 1
		}
	}
	for _, f := range tierTwoFirms {
		if strings.Contains(lower, f) {
			return 2
		}
	}
	return 0
}

// auditedByRe catches "audited by X" style attributions when no known firm
// pattern matches.
var auditedByRe = regexp.MustCompile(`(?i)(?:audit(?:ed)?|conducted|performed)\s+by\s+([A-Za-z][A-Za-z .&-]{1,48})`)

// ExtractFirm finds the audit firm named in a filename or page text.
func ExtractFirm(text string) string {
	for _, fp := range firmPatterns {
		if fp.pattern.MatchString(text) {
			return fp.name
		}
	}
	if m := auditedByRe.FindStringSubmatch(text); m != nil {
		return strings.Title(strings.TrimSpace(m[1]))
	}
	return ""
}

var datePatterns = []struct {
	re      *regexp.Regexp
	layouts []string
}{
	{regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`), []string{"2006-01-02", "2006/01/02", "2006-1-2", "2006/1/2"}},
	{regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{4}`), []string{"01-02-2006", "01/02/2006", "1-2-2006", "1/2/2006"}},
	{regexp.MustCompile(`(?i)(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4}`), []string{"January 2, 2006", "January 2 2006"}},
	{regexp.MustCompile(`(?i)\d{1,2}\s+(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{4}`), []string{"2 January 2006"}},
	{regexp.MustCompile(`(?i)(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{4}`), []string{"January 2006"}},
	{regexp.MustCompile(`\d{4}`), []string{"2006"}},
}

// ExtractDate finds the most plausible audit date in text, trying precise
// formats before coarse ones. Zero time means no date found.
func ExtractDate(text string) time.Time {
	for _, dp := range datePatterns {
		match := dp.re.FindString(text)
		if match == "" {
			continue
		}
		normalized := strings.Title(strings.ToLower(match))
		for _, layout := range dp.layouts {
			if t, err := time.Parse(layout, normalized); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// ClassifyAuditType buckets an audit by its filename and content.
func ClassifyAuditType(fileName, content string) string {
	combined := strings.ToLower(fileName + " " + content)
	switch {
	case containsAny(combined, "oracle", "price feed", "chainlink"):
		return "oracle"
	case containsAny(combined, "smart contract", "solidity", "contract audit"):
		return "smart_contract"
	case containsAny(combined, "security", "vulnerability", "pentest"):
		return "security"
	default:
		return "other"
	}
}

var issueRe = regexp.MustCompile(`(?i)(\d{1,3})\s+(?:critical|high|medium|low|informational)?\s*(?:issues|findings|vulnerabilities)`)

// CountIssues pulls a coarse issue count out of audit text. Zero means the
// text did not state one.
func CountIssues(content string) int {
	total := 0
	for _, m := range issueRe.FindAllStringSubmatch(content, 4) {
		var n int
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		total += n
	}
	return total
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
