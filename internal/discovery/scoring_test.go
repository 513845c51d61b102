package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreLink(t *testing.T) {
	cases := []struct {
		name string
		link Link
		want float64
	}{
		{
			"high value keyword",
			Link{URL: "https://tether.to/about", Text: "Transparency"},
			0.5,
		},
		{
			"high value plus path boost",
			Link{URL: "https://circle.com/transparency", Text: "Transparency"},
			0.7,
		},
		{
			"low value keyword",
			Link{URL: "https://example.com/legal", Text: "Compliance"},
			0.15,
		},
		{
			"context boost",
			Link{URL: "https://example.com/x", Text: "Attestation", Context: "verified by an independent accountant"},
			0.65,
		},
		{
			"ui penalty kills weak link",
			Link{URL: "https://example.com/app", Text: "Trust Center", Context: "Sign up to get started"},
			0,
		},
		{
			"widget param penalty",
			Link{URL: "https://example.com/reports?widget=1", Text: "Reports"},
			0.15, // 0.15 low + 0.2 path - 0.2 widget
		},
		{
			"irrelevant link",
			Link{URL: "https://example.com/careers", Text: "Careers"},
			0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, scoreLink(tc.link), 0.001)
		})
	}
}

func TestScoreLinkMediumKeywordNoPath(t *testing.T) {
	// "reserves" in anchor text, path carries no boost pattern.
	got := scoreLink(Link{URL: "https://example.com/info", Text: "Our Reserves"})
	assert.InDelta(t, 0.3, got, 0.001)
}

func TestScoreLinkNeverExceedsOne(t *testing.T) {
	got := scoreLink(Link{
		URL:     "https://example.com/transparency/proof-of-reserves",
		Text:    "Proof of Reserves attestation",
		Context: "real-time data attested by a third-party",
	})
	assert.LessOrEqual(t, got, 1.0)
	assert.Greater(t, got, 0.5)
}

func TestExtractFields(t *testing.T) {
	body := `<html><body>
		<h1>Proof of Reserves</h1>
		<p>Our reserves are attested daily by BDO, an independent accountant.</p>
	</body></html>`

	f := extractFields(body)
	assert.True(t, f.HasProofOfReserves)
	assert.Equal(t, "bdo", f.AttestationProvider)
	assert.Equal(t, "daily", f.UpdateFrequency)
	assert.Equal(t, "verified", f.VerificationStatus)
}

func TestExtractFieldsEmptyPage(t *testing.T) {
	f := extractFields("<html><body>Welcome to our exchange.</body></html>")
	assert.False(t, f.HasProofOfReserves)
	assert.Empty(t, f.AttestationProvider)
	assert.Empty(t, f.UpdateFrequency)
	assert.Empty(t, f.VerificationStatus)
}

func TestExtractFieldsFrequencyPrecedence(t *testing.T) {
	f := extractFields("Balances update in real-time; reports are published monthly.")
	assert.Equal(t, "real-time", f.UpdateFrequency)
}
