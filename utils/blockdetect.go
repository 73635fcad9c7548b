package utils

import (
	"net/http"
	"strings"
)

// interstitialMaxSize bounds the body of a captcha challenge page. Larger pages
// are real content that merely embeds a captcha widget, e.g. in a contact form.
const interstitialMaxSize = 8 << 10

// DetectBlock checks a response for signs of anti-bot protection and returns the marker found.
// resp may be nil for rendered pages, in which case only the body is inspected.
func DetectBlock(resp *http.Response, body []byte) (bool, string) {
	if resp != nil && (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable) {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("server") == "cloudflare" {
			return true, "cloudflare"
		}
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cf-challenge") {
		return true, "cloudflare"
	}

	challenge := len(body) < interstitialMaxSize || (resp != nil && resp.StatusCode >= http.StatusBadRequest)
	if challenge && (strings.Contains(lower, "g-recaptcha") ||
		strings.Contains(lower, "h-captcha") ||
		strings.Contains(lower, "captcha-delivery")) {
		return true, "captcha"
	}

	return false, ""
}
