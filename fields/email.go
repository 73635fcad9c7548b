package fields

import (
	"regexp"
	"strings"
)

var (
	emailRe     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	emailFullRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

	obfuscatedAtRe  = regexp.MustCompile(`(?i)\s*(?:\[at\]|\(at\)|\{at\}|\s+arobase\s+)\s*`)
	obfuscatedDotRe = regexp.MustCompile(`(?i)\s*(?:\[dot\]|\(dot\)|\[point\]|\(point\))\s*`)
)

// bannedEmailParts flags template and hosting placeholders that show up in page text
var bannedEmailParts = []string{"example", "domain", "wordpress", "wpengine"}

// ValidEmail checks the address grammar and the dot placement rules
func ValidEmail(email string) bool {
	if !emailFullRe.MatchString(email) {
		return false
	}
	local, domain, _ := strings.Cut(email, "@")
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// BannedEmail reports whether email contains a placeholder substring
func BannedEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, part := range bannedEmailParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(email), ".,;:<>()[]\"'"))
}

// Email returns the listing's primary address. mailto: hrefs win over text
// matches; text matches additionally skip placeholder addresses.
func Email(src Source) string {
	for _, m := range src.Mailtos {
		for _, candidate := range strings.FieldsFunc(m, func(r rune) bool { return r == ',' || r == ';' }) {
			email := NormalizeEmail(candidate)
			if ValidEmail(email) {
				return email
			}
		}
	}

	text := deobfuscate(src.Text)
	for _, match := range emailRe.FindAllString(text, -1) {
		email := NormalizeEmail(match)
		if ValidEmail(email) && !BannedEmail(email) {
			return email
		}
	}
	return ""
}

// Emails returns every distinct valid address of the text, in order of appearance
func Emails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, match := range emailRe.FindAllString(deobfuscate(text), -1) {
		email := NormalizeEmail(match)
		if !seen[email] && ValidEmail(email) && !BannedEmail(email) {
			seen[email] = true
			out = append(out, email)
		}
	}
	return out
}

func deobfuscate(text string) string {
	if !strings.ContainsAny(text, "[({") && !strings.Contains(strings.ToLower(text), "arobase") {
		return text
	}
	text = obfuscatedAtRe.ReplaceAllString(text, "@")
	return obfuscatedDotRe.ReplaceAllString(text, ".")
}
