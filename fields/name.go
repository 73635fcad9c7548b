package fields

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"barreau-extractor/internal/types"
)

var (
	honorificRe     = regexp.MustCompile(`(?i)^(?:ma[iî]tre|me|mme|mlle|mr|m\.|monsieur|madame)\s+`)
	nameSeparatorRe = regexp.MustCompile(`\s+[-–|]\s+|[,;|(]`)
	nameNoiseRe     = regexp.MustCompile(`(?i)\d|@|https?:|www\.|[:/\\<>{}\[\]=]`)
)

// particles are kept with the family name
var particles = map[string]bool{
	"de": true, "du": true, "des": true, "la": true, "le": true, "les": true,
	"van": true, "von": true, "der": true, "den": true, "del": true, "della": true,
	"di": true, "da": true, "dos": true, "das": true, "ben": true, "el": true,
	"al": true, "ter": true, "ten": true, "d'": true,
}

// CleanName strips honorifics and trailing labels and collapses whitespace
func CleanName(raw string) string {
	name := CollapseSpaces(raw)
	for {
		stripped := honorificRe.ReplaceAllString(name, "")
		if stripped == name {
			break
		}
		name = stripped
	}
	if loc := nameSeparatorRe.FindStringIndex(name); loc != nil && loc[0] > 0 {
		name = name[:loc[0]]
	}
	return strings.Trim(name, " .-–'")
}

// NormalizeName is the comparison form of a name: cleaned, folded, single-spaced
func NormalizeName(name string) string {
	return Fold(CleanName(name))
}

// SplitName splits a full name into given and family names under the declared convention.
// A contiguous upper-case block on the family-name side is taken as the family name;
// otherwise particles plus one core token are. When the whole name is upper-case the
// given names are Title-cased and the family name keeps its casing.
func SplitName(full string, convention types.Convention) (first, last string) {
	tokens := strings.Fields(full)
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return "", tokens[0]
	}

	allUpper := true
	for _, tok := range tokens {
		if !isUpperToken(tok) {
			allUpper = false
			break
		}
	}

	var k int
	if convention == types.FirstNameFirst {
		rev := reversed(tokens)
		if !allUpper {
			k = trailingFamilyRun(rev)
		}
		if k == 0 {
			k = coreThenParticles(rev)
		}
		first = strings.Join(tokens[:len(tokens)-k], " ")
		last = strings.Join(tokens[len(tokens)-k:], " ")
	} else {
		if !allUpper {
			k = leadingFamilyRun(tokens)
		}
		if k == 0 {
			k = particlesThenCore(tokens)
		}
		last = strings.Join(tokens[:k], " ")
		first = strings.Join(tokens[k:], " ")
	}

	if allUpper {
		first = TitleCase(first)
	}
	return first, last
}

// DetectConvention infers the ordering from casing when the name mixes an
// upper-case family name with mixed-case given names. Particles are neutral.
func DetectConvention(full string) (types.Convention, bool) {
	var pattern []bool
	for _, tok := range strings.Fields(full) {
		if particles[strings.ToLower(tok)] {
			continue
		}
		upper := isUpperToken(tok)
		if len(pattern) == 0 || pattern[len(pattern)-1] != upper {
			pattern = append(pattern, upper)
		}
	}
	if len(pattern) != 2 {
		return types.LastNameFirst, false
	}
	if pattern[0] {
		return types.LastNameFirst, true
	}
	return types.FirstNameFirst, true
}

// MalformedName flags values that cannot be a person's name
func MalformedName(name string) bool {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 || nameNoiseRe.MatchString(name) {
		return true
	}
	if len(strings.Fields(name)) > 6 {
		return true
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// LooksLikeName accepts short lines of two to five letter-only words
func LooksLikeName(line string) bool {
	line = CleanName(line)
	n := len(strings.Fields(line))
	if n < 2 || n > 5 || MalformedName(line) {
		return false
	}
	lower := Fold(line)
	for _, word := range []string{"avocat", "barreau", "cabinet", "rue ", "avenue", "annuaire", "contact", "specialite"} {
		if strings.Contains(lower, word) {
			return false
		}
	}
	return true
}

// TitleCase lower-cases s and capitalises each word, hyphenated parts included
func TitleCase(s string) string {
	return cases.Title(language.French).String(strings.ToLower(s))
}

// isUpperToken reports whether tok has letters and none of them is lower-case
func isUpperToken(tok string) bool {
	letters := 0
	for _, r := range tok {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2 || (letters == 1 && particles[strings.ToLower(tok)])
}

// leadingFamilyRun counts leading particles followed by upper-case tokens,
// leaving at least one token over. It is 0 when no upper-case token follows.
func leadingFamilyRun(tokens []string) int {
	p := 0
	for p < len(tokens)-1 && particles[strings.ToLower(tokens[p])] {
		p++
	}
	u := 0
	for p+u < len(tokens)-1 && isUpperToken(tokens[p+u]) {
		u++
	}
	if u == 0 {
		return 0
	}
	return p + u
}

// trailingFamilyRun is leadingFamilyRun over reversed tokens: upper-case tokens then particles
func trailingFamilyRun(rev []string) int {
	u := 0
	for u < len(rev)-1 && isUpperToken(rev[u]) {
		u++
	}
	if u == 0 {
		return 0
	}
	for u < len(rev)-1 && particles[strings.ToLower(rev[u])] {
		u++
	}
	return u
}

// particlesThenCore counts leading particles plus one core token, leaving at least one token over
func particlesThenCore(tokens []string) int {
	k := 0
	for k < len(tokens)-2 && particles[strings.ToLower(tokens[k])] {
		k++
	}
	return k + 1
}

// coreThenParticles is particlesThenCore over reversed tokens
func coreThenParticles(rev []string) int {
	k := 1
	for k < len(rev)-1 && particles[strings.ToLower(rev[k])] {
		k++
	}
	return k
}

// reversed returns tokens in reverse order
func reversed(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[len(tokens)-1-i] = tok
	}
	return out
}
