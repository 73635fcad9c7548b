package fields

import (
	"regexp"
	"strings"
)

// PostalAddress is the outcome of the address heuristic
type PostalAddress struct {
	Address    string
	PostalCode string
	City       string
}

const (
	maxAddressLength = 200
	// maxStreetLookback bounds how many lines above the postal code are searched for a street keyword
	maxStreetLookback = 3
)

var (
	postalCityRe   = regexp.MustCompile(`(?:^|[^\d])((?:0[1-9]|[1-8]\d|9[0-8])\d{3})[ ,]+(\p{L}[\p{L}'’ \-]*)`)
	postalCodeRe   = regexp.MustCompile(`(?:^|[^\d])((?:0[1-9]|[1-8]\d|9[0-8])\d{3})(?:[^\d]|$)`)
	streetRe       = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(rue|avenue|boulevard|bd|place|chemin|allée|allee|impasse|route|résidence|residence|quai)(?:[^\p{L}]|$)`)
	trailingRe     = regexp.MustCompile(`(?i)(?:^|[\s\-–|,]+)(?:t[ée]l|fax|t[ée]l[ée]copie|e-?mail|courriel|portable|mobile)\b.*$`)
	cedexRe        = regexp.MustCompile(`(?i)\s+cedex(?:\s+\d+)?\s*$`)
	addressLabelRe = regexp.MustCompile(`(?i)^(?:adresse|cabinet|bureau)\s*:\s*`)
	fiveDigitsRe   = regexp.MustCompile(`^\d{5}$`)
)

// Address searches the text for a postal code and returns the containing line
// joined with the preceding lines up to the nearest street keyword.
func Address(src Source) PostalAddress {
	lines := strings.Split(src.Text, "\n")

	if addr, ok := findAddress(lines, true); ok {
		return addr
	}
	addr, _ := findAddress(lines, false)
	return addr
}

func findAddress(lines []string, withCity bool) (PostalAddress, bool) {
	for i, line := range lines {
		var code, city string
		if withCity {
			m := postalCityRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			code, city = m[1], cleanCity(m[2])
		} else {
			m := postalCodeRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			code = m[1]
		}

		start := i
		for j := i; j >= 0 && j >= i-maxStreetLookback; j-- {
			if streetRe.MatchString(lines[j]) {
				start = j
				break
			}
		}

		parts := make([]string, 0, i-start+1)
		for j := start; j <= i; j++ {
			part := addressLabelRe.ReplaceAllString(lines[j], "")
			if j == i {
				part = trailingRe.ReplaceAllString(part, "")
			}
			if part = strings.Trim(CollapseSpaces(part), " ,-"); part != "" {
				parts = append(parts, part)
			}
		}

		return PostalAddress{
			Address:    truncateRunes(strings.Join(parts, ", "), maxAddressLength),
			PostalCode: code,
			City:       city,
		}, true
	}
	return PostalAddress{}, false
}

// cleanCity drops trailing labels, CEDEX suffixes and separators from a city capture
func cleanCity(city string) string {
	city = trailingRe.ReplaceAllString(city, "")
	if i := strings.Index(city, " - "); i > 0 {
		city = city[:i]
	}
	city = cedexRe.ReplaceAllString(city, "")
	return strings.Trim(CollapseSpaces(city), " -'’")
}

// ValidPostalCode reports whether code is exactly five ASCII digits
func ValidPostalCode(code string) bool {
	return fiveDigitsRe.MatchString(code)
}
