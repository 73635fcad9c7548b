package fields

import (
	"regexp"
	"strings"
)

var (
	phoneRe      = regexp.MustCompile(`(?:\+33\s?\(0\)\s?|\+33[\s.\-]?|0033[\s.\-]?|\b0)[1-9](?:[ \t.\-\x{00a0}]?\d){8}\b`)
	canonPhoneRe = regexp.MustCompile(`^0[1-9]\d{8}$`)
	faxLabelRe   = regexp.MustCompile(`(?i)fax|t[ée]l[ée]copie`)
	telLabelRe   = regexp.MustCompile(`(?i)t[ée]l|phone|portable|mobile|standard`)
	digitRe      = regexp.MustCompile(`\d`)
)

// faxContextWindow is the distance, in bytes, a fax label may sit from a number
const faxContextWindow = 20

// NormalizePhone canonicalises a French number to 0X.XX.XX.XX.XX, or returns ""
func NormalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "(0)", "")

	var digits strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' && i == 0:
			digits.WriteRune(r)
		case r == ' ' || r == '.' || r == '-' || r == '\u00a0':
		default:
			return ""
		}
	}

	d := digits.String()
	switch {
	case strings.HasPrefix(d, "+33"):
		d = "0" + d[3:]
	case strings.HasPrefix(d, "0033"):
		d = "0" + d[4:]
	}

	if !canonPhoneRe.MatchString(d) {
		return ""
	}
	return d[0:2] + "." + d[2:4] + "." + d[4:6] + "." + d[6:8] + "." + d[8:10]
}

// Phone returns the first recognised number: tel: hrefs first, then text
// candidates that are not labelled as fax
func Phone(src Source) string {
	for _, tel := range src.Tels {
		if phone := NormalizePhone(tel); phone != "" {
			return phone
		}
	}
	for _, loc := range phoneRe.FindAllStringIndex(src.Text, -1) {
		if isFaxContext(src.Text, loc[0], loc[1]) {
			continue
		}
		if phone := NormalizePhone(src.Text[loc[0]:loc[1]]); phone != "" {
			return phone
		}
	}
	return ""
}

// Fax returns the first number labelled as fax in the text
func Fax(src Source) string {
	for _, loc := range phoneRe.FindAllStringIndex(src.Text, -1) {
		if !isFaxContext(src.Text, loc[0], loc[1]) {
			continue
		}
		if fax := NormalizePhone(src.Text[loc[0]:loc[1]]); fax != "" {
			return fax
		}
	}
	return ""
}

// isFaxContext decides whether the number at text[start:end] is a fax.
// The nearest label before the number wins, and "télécopie" also reads as
// "tél" so fax wins ties. A fax label right after the number counts only when
// no other digits sit in between.
func isFaxContext(text string, start, end int) bool {
	before := text[max(0, start-faxContextWindow):start]
	faxAt := lastIndex(faxLabelRe, before)
	telAt := lastIndex(telLabelRe, before)
	if faxAt >= 0 {
		return faxAt >= telAt
	}
	if telAt >= 0 {
		return false
	}

	after := text[end:min(len(text), end+faxContextWindow)]
	if loc := faxLabelRe.FindStringIndex(after); loc != nil {
		return !digitRe.MatchString(after[:loc[0]])
	}
	return false
}

func lastIndex(re *regexp.Regexp, s string) int {
	all := re.FindAllStringIndex(s, -1)
	if len(all) == 0 {
		return -1
	}
	return all[len(all)-1][0]
}
