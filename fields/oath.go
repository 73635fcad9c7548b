package fields

import (
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"
)

// MinOathYear is the earliest admission year accepted
const MinOathYear = 1950

// oathContextWindow is the distance, in characters, between a keyword and the year it qualifies
const oathContextWindow = 50

var (
	yearRe        = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	oathKeywordRe = regexp.MustCompile(`(?i)inscrit|inscription|serment|barreau|admission`)
)

// ValidOathYear reports whether year lies in [MinOathYear, current year]
func ValidOathYear(year int) bool {
	return year >= MinOathYear && year <= time.Now().Year()
}

// OathYear returns the admission year found in text, or 0.
// Each context keyword is attributed to the closest year within the window,
// so a date elsewhere in the sentence does not borrow the keyword. The most
// recent qualifying year wins.
func OathYear(text string) int {
	type candidate struct {
		year       int
		start, end int
	}

	var years []candidate
	for _, m := range yearRe.FindAllStringIndex(text, -1) {
		year, err := strconv.Atoi(text[m[0]:m[1]])
		if err != nil || !ValidOathYear(year) {
			continue
		}
		years = append(years, candidate{year: year, start: m[0], end: m[1]})
	}
	if len(years) == 0 {
		return 0
	}

	best := 0
	for _, kw := range oathKeywordRe.FindAllStringIndex(text, -1) {
		closest, closestDist := -1, oathContextWindow+1
		for i, c := range years {
			var dist int
			if c.start >= kw[1] {
				dist = utf8.RuneCountInString(text[kw[1]:c.start])
			} else {
				dist = utf8.RuneCountInString(text[c.end:kw[0]])
				// on ties prefer the year that follows the keyword ("inscrit en 1996")
				dist++
			}
			if dist < closestDist {
				closest, closestDist = i, dist
			}
		}
		if closest >= 0 && years[closest].year > best {
			best = years[closest].year
		}
	}
	return best
}
