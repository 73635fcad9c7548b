package fields

import "strings"

// MaxSpecialisations caps the entries kept per lawyer
const MaxSpecialisations = 5

// Taxonomy is the fixed list of practice areas, in output order
var Taxonomy = []string{
	"droit civil",
	"droit pénal",
	"droit commercial",
	"droit du travail",
	"droit de la famille",
	"droit immobilier",
	"droit des affaires",
	"droit public",
	"droit administratif",
	"droit fiscal",
	"droit social",
	"droit bancaire",
	"droit des étrangers",
	"droit des sociétés",
	"droit de la santé",
	"droit de la propriété intellectuelle",
	"droit du numérique",
	"droit rural",
	"droit du sport",
	"droit international",
}

var foldedTaxonomy = func() []string {
	folded := make([]string, len(Taxonomy))
	for i, entry := range Taxonomy {
		folded[i] = Fold(entry)
	}
	return folded
}()

// Specialisations returns the taxonomy entries mentioned in text, ignoring case and accents
func Specialisations(text string) []string {
	haystack := Fold(CollapseSpaces(text))

	var found []string
	for i, needle := range foldedTaxonomy {
		if strings.Contains(haystack, needle) {
			found = append(found, Taxonomy[i])
			if len(found) == MaxSpecialisations {
				break
			}
		}
	}
	return found
}

// IsSpecialisation reports whether entry belongs to the taxonomy
func IsSpecialisation(entry string) bool {
	folded := Fold(entry)
	for _, t := range foldedTaxonomy {
		if t == folded {
			return true
		}
	}
	return false
}
