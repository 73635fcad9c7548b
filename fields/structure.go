package fields

import (
	"regexp"
	"strings"

	"barreau-extractor/internal/types"
)

const maxStructureLength = 120

var (
	companyFormRe = regexp.MustCompile(`\b(?:SCP|SELARL|SELAS|SELAFA|SELCA|SELURL|SELASU|AARPI|SCM|SAS|SASU|SARL|EURL|SPFPL)\b`)
	cabinetRe     = regexp.MustCompile(`(?i)^\s*(?:cabinet|soci[ée]t[ée] d'avocats)\b`)
)

// Structure returns the firm line of the text and its classification.
// This is a best-effort hint: a line starting with "Cabinet" or carrying a
// legal form is taken as the firm name, anything else is individual practice.
func Structure(text string) (name, kind string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if companyFormRe.MatchString(line) {
			return truncateRunes(line, maxStructureLength), types.StructureCompany
		}
		if cabinetRe.MatchString(line) {
			return truncateRunes(line, maxStructureLength), types.StructureCabinet
		}
	}
	return "", types.StructureIndividual
}
