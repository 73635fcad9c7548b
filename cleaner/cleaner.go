// Package cleaner validates, de-duplicates and reconciles the records of one run.
package cleaner

import (
	"math"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"barreau-extractor/fields"
	"barreau-extractor/internal/types"
)

// nameConflictSimilarity is the Jaro-Winkler score under which two names in one email group disagree
const nameConflictSimilarity = 0.75

// Audit reasons
const (
	ReasonInvalidEmail     = "invalid email"
	ReasonPlaceholderEmail = "placeholder email"
	ReasonGenericEmail     = "generic email"
)

// Finding is one email cleared during validation
type Finding struct {
	SourceURL string
	FullName  string
	Email     string
	Reason    string
}

// Stats counts what the cleaning pass changed
type Stats struct {
	Input               int
	Output              int
	InvalidEmails       int
	GenericEmails       int
	GenericAddresses    []string
	DuplicatesCollapsed int
	NameReconciliations int
	NameConflicts       int
	Audit               []Finding
}

// Cleaner runs the validation, deduplication and name reconciliation passes
type Cleaner struct {
	threshold  int
	convention types.Convention
	logger     types.Logger
}

// New creates a cleaner. Emails shared by at least threshold records are treated as generic.
func New(threshold int, convention types.Convention, logger types.Logger) *Cleaner {
	return &Cleaner{
		threshold:  threshold,
		convention: convention,
		logger:     logger,
	}
}

// Clean returns the cleaned records in their original relative order.
// Records are modified in place.
func (c *Cleaner) Clean(records []*types.Lawyer) ([]*types.Lawyer, Stats) {
	stats := Stats{Input: len(records)}

	c.validateEmails(records, &stats)
	c.clearGenericEmails(records, &stats)
	out := c.deduplicate(records, &stats)

	for _, lawyer := range out {
		if c.reconcile(lawyer) {
			stats.NameReconciliations++
		}
	}

	stats.Output = len(out)
	c.logger.Infof("Cleaning done: %d in, %d out, %d invalid emails, %d generic emails cleared, %d duplicates collapsed, %d names reconciled",
		stats.Input, stats.Output, stats.InvalidEmails, stats.GenericEmails, stats.DuplicatesCollapsed, stats.NameReconciliations)
	return out, stats
}

// validateEmails normalises every email and clears those failing the grammar
// or carrying a placeholder part. Extraction keeps mailto values verbatim, so
// this is where a placeholder mailto leaves the output.
func (c *Cleaner) validateEmails(records []*types.Lawyer, stats *Stats) {
	for _, lawyer := range records {
		if lawyer.Email == "" {
			continue
		}
		email := fields.NormalizeEmail(lawyer.Email)
		reason := ""
		switch {
		case !fields.ValidEmail(email):
			reason = ReasonInvalidEmail
		case fields.BannedEmail(email):
			reason = ReasonPlaceholderEmail
		}
		if reason != "" {
			c.logger.Debugf("Clearing %s %q of %s", reason, lawyer.Email, lawyer.FullName)
			stats.Audit = append(stats.Audit, Finding{
				SourceURL: lawyer.SourceURL,
				FullName:  lawyer.FullName,
				Email:     lawyer.Email,
				Reason:    reason,
			})
			stats.InvalidEmails++
			lawyer.Email = ""
			continue
		}
		lawyer.Email = email
	}
}

// clearGenericEmails removes addresses that appear on threshold or more records
func (c *Cleaner) clearGenericEmails(records []*types.Lawyer, stats *Stats) {
	histogram := make(map[string]int)
	for _, lawyer := range records {
		if lawyer.Email != "" {
			histogram[lawyer.Email]++
		}
	}

	generic := make(map[string]bool)
	for _, lawyer := range records {
		email := lawyer.Email
		if email == "" || histogram[email] < c.threshold {
			continue
		}
		if !generic[email] {
			generic[email] = true
			stats.GenericAddresses = append(stats.GenericAddresses, email)
			c.logger.Infof("Generic email %s found on %d records, clearing", email, histogram[email])
		}
		stats.Audit = append(stats.Audit, Finding{
			SourceURL: lawyer.SourceURL,
			FullName:  lawyer.FullName,
			Email:     email,
			Reason:    ReasonGenericEmail,
		})
		stats.GenericEmails++
		lawyer.Email = ""
	}
}

// deduplicate collapses records sharing an email into the best scoring one,
// which takes the position of the group's first record
func (c *Cleaner) deduplicate(records []*types.Lawyer, stats *Stats) []*types.Lawyer {
	groups := make(map[string][]int)
	for i, lawyer := range records {
		if lawyer.Email != "" {
			groups[lawyer.Email] = append(groups[lawyer.Email], i)
		}
	}

	out := make([]*types.Lawyer, 0, len(records))
	for i, lawyer := range records {
		members := groups[lawyer.Email]
		if lawyer.Email == "" || len(members) < 2 {
			out = append(out, lawyer)
			continue
		}
		if members[0] != i {
			continue
		}

		best := members[0]
		for _, m := range members[1:] {
			if Score(records[m]) > Score(records[best]) {
				best = m
			}
		}

		winner := records[best]
		conflict := false
		for _, m := range members {
			if m == best {
				continue
			}
			merge(winner, records[m])
			if matchr.JaroWinkler(fields.NormalizeName(winner.FullName), fields.NormalizeName(records[m].FullName), false) < nameConflictSimilarity {
				conflict = true
			}
		}
		if conflict {
			stats.NameConflicts++
			c.logger.Warnf("Records sharing %s carry different names", winner.Email)
		}

		stats.DuplicatesCollapsed += len(members) - 1
		out = append(out, winner)
	}
	return out
}

// reconcile re-splits the name, following its casing when that contradicts the site convention
func (c *Cleaner) reconcile(lawyer *types.Lawyer) bool {
	convention := c.convention
	if detected, ok := fields.DetectConvention(lawyer.FullName); ok {
		convention = detected
	}

	first, last := fields.SplitName(lawyer.FullName, convention)
	if first == lawyer.FirstName && last == lawyer.LastName {
		return false
	}
	c.logger.Debugf("Reconciled %q: first=%q last=%q", lawyer.FullName, first, last)
	lawyer.FirstName, lawyer.LastName = first, last
	return true
}

// Score weighs a record's completeness; malformed names score -Inf
func Score(lawyer *types.Lawyer) float64 {
	if malformed(lawyer.FirstName) || malformed(lawyer.LastName) {
		return math.Inf(-1)
	}

	score := 0.0
	if lawyer.Phone != "" && fields.NormalizePhone(lawyer.Phone) == lawyer.Phone {
		score += 10
	}
	if utf8.RuneCountInString(lawyer.City) >= 2 {
		score += 8
	}
	if utf8.RuneCountInString(lawyer.Address) >= 10 {
		score += 6
	}
	if lawyer.OathYear != 0 {
		score += 5
	}
	if lawyer.Structure != "" {
		score += 4
	}
	if len(lawyer.Specialisations) > 0 {
		score += 3
	}
	if utf8.RuneCountInString(lawyer.LastName) >= 4 {
		score += 3
	}
	if utf8.RuneCountInString(lawyer.FirstName) >= 4 {
		score += 3
	}
	return score
}

// malformed ignores absent name parts
func malformed(name string) bool {
	return name != "" && fields.MalformedName(name)
}

// merge fills the winner's empty fields from a loser
func merge(winner, loser *types.Lawyer) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}

	fill(&winner.Phone, loser.Phone)
	fill(&winner.Fax, loser.Fax)
	fill(&winner.Address, loser.Address)
	fill(&winner.PostalCode, loser.PostalCode)
	fill(&winner.City, loser.City)
	if winner.OathYear == 0 {
		winner.OathYear = loser.OathYear
	}
	if len(winner.Specialisations) == 0 && len(loser.Specialisations) > 0 {
		winner.Specialisations = append([]string(nil), loser.Specialisations...)
	}
	if winner.Structure == "" && loser.Structure != "" {
		winner.Structure = loser.Structure
		winner.StructureType = loser.StructureType
	}
	fill(&winner.StructureType, loser.StructureType)

	for k, v := range loser.Extras {
		if _, ok := winner.Extras[k]; ok {
			continue
		}
		if winner.Extras == nil {
			winner.Extras = make(map[string]string)
		}
		winner.Extras[k] = v
	}
}
