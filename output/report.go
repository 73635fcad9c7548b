package output

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"barreau-extractor/cleaner"
	"barreau-extractor/internal/types"
)

// topSpecialisations is the number of practice areas listed in the report
const topSpecialisations = 10

// Summary carries the run counters the report needs besides the records
type Summary struct {
	RunID       string
	Site        string
	Start       time.Time
	Duration    time.Duration
	Processed   int
	Dropped     int
	FetchErrors int
	Interrupted bool
	Cleaning    cleaner.Stats
	Files       []string
}

// Completeness is the share of records carrying one field
type Completeness struct {
	Field   string
	Count   int
	Percent float64
}

// FieldCompleteness returns per-field fill rates in CSV column order
func FieldCompleteness(records []*types.Lawyer) []Completeness {
	checks := []struct {
		field string
		has   func(*types.Lawyer) bool
	}{
		{"full_name", func(l *types.Lawyer) bool { return l.FullName != "" }},
		{"first_name", func(l *types.Lawyer) bool { return l.FirstName != "" }},
		{"last_name", func(l *types.Lawyer) bool { return l.LastName != "" }},
		{"email", func(l *types.Lawyer) bool { return l.Email != "" }},
		{"phone", func(l *types.Lawyer) bool { return l.Phone != "" }},
		{"fax", func(l *types.Lawyer) bool { return l.Fax != "" }},
		{"address", func(l *types.Lawyer) bool { return l.Address != "" }},
		{"postal_code", func(l *types.Lawyer) bool { return l.PostalCode != "" }},
		{"city", func(l *types.Lawyer) bool { return l.City != "" }},
		{"oath_year", func(l *types.Lawyer) bool { return l.OathYear != 0 }},
		{"specialisations", func(l *types.Lawyer) bool { return len(l.Specialisations) > 0 }},
		{"structure", func(l *types.Lawyer) bool { return l.Structure != "" }},
	}

	out := make([]Completeness, 0, len(checks))
	for _, c := range checks {
		n := 0
		for _, l := range records {
			if c.has(l) {
				n++
			}
		}
		pct := 0.0
		if len(records) > 0 {
			pct = float64(n) * 100 / float64(len(records))
		}
		out = append(out, Completeness{Field: c.field, Count: n, Percent: pct})
	}
	return out
}

// SpecialisationCount is one row of the specialisation ranking
type SpecialisationCount struct {
	Name  string
	Count int
}

// TopSpecialisations ranks practice areas by record count, ties in alphabetical order
func TopSpecialisations(records []*types.Lawyer, n int) []SpecialisationCount {
	counts := make(map[string]int)
	for _, l := range records {
		for _, s := range l.Specialisations {
			counts[s]++
		}
	}

	ranking := make([]SpecialisationCount, 0, len(counts))
	for name, count := range counts {
		ranking = append(ranking, SpecialisationCount{Name: name, Count: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Name < ranking[j].Name
	})
	if len(ranking) > n {
		ranking = ranking[:n]
	}
	return ranking
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

// RenderReport produces the human-readable run report
func RenderReport(records []*types.Lawyer, summary Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "RAPPORT D'EXTRACTION - %s\n", strings.ToUpper(summary.Site))
	fmt.Fprintf(&b, "Exécution : %s\n", summary.RunID)
	fmt.Fprintf(&b, "Début : %s\n", summary.Start.Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "Durée : %s\n", summary.Duration.Round(time.Second))
	if summary.Interrupted {
		b.WriteString("Statut : interrompu, résultats partiels\n")
	}
	b.WriteString("\n")

	results := newTable("RÉSULTATS")
	results.AppendRows([]table.Row{
		{"Fiches traitées", summary.Processed},
		{"Avocats retenus", len(records)},
		{"Fiches rejetées (champ obligatoire manquant)", summary.Dropped},
		{"Erreurs de récupération", summary.FetchErrors},
	})
	results.AppendSeparator()
	results.AppendRows([]table.Row{
		{"Emails invalides supprimés", summary.Cleaning.InvalidEmails},
		{"Emails génériques supprimés", summary.Cleaning.GenericEmails},
		{"Doublons fusionnés", summary.Cleaning.DuplicatesCollapsed},
		{"Noms rectifiés", summary.Cleaning.NameReconciliations},
		{"Conflits de noms", summary.Cleaning.NameConflicts},
	})
	results.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	b.WriteString(results.Render())
	b.WriteString("\n\n")

	if len(summary.Cleaning.GenericAddresses) > 0 {
		b.WriteString("Adresses génériques : " + strings.Join(summary.Cleaning.GenericAddresses, ", ") + "\n\n")
	}

	completeness := newTable("COMPLÉTUDE")
	completeness.AppendHeader(table.Row{"Champ", "Renseignés", "%"})
	for _, c := range FieldCompleteness(records) {
		completeness.AppendRow(table.Row{c.Field, c.Count, fmt.Sprintf("%.1f%%", c.Percent)})
	}
	completeness.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	b.WriteString(completeness.Render())
	b.WriteString("\n\n")

	if top := TopSpecialisations(records, topSpecialisations); len(top) > 0 {
		specs := newTable("SPÉCIALISATIONS (TOP 10)")
		specs.AppendHeader(table.Row{"#", "Spécialisation", "Avocats"})
		for i, s := range top {
			specs.AppendRow(table.Row{i + 1, s.Name, s.Count})
		}
		b.WriteString(specs.Render())
		b.WriteString("\n\n")
	}

	b.WriteString("FICHIERS GÉNÉRÉS\n")
	for _, f := range summary.Files {
		b.WriteString("  " + filepath.Base(f) + "\n")
	}
	return b.String()
}
