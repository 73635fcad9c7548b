package cleaner

import (
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barreau-extractor/internal/types"
)

func newTestCleaner(threshold int) *Cleaner {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(threshold, types.LastNameFirst, logger)
}

func lawyer(full, first, last, email string) *types.Lawyer {
	return &types.Lawyer{
		FullName:      full,
		FirstName:     first,
		LastName:      last,
		Email:         email,
		StructureType: types.StructureIndividual,
		SourceURL:     "https://www.barreau-x.fr/annuaire",
	}
}

func TestClean_GenericEmailSuppression(t *testing.T) {
	var records []*types.Lawyer
	for i := 0; i < 97; i++ {
		records = append(records, lawyer(fmt.Sprintf("AVOCAT%02d Jean", i), "Jean", fmt.Sprintf("AVOCAT%02d", i), "contact@barreau-x.fr"))
	}
	records = append(records,
		lawyer("DURAND Pierre", "Pierre", "DURAND", "p.durand@avocat.fr"),
		lawyer("MARTIN Sophie", "Sophie", "MARTIN", "s.martin@avocat.fr"),
		lawyer("BERNARD Luc", "Luc", "BERNARD", ""),
	)

	out, stats := newTestCleaner(50).Clean(records)

	require.Len(t, out, 100)
	assert.Equal(t, 97, stats.GenericEmails)
	assert.Equal(t, []string{"contact@barreau-x.fr"}, stats.GenericAddresses)
	assert.Equal(t, 0, stats.DuplicatesCollapsed)
	for _, l := range out[:97] {
		assert.Empty(t, l.Email)
	}
	assert.Equal(t, "p.durand@avocat.fr", out[97].Email)
	assert.Equal(t, "s.martin@avocat.fr", out[98].Email)
	assert.Len(t, stats.Audit, 97)
	assert.Equal(t, ReasonGenericEmail, stats.Audit[0].Reason)
}

func TestClean_BelowThresholdIsDeduplicated(t *testing.T) {
	records := []*types.Lawyer{
		lawyer("DURAND Pierre", "Pierre", "DURAND", "contact@barreau-x.fr"),
		lawyer("MARTIN Sophie", "Sophie", "MARTIN", "contact@barreau-x.fr"),
	}

	out, stats := newTestCleaner(50).Clean(records)

	assert.Equal(t, 0, stats.GenericEmails)
	assert.Equal(t, 1, stats.DuplicatesCollapsed)
	assert.Equal(t, 1, stats.NameConflicts)
	assert.Len(t, out, 1)
}

func TestClean_InvalidEmail(t *testing.T) {
	records := []*types.Lawyer{
		lawyer("DURAND Pierre", "Pierre", "DURAND", "p..durand@avocat.fr"),
		lawyer("MARTIN Sophie", "Sophie", "MARTIN", " S.Martin@Avocat.fr "),
	}

	out, stats := newTestCleaner(50).Clean(records)

	assert.Equal(t, 1, stats.InvalidEmails)
	assert.Equal(t, "", out[0].Email)
	assert.Equal(t, "s.martin@avocat.fr", out[1].Email)
	require.Len(t, stats.Audit, 1)
	assert.Equal(t, ReasonInvalidEmail, stats.Audit[0].Reason)
	assert.Equal(t, "p..durand@avocat.fr", stats.Audit[0].Email)
}

func TestClean_PlaceholderEmail(t *testing.T) {
	records := []*types.Lawyer{
		lawyer("DURAND Pierre", "Pierre", "DURAND", "me@example.org"),
		lawyer("MARTIN Sophie", "Sophie", "MARTIN", "s.martin@avocat.fr"),
	}

	out, stats := newTestCleaner(50).Clean(records)

	assert.Equal(t, 1, stats.InvalidEmails)
	assert.Equal(t, "", out[0].Email)
	assert.Equal(t, "s.martin@avocat.fr", out[1].Email)
	require.Len(t, stats.Audit, 1)
	assert.Equal(t, ReasonPlaceholderEmail, stats.Audit[0].Reason)
}

func TestClean_DeduplicationWinner(t *testing.T) {
	b := lawyer("DURAND Pierre", "Pierre", "DURAND", "ME@x.fr")
	b.Address = "12 rue des Lilas, 74000 Annecy"

	other := lawyer("MARTIN Sophie", "Sophie", "MARTIN", "s.martin@avocat.fr")

	a := lawyer("DURAND Pierre", "Pierre", "DURAND", "me@x.fr")
	a.Phone = "06.12.34.56.78"
	a.City = "Annecy"
	a.OathYear = 1996

	out, stats := newTestCleaner(50).Clean([]*types.Lawyer{b, other, a})

	require.Len(t, out, 2)
	assert.Equal(t, 1, stats.DuplicatesCollapsed)
	assert.Equal(t, 0, stats.NameConflicts)

	winner := out[0]
	assert.Same(t, a, winner)
	assert.Equal(t, "me@x.fr", winner.Email)
	assert.Equal(t, "06.12.34.56.78", winner.Phone)
	assert.Equal(t, "Annecy", winner.City)
	assert.Equal(t, 1996, winner.OathYear)
	assert.Equal(t, "12 rue des Lilas, 74000 Annecy", winner.Address)
	assert.Same(t, other, out[1])
}

func TestClean_MergeDoesNotOverwrite(t *testing.T) {
	a := lawyer("DURAND Pierre", "Pierre", "DURAND", "me@x.fr")
	a.Phone = "06.12.34.56.78"
	a.Address = "1 place du Palais, 74000 Annecy"
	a.Extras = map[string]string{"toque": "A12"}

	b := lawyer("DURAND Pierre", "Pierre", "DURAND", "me@x.fr")
	b.Address = "12 rue des Lilas, 74000 Annecy"
	b.Specialisations = []string{"droit pénal"}
	b.Structure = "SCP Durand"
	b.StructureType = types.StructureCompany
	b.Extras = map[string]string{"toque": "B34", "langues": "anglais"}

	out, _ := newTestCleaner(50).Clean([]*types.Lawyer{a, b})

	require.Len(t, out, 1)
	assert.Equal(t, "1 place du Palais, 74000 Annecy", out[0].Address)
	assert.Equal(t, []string{"droit pénal"}, out[0].Specialisations)
	assert.Equal(t, "SCP Durand", out[0].Structure)
	assert.Equal(t, types.StructureCompany, out[0].StructureType)
	assert.Equal(t, map[string]string{"toque": "A12", "langues": "anglais"}, out[0].Extras)
}

func TestClean_NameReconciliation(t *testing.T) {
	// "Pierre DURAND" split under the last-name-first convention
	swapped := lawyer("Pierre DURAND", "DURAND", "Pierre", "")
	regular := lawyer("DE LUNARDO Marie", "Marie", "DE LUNARDO", "")

	out, stats := newTestCleaner(50).Clean([]*types.Lawyer{swapped, regular})

	assert.Equal(t, 1, stats.NameReconciliations)
	assert.Equal(t, "Pierre", out[0].FirstName)
	assert.Equal(t, "DURAND", out[0].LastName)
	assert.Equal(t, "Pierre DURAND", out[0].FullName)
	assert.Equal(t, "Marie", out[1].FirstName)
	assert.Equal(t, "DE LUNARDO", out[1].LastName)
}

func TestClean_Idempotent(t *testing.T) {
	a := lawyer("DURAND Pierre", "Pierre", "DURAND", "me@x.fr")
	a.Phone = "06.12.34.56.78"
	b := lawyer("DURAND Pierre", "Pierre", "DURAND", "me@x.fr")
	b.City = "Annecy"
	c := lawyer("Pierre MARTIN", "MARTIN", "Pierre", "bad@@x.fr")
	d := lawyer("BERNARD Luc", "Luc", "BERNARD", "contact@barreau-x.fr")
	e := lawyer("PETIT Anne", "Anne", "PETIT", "contact@barreau-x.fr")

	cl := newTestCleaner(3)
	first, _ := cl.Clean([]*types.Lawyer{a, b, c, d, e})

	snapshot := make([]types.Lawyer, len(first))
	for i, l := range first {
		snapshot[i] = *l
	}

	second, stats := cl.Clean(first)

	require.Len(t, second, len(snapshot))
	for i := range second {
		assert.Equal(t, snapshot[i], *second[i])
	}
	assert.Equal(t, 0, stats.InvalidEmails)
	assert.Equal(t, 0, stats.GenericEmails)
	assert.Equal(t, 0, stats.DuplicatesCollapsed)
	assert.Equal(t, 0, stats.NameReconciliations)
}

func TestScore(t *testing.T) {
	full := lawyer("DURAND Pierre", "Pierre", "DURAND", "me@x.fr")
	full.Phone = "06.12.34.56.78"
	full.City = "Annecy"
	full.Address = "12 rue des Lilas"
	full.OathYear = 1996
	full.Structure = "SCP Durand"
	full.Specialisations = []string{"droit pénal"}

	assert.Equal(t, 42.0, Score(full))

	short := lawyer("LI Bo", "Bo", "LI", "")
	assert.Equal(t, 0.0, Score(short))

	badPhone := lawyer("LI Bo", "Bo", "LI", "")
	badPhone.Phone = "+33 6 12 34 56 78"
	assert.Equal(t, 0.0, Score(badPhone))

	broken := lawyer("contact@x.fr", "", "contact@x.fr", "")
	assert.True(t, math.IsInf(Score(broken), -1))
}
