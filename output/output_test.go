package output

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barreau-extractor/cleaner"
	"barreau-extractor/internal/types"
)

var runStart = time.Date(2025, 3, 14, 10, 30, 5, 0, time.Local)

func newTestWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	dir := filepath.Join(t.TempDir(), "out")
	return NewWriter(dir, "annecy", runStart, logger), dir
}

func sampleRecords() []*types.Lawyer {
	return []*types.Lawyer{
		{
			FullName:            "DURAND Pierre-Henri",
			FirstName:           "Pierre-Henri",
			LastName:            "DURAND",
			Email:               "p.durand@avocat.fr",
			Phone:               "04.50.45.12.34",
			Fax:                 "04.50.45.12.35",
			Address:             "12 rue des Lilas, 74000 Annecy",
			PostalCode:          "74000",
			City:                "Annecy",
			OathYear:            1996,
			Specialisations:     []string{"droit pénal", "droit de la famille"},
			Structure:           "SELARL Durand & Associés",
			StructureType:       types.StructureCompany,
			SourceURL:           "https://www.avocats-annecy.fr/annuaire?page=1",
			ExtractionTimestamp: runStart,
		},
		{
			FullName:            "MARTIN Sophie",
			FirstName:           "Sophie",
			LastName:            "MARTIN",
			Email:               "a.martin@avocat.fr",
			Address:             "3 place du Palais, \"Bât. B\", 74000 Annecy",
			Specialisations:     []string{"droit pénal"},
			StructureType:       types.StructureIndividual,
			SourceURL:           "https://www.avocats-annecy.fr/annuaire?page=2",
			ExtractionTimestamp: runStart,
		},
		{
			FullName:            "BERNARD Luc",
			FirstName:           "Luc",
			LastName:            "BERNARD",
			StructureType:       types.StructureIndividual,
			SourceURL:           "https://www.avocats-annecy.fr/annuaire?page=2",
			ExtractionTimestamp: runStart,
		},
	}
}

func TestWriteAll(t *testing.T) {
	w, dir := newTestWriter(t)
	records := sampleRecords()

	artifacts, err := w.WriteAll(records, Summary{RunID: "run-1", Site: "annecy", Start: runStart, Processed: 4, Dropped: 1})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "annecy_COMPLET_20250314_103005.json"), artifacts.JSON)
	assert.Equal(t, filepath.Join(dir, "annecy_COMPLET_20250314_103005.csv"), artifacts.CSV)
	assert.Equal(t, filepath.Join(dir, "annecy_EMAILS_20250314_103005.txt"), artifacts.Emails)
	assert.Equal(t, filepath.Join(dir, "annecy_RAPPORT_20250314_103005.txt"), artifacts.Report)

	emails, err := os.ReadFile(artifacts.Emails)
	require.NoError(t, err)
	assert.Equal(t, "a.martin@avocat.fr\np.durand@avocat.fr\n", string(emails))

	fromJSON, err := ReadJSON(artifacts.JSON)
	require.NoError(t, err)
	require.Len(t, fromJSON, 3)
	assert.Equal(t, "DURAND Pierre-Henri", fromJSON[0].FullName)
	assert.True(t, runStart.Equal(fromJSON[0].ExtractionTimestamp))

	report, err := os.ReadFile(artifacts.Report)
	require.NoError(t, err)
	assert.Contains(t, string(report), "RÉSULTATS")
	assert.Contains(t, string(report), "annecy_EMAILS_20250314_103005.txt")
}

func TestCSVRoundTrip(t *testing.T) {
	w, _ := newTestWriter(t)
	records := sampleRecords()

	artifacts, err := w.WriteAll(records, Summary{Site: "annecy", Start: runStart})
	require.NoError(t, err)

	fromJSON, err := ReadJSON(artifacts.JSON)
	require.NoError(t, err)
	fromCSV, err := ReadCSV(artifacts.CSV)
	require.NoError(t, err)

	require.Len(t, fromCSV, len(fromJSON))
	for i := range fromCSV {
		assert.Equal(t, toRow(fromJSON[i]), toRow(fromCSV[i]))
	}
	assert.Equal(t, []string{"droit pénal", "droit de la famille"}, fromCSV[0].Specialisations)
	assert.Equal(t, 1996, fromCSV[0].OathYear)
	assert.Nil(t, fromCSV[2].Specialisations)
}

func TestReadCSV_UnknownSpecialisation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annecy.csv")
	data := "full_name,first_name,last_name,email,phone,fax,address,postal_code,city,oath_year,specialisations,structure,source_url\n" +
		"DURAND Pierre,Pierre,DURAND,,,,,,,,droit pénal;droit maritime,,https://barreau.test/avocat/1\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := ReadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "droit maritime")
}

func TestWriteCSV_Header(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	require.NoError(t, WriteCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "full_name,first_name,last_name,email,phone,fax,address,postal_code,city,oath_year,specialisations,structure,source_url\n", string(data))
}

func TestWriteEmptyReport(t *testing.T) {
	w, dir := newTestWriter(t)

	path, err := w.WriteEmptyReport(Summary{RunID: "run-2", Site: "annecy", Start: runStart})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "annecy_RAPPORT_20250314_103005.txt", entries[0].Name())

	report, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(report), "Avocats retenus")
	assert.Contains(t, string(report), "0.0%")
}

func TestWriteCheckpoint(t *testing.T) {
	w, dir := newTestWriter(t)

	path, err := w.WriteCheckpoint(sampleRecords()[:2], 100, time.Date(2025, 3, 14, 11, 2, 3, 0, time.Local))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "annecy_partial_100_110203.json"), path)
	records, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRenderReport(t *testing.T) {
	summary := Summary{
		RunID:     "4b1f",
		Site:      "annecy",
		Start:     runStart,
		Processed: 100,
		Dropped:   3,
		Cleaning: cleaner.Stats{
			GenericEmails:    97,
			GenericAddresses: []string{"contact@barreau-x.fr"},
		},
		Files: []string{"/tmp/annecy_COMPLET_20250314_103005.json"},
	}

	report := RenderReport(sampleRecords(), summary)

	assert.Contains(t, report, "RAPPORT D'EXTRACTION - ANNECY")
	assert.Contains(t, report, "Emails génériques supprimés")
	assert.Contains(t, report, "97")
	assert.Contains(t, report, "contact@barreau-x.fr")
	assert.Contains(t, report, "droit de la famille")
	assert.Contains(t, report, "annecy_COMPLET_20250314_103005.json")
	assert.NotContains(t, report, "/tmp/")
}

func TestFieldCompletenessAndTopSpecialisations(t *testing.T) {
	records := sampleRecords()

	completeness := FieldCompleteness(records)
	require.Len(t, completeness, 12)
	assert.Equal(t, "email", completeness[3].Field)
	assert.Equal(t, 2, completeness[3].Count)
	assert.InDelta(t, 66.67, completeness[3].Percent, 0.01)

	top := TopSpecialisations(records, 10)
	assert.Equal(t, []SpecialisationCount{
		{Name: "droit pénal", Count: 2},
		{Name: "droit de la famille", Count: 1},
	}, top)
}
