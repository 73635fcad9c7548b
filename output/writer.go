// Package output writes the artifacts of a run: JSON, CSV, email list, report and checkpoints.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"barreau-extractor/internal/types"
)

const (
	// StampLayout is the run timestamp embedded in artifact names
	StampLayout = "20060102_150405"
	// checkpointLayout is the wall-clock suffix of partial snapshots
	checkpointLayout = "150405"
)

// Artifacts holds the paths written for one run
type Artifacts struct {
	JSON   string
	CSV    string
	Emails string
	Report string
}

// Paths lists the artifacts that were written, in emission order
func (a Artifacts) Paths() []string {
	var paths []string
	for _, p := range []string{a.JSON, a.CSV, a.Emails, a.Report} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Writer emits the artifacts of one site run into a directory
type Writer struct {
	dir    string
	site   string
	stamp  string
	logger types.Logger
}

// NewWriter creates a writer whose artifact names carry the run start time
func NewWriter(dir, site string, start time.Time, logger types.Logger) *Writer {
	return &Writer{
		dir:    dir,
		site:   site,
		stamp:  start.Format(StampLayout),
		logger: logger,
	}
}

func (w *Writer) path(kind, ext string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s_%s.%s", w.site, kind, w.stamp, ext))
}

// WriteAll emits the JSON, CSV, email list and report for the cleaned records
func (w *Writer) WriteAll(records []*types.Lawyer, summary Summary) (Artifacts, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return Artifacts{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	artifacts := Artifacts{
		JSON:   w.path("COMPLET", "json"),
		CSV:    w.path("COMPLET", "csv"),
		Emails: w.path("EMAILS", "txt"),
		Report: w.path("RAPPORT", "txt"),
	}

	if err := writeJSON(artifacts.JSON, records); err != nil {
		return Artifacts{}, err
	}
	if err := WriteCSV(artifacts.CSV, records); err != nil {
		return Artifacts{}, err
	}
	if err := writeEmails(artifacts.Emails, records); err != nil {
		return Artifacts{}, err
	}

	summary.Files = artifacts.Paths()
	if err := os.WriteFile(artifacts.Report, []byte(RenderReport(records, summary)), 0644); err != nil {
		return Artifacts{}, fmt.Errorf("failed to write report: %w", err)
	}

	for _, p := range summary.Files {
		w.logger.Infof("Written: %s", p)
	}
	return artifacts, nil
}

// WriteEmptyReport emits only the report, for runs that produced no record
func (w *Writer) WriteEmptyReport(summary Summary) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := w.path("RAPPORT", "txt")
	summary.Files = []string{path}
	if err := os.WriteFile(path, []byte(RenderReport(nil, summary)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	w.logger.Infof("Written: %s", path)
	return path, nil
}

// WriteCheckpoint snapshots the records built after processed listings
func (w *Writer) WriteCheckpoint(records []*types.Lawyer, processed int, at time.Time) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("%s_partial_%d_%s.json", w.site, processed, at.Format(checkpointLayout)))
	if err := writeJSON(path, records); err != nil {
		return "", err
	}
	w.logger.Infof("Checkpoint: %d listings processed, %d records saved to %s", processed, len(records), path)
	return path, nil
}

// ReadJSON loads a record list written by the writer
func ReadJSON(path string) ([]*types.Lawyer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []*types.Lawyer
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

func writeJSON(path string, records []*types.Lawyer) error {
	if records == nil {
		records = []*types.Lawyer{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// SortedEmails returns the distinct non-empty emails in lexical order
func SortedEmails(records []*types.Lawyer) []string {
	seen := make(map[string]bool)
	var emails []string
	for _, l := range records {
		if l.Email != "" && !seen[l.Email] {
			seen[l.Email] = true
			emails = append(emails, l.Email)
		}
	}
	sort.Strings(emails)
	return emails
}

func writeEmails(path string, records []*types.Lawyer) error {
	var data []byte
	for _, email := range SortedEmails(records) {
		data = append(data, email...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
