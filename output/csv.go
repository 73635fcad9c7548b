package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"

	"barreau-extractor/fields"
	"barreau-extractor/internal/types"
)

// specialisationSeparator joins the specialisations cell
const specialisationSeparator = ";"

// csvRow fixes the column order of the CSV artifact
type csvRow struct {
	FullName        string `csv:"full_name"`
	FirstName       string `csv:"first_name"`
	LastName        string `csv:"last_name"`
	Email           string `csv:"email"`
	Phone           string `csv:"phone"`
	Fax             string `csv:"fax"`
	Address         string `csv:"address"`
	PostalCode      string `csv:"postal_code"`
	City            string `csv:"city"`
	OathYear        string `csv:"oath_year"`
	Specialisations string `csv:"specialisations"`
	Structure       string `csv:"structure"`
	SourceURL       string `csv:"source_url"`
}

func toRow(l *types.Lawyer) csvRow {
	row := csvRow{
		FullName:        l.FullName,
		FirstName:       l.FirstName,
		LastName:        l.LastName,
		Email:           l.Email,
		Phone:           l.Phone,
		Fax:             l.Fax,
		Address:         l.Address,
		PostalCode:      l.PostalCode,
		City:            l.City,
		Specialisations: strings.Join(l.Specialisations, specialisationSeparator),
		Structure:       l.Structure,
		SourceURL:       l.SourceURL,
	}
	if l.OathYear != 0 {
		row.OathYear = strconv.Itoa(l.OathYear)
	}
	return row
}

func fromRow(row csvRow) (*types.Lawyer, error) {
	l := &types.Lawyer{
		FullName:   row.FullName,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Email:      row.Email,
		Phone:      row.Phone,
		Fax:        row.Fax,
		Address:    row.Address,
		PostalCode: row.PostalCode,
		City:       row.City,
		Structure:  row.Structure,
		SourceURL:  row.SourceURL,
	}
	if row.OathYear != "" {
		year, err := strconv.Atoi(row.OathYear)
		if err != nil {
			return nil, fmt.Errorf("invalid oath_year %q: %w", row.OathYear, err)
		}
		l.OathYear = year
	}
	if row.Specialisations != "" {
		l.Specialisations = strings.Split(row.Specialisations, specialisationSeparator)
		for _, entry := range l.Specialisations {
			if !fields.IsSpecialisation(entry) {
				return nil, fmt.Errorf("unknown specialisation %q", entry)
			}
		}
	}
	return l, nil
}

// WriteCSV writes the records with the fixed column layout, header included
func WriteCSV(path string, records []*types.Lawyer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	if err := enc.EncodeHeader(csvRow{}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, l := range records {
		if err := enc.Encode(toRow(l)); err != nil {
			return fmt.Errorf("failed to encode %s: %w", l.FullName, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV loads a CSV artifact back into records. Fields outside the CSV layout stay empty.
func ReadCSV(path string) ([]*types.Lawyer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var records []*types.Lawyer
	for {
		var row csvRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		l, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, l)
	}
	return records, nil
}
