// Package record assembles Lawyer records from adapter listings.
package record

import (
	"errors"
	"strings"
	"time"

	"barreau-extractor/fields"
	"barreau-extractor/internal/types"
)

// Parse errors: the listing is dropped and counted
var (
	ErrMissingName      = errors.New("listing has no full name")
	ErrMissingSourceURL = errors.New("listing has no source url")
)

// Builder turns one listing into one Lawyer record
type Builder struct {
	convention types.Convention
	now        func() time.Time
}

// NewBuilder creates a builder splitting names under the given convention
func NewBuilder(convention types.Convention) *Builder {
	return &Builder{
		convention: convention,
		now:        time.Now,
	}
}

// Build runs every extractor over the listing and validates the required fields
func (b *Builder) Build(listing types.Listing) (*types.Lawyer, error) {
	sourceURL := strings.TrimSpace(listing.SourceURL)
	if sourceURL == "" {
		return nil, ErrMissingSourceURL
	}

	src := fields.Harvest(listing.Doc)
	if text := fields.NormalizeText(listing.Text); text != "" {
		src.Text = text
	}

	name := fields.CleanName(listing.Name)
	if name == "" {
		name = nameFromText(src.Text)
	}
	if name == "" {
		return nil, ErrMissingName
	}

	lawyer := &types.Lawyer{
		FullName:            name,
		SourceURL:           sourceURL,
		ExtractionTimestamp: b.now().Truncate(time.Second),
	}
	lawyer.FirstName, lawyer.LastName = fields.SplitName(name, b.convention)

	lawyer.Email = fields.Email(src)
	lawyer.Phone = fields.Phone(src)
	lawyer.Fax = fields.Fax(src)
	if lawyer.Fax == lawyer.Phone {
		lawyer.Fax = ""
	}

	addr := fields.Address(src)
	lawyer.Address = addr.Address
	if fields.ValidPostalCode(addr.PostalCode) {
		lawyer.PostalCode = addr.PostalCode
		lawyer.City = addr.City
	}

	if year := fields.OathYear(src.Text); fields.ValidOathYear(year) {
		lawyer.OathYear = year
	}
	lawyer.Specialisations = fields.Specialisations(src.Text)
	lawyer.Structure, lawyer.StructureType = fields.Structure(src.Text)

	if len(listing.Extras) > 0 {
		lawyer.Extras = make(map[string]string, len(listing.Extras))
		for k, v := range listing.Extras {
			lawyer.Extras[k] = v
		}
	}

	return lawyer, nil
}

// nameFromText picks the first line that reads as a person's name
func nameFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if fields.LooksLikeName(line) {
			return fields.CleanName(line)
		}
	}
	return ""
}
