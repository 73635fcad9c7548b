package types

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Structure classifications for Lawyer.StructureType
const (
	StructureIndividual = "individual"
	StructureCabinet    = "cabinet"
	StructureCompany    = "company"
)

// Lawyer represents one registered attorney of a bar directory
type Lawyer struct {
	FullName            string            `json:"full_name"`
	FirstName           string            `json:"first_name"`
	LastName            string            `json:"last_name"`
	Email               string            `json:"email"`
	Phone               string            `json:"phone"`
	Fax                 string            `json:"fax"`
	Address             string            `json:"address"`
	PostalCode          string            `json:"postal_code"`
	City                string            `json:"city"`
	OathYear            int               `json:"oath_year,omitempty"`
	Specialisations     []string          `json:"specialisations"`
	Structure           string            `json:"structure"`
	StructureType       string            `json:"structure_type"`
	SourceURL           string            `json:"source_url"`
	ExtractionTimestamp time.Time         `json:"extraction_timestamp"`
	Extras              map[string]string `json:"extras,omitempty"`
}

// Convention declares the ordering of family name and given names in listing text
type Convention int

const (
	// LastNameFirst is "DURAND Pierre"
	LastNameFirst Convention = iota
	// FirstNameFirst is "Pierre DURAND"
	FirstNameFirst
)

// String returns the convention label used in logs and config files
func (c Convention) String() string {
	if c == FirstNameFirst {
		return "first-last"
	}
	return "last-first"
}

// ParseConvention maps a config label to a Convention. Unknown labels fall back to LastNameFirst.
func ParseConvention(label string) Convention {
	switch label {
	case "first-last", "firstname-lastname", "FirstLast":
		return FirstNameFirst
	default:
		return LastNameFirst
	}
}

// Listing is one item produced by a site adapter.
// Either Text/Doc carry the lawyer's content, or DetailURL points to a page
// that the runner resolves through the adapter before building the record.
type Listing struct {
	SourceURL string
	Name      string
	Text      string
	Doc       *goquery.Selection
	DetailURL string
	Extras    map[string]string
}

// NeedsDetail reports whether the listing must be resolved before record building
func (l Listing) NeedsDetail() bool {
	return l.DetailURL != "" && l.Text == "" && l.Doc == nil
}

// SiteAdapter defines the interface for bar-specific listing enumeration
type SiteAdapter interface {
	// Name returns the site key used in artifact names
	Name() string

	// Convention returns the name ordering used by the site's listings
	Convention() Convention

	// IterateListings yields listings in directory order until yield returns false
	IterateListings(ctx context.Context, yield func(Listing) bool) error

	// Close releases the adapter's page fetcher
	Close()
}

// DetailResolver is implemented by adapters whose listings point to per-lawyer pages
type DetailResolver interface {
	ResolveListing(ctx context.Context, listing Listing) (Listing, error)
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
