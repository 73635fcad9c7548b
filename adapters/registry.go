package adapters

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"barreau-extractor/internal/types"
	"barreau-extractor/utils"
)

// ErrUnknownSite is returned when no adapter is registered under a name
var ErrUnknownSite = errors.New("unknown site")

//go:embed sites.yaml
var builtinSites []byte

// sitesFile is the layout of a site definitions YAML file
type sitesFile struct {
	Sites []SiteDefinition `yaml:"sites"`
}

// Registry maps site keys to their definitions
type Registry struct {
	defs map[string]SiteDefinition
}

// NewRegistry creates a registry preloaded with the built-in sites
func NewRegistry() (*Registry, error) {
	r := &Registry{defs: make(map[string]SiteDefinition)}
	if err := r.load(builtinSites); err != nil {
		return nil, fmt.Errorf("built-in sites: %w", err)
	}
	return r, nil
}

// Register adds or replaces a site definition
func (r *Registry) Register(def SiteDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.defs[def.Name] = def
	return nil
}

// LoadFile registers every site of a YAML definitions file
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: failed to read sites file: %w", types.ErrInvalidConfig, err)
	}
	return r.load(data)
}

func (r *Registry) load(data []byte) error {
	var file sitesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: failed to parse sites file: %w", types.ErrInvalidConfig, err)
	}
	for _, def := range file.Sites {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the definition registered under name
func (r *Registry) Get(name string) (SiteDefinition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Definitions returns all definitions sorted by name
func (r *Registry) Definitions() []SiteDefinition {
	defs := make([]SiteDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// NewAdapter builds the adapter for a registered site
func (r *Registry) NewAdapter(name string, config *types.Config, logger types.Logger, fetcher utils.PageFetcher) (types.SiteAdapter, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSite, name)
	}
	adapter, err := NewDirectoryAdapter(def, config, logger, fetcher)
	if err != nil {
		return nil, err
	}
	return adapter, nil
}
