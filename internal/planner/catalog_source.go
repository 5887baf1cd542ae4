package planner

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// CatalogSource supplies the province hierarchy the catalogue is built from
type CatalogSource interface {
	Load(ctx context.Context) ([]models.Province, error)
}

// EmbeddedSource reads the catalogue compiled into the binary
type EmbeddedSource struct{}

func (EmbeddedSource) Load(ctx context.Context) ([]models.Province, error) {
	return ParseCatalog(embeddedCatalog)
}

// FileSource reads a YAML catalogue from disk
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]models.Province, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", s.Path, err)
	}
	provinces, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", s.Path, err)
	}
	return provinces, nil
}

// NewCatalogSource picks the file source when path is set, the embedded one otherwise
func NewCatalogSource(path string) CatalogSource {
	if strings.TrimSpace(path) == "" {
		return EmbeddedSource{}
	}
	return FileSource{Path: path}
}

// ParseCatalog decodes a YAML list of provinces and checks ids are present and unique
func ParseCatalog(data []byte) ([]models.Province, error) {
	var provinces []models.Province
	if err := yaml.Unmarshal(data, &provinces); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	provinceIDs := make(map[string]bool, len(provinces))
	placeIDs := make(map[string]string)
	for _, p := range provinces {
		if p.ID == "" {
			return nil, fmt.Errorf("province %q has no id", p.Name)
		}
		if provinceIDs[p.ID] {
			return nil, fmt.Errorf("duplicate province id %q", p.ID)
		}
		provinceIDs[p.ID] = true

		for _, place := range p.Places {
			if place.ID == "" {
				return nil, fmt.Errorf("place %q in province %s has no id", place.Name, p.ID)
			}
			if owner, exists := placeIDs[place.ID]; exists {
				return nil, fmt.Errorf("place id %q appears in provinces %s and %s", place.ID, owner, p.ID)
			}
			placeIDs[place.ID] = p.ID
		}
	}

	return provinces, nil
}

// LoadCatalog builds the catalogue from source. A failing source yields an
// empty catalogue so the planner shows "no destinations found" instead of failing.
func LoadCatalog(ctx context.Context, source CatalogSource, logger arbor.ILogger) *Catalog {
	provinces, err := source.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Place catalog unavailable, continuing with an empty catalog")
		return EmptyCatalog()
	}

	catalog := NewCatalog(provinces)
	logger.Info().
		Int("provinces", len(provinces)).
		Int("places", catalog.PlaceCount()).
		Msg("Place catalog loaded")

	return catalog
}
