package tariff

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// catalogFile is the on-disk shape of the versioned layer catalog.
type catalogFile struct {
	Version string         `yaml:"version"`
	Layers  []catalogLayer `yaml:"layers"`
}

type catalogLayer struct {
	Program       string   `yaml:"program"`
	Scope         string   `yaml:"scope"`
	AllCountries  bool     `yaml:"all_countries"`
	Countries     []string `yaml:"countries"`
	Exclude       []string `yaml:"exclude"`
	Rate          float64  `yaml:"rate"`
	EffectiveFrom string   `yaml:"effective_from"`
	EffectiveTo   string   `yaml:"effective_to"`
	Precedence    int      `yaml:"precedence"`
	Exclusion     bool     `yaml:"exclusion"`
	Live          bool     `yaml:"live"`
	Source        string   `yaml:"source"`
}

// LoadCatalog parses the versioned layer catalog from a reader.
func LoadCatalog(r io.Reader) ([]model.TariffLayer, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read layer catalog: %w", err)
	}
	return parseCatalog(data)
}

// LoadCatalogFile parses the catalog at path, or the embedded default
// catalog when path is empty.
func LoadCatalogFile(path string) ([]model.TariffLayer, string, error) {
	if path == "" {
		return parseCatalog(defaultCatalog)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open layer catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadCatalog(f)
}

func parseCatalog(data []byte) ([]model.TariffLayer, string, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, "", fmt.Errorf("failed to parse layer catalog: %w", err)
	}

	layers := make([]model.TariffLayer, 0, len(file.Layers))
	for i, cl := range file.Layers {
		from, err := parseCatalogDate(cl.EffectiveFrom)
		if err != nil {
			return nil, "", fmt.Errorf("layer %d (%s): bad effective_from: %w", i, cl.Program, err)
		}
		to, err := parseCatalogDate(cl.EffectiveTo)
		if err != nil {
			return nil, "", fmt.Errorf("layer %d (%s): bad effective_to: %w", i, cl.Program, err)
		}

		layer := model.TariffLayer{
			ProgramID:    cl.Program,
			ScopePattern: cl.Scope,
			Countries: model.CountryScope{
				All:     cl.AllCountries,
				Include: cl.Countries,
				Exclude: cl.Exclude,
			},
			Rate:            cl.Rate,
			EffectiveFrom:   from,
			EffectiveTo:     to,
			PrecedenceClass: cl.Precedence,
			ExclusionFlag:   cl.Exclusion,
			LiveRate:        cl.Live,
			Source:          cl.Source,
		}
		if err := layer.Validate(); err != nil {
			return nil, "", fmt.Errorf("layer %d: %w", i, err)
		}
		layers = append(layers, layer)
	}

	return layers, file.Version, nil
}

func parseCatalogDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
