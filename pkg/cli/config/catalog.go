package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Catalog holds the path of the lookup table file
type Catalog struct {
	path string
}

func (x *Catalog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalog",
			Usage:       "Catalog file with IOC types, TLPs and alert lookups (.toml, .yaml or .yml)",
			Sources:     cli.EnvVars("CASEFLOW_CATALOG"),
			Destination: &x.path,
		},
	}
}

// Configure loads the catalog file, or the built-in catalog when no file is set
func (x *Catalog) Configure() (*model.Catalog, error) {
	if x.path == "" {
		logging.Default().Info("Using built-in catalog")
		return model.DefaultCatalog(), nil
	}
	return LoadCatalog(x.path)
}

type catalogFile struct {
	IOCTypes          []iocTypeEntry            `toml:"ioc_type" yaml:"ioc_types"`
	TLPs              []tlpEntry                `toml:"tlp" yaml:"tlps"`
	DefaultTLP        string                    `toml:"default_tlp" yaml:"default_tlp"`
	AlertStatuses     []lookupEntry             `toml:"alert_status" yaml:"alert_statuses"`
	AlertSeverities   []lookupEntry             `toml:"alert_severity" yaml:"alert_severities"`
	DefaultAttributes map[string]map[string]any `toml:"default_attributes" yaml:"default_attributes"`
}

type iocTypeEntry struct {
	ID               int64  `toml:"id" yaml:"id"`
	Name             string `toml:"name" yaml:"name"`
	Description      string `toml:"description" yaml:"description"`
	ValidationRegex  string `toml:"validation_regex" yaml:"validation_regex"`
	ValidationExpect string `toml:"validation_expect" yaml:"validation_expect"`
}

type tlpEntry struct {
	ID      int64  `toml:"id" yaml:"id"`
	Name    string `toml:"name" yaml:"name"`
	BgColor string `toml:"bg_color" yaml:"bg_color"`
}

type lookupEntry struct {
	ID          int64  `toml:"id" yaml:"id"`
	Name        string `toml:"name" yaml:"name"`
	Description string `toml:"description" yaml:"description"`
}

// LoadCatalog reads a catalog file. Sections missing from the file keep the built-in tables.
func LoadCatalog(path string) (*model.Catalog, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "catalog file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read catalog file", goerr.V(ConfigPathKey, path))
	}

	var file catalogFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(raw, &file); err != nil {
			return nil, goerr.Wrap(err, "failed to parse TOML catalog", goerr.V(ConfigPathKey, path))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, goerr.Wrap(err, "failed to parse YAML catalog", goerr.V(ConfigPathKey, path))
		}
	default:
		return nil, goerr.Wrap(ErrUnknownFormat, "unsupported catalog file extension", goerr.V(ConfigPathKey, path))
	}

	spec, err := file.toSpec()
	if err != nil {
		return nil, goerr.Wrap(err, "invalid catalog", goerr.V(ConfigPathKey, path))
	}

	catalog, err := model.NewCatalog(spec)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "catalog is rejected",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()))
	}

	logging.Default().Info("Loaded catalog",
		"path", path,
		"ioc_types", len(spec.IOCTypes),
		"tlps", len(spec.TLPs),
	)
	return catalog, nil
}

func (f *catalogFile) toSpec() (model.CatalogSpec, error) {
	spec := model.DefaultCatalogSpec()

	if len(f.IOCTypes) > 0 {
		spec.IOCTypes = make([]model.IOCType, len(f.IOCTypes))
		for i, t := range f.IOCTypes {
			spec.IOCTypes[i] = model.IOCType{
				ID:               t.ID,
				Name:             t.Name,
				Description:      t.Description,
				ValidationRegex:  t.ValidationRegex,
				ValidationExpect: t.ValidationExpect,
			}
		}
	}

	if len(f.TLPs) > 0 {
		spec.TLPs = make([]model.TLP, len(f.TLPs))
		for i, t := range f.TLPs {
			spec.TLPs[i] = model.TLP{ID: t.ID, Name: t.Name, BgColor: t.BgColor}
		}
		// the built-in default may not exist among custom TLPs
		spec.DefaultTLP = f.TLPs[0].Name
	}
	if f.DefaultTLP != "" {
		spec.DefaultTLP = f.DefaultTLP
	}

	if len(f.AlertStatuses) > 0 {
		spec.AlertStatuses = toLookups(f.AlertStatuses)
	}
	if len(f.AlertSeverities) > 0 {
		spec.AlertSeverities = toLookups(f.AlertSeverities)
	}

	if len(f.DefaultAttributes) > 0 {
		spec.DefaultAttributes = make(map[types.ObjectType]map[string]any, len(f.DefaultAttributes))
		for name, attrs := range f.DefaultAttributes {
			obj := types.ObjectType(name)
			if !obj.IsValid() {
				return spec, goerr.Wrap(ErrInvalidConfig, "unknown object type in default_attributes", goerr.V("object_type", name))
			}
			spec.DefaultAttributes[obj] = attrs
		}
	}

	return spec, nil
}

func toLookups(entries []lookupEntry) []model.LookupEntry {
	out := make([]model.LookupEntry, len(entries))
	for i, e := range entries {
		out[i] = model.LookupEntry{ID: e.ID, Name: e.Name, Description: e.Description}
	}
	return out
}
