// Package config holds the run configuration of fusecheck.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fle"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/itf"
)

// Default input file names.
const (
	DefaultSSpecFile   = "sspec.txt"
	DefaultFuseDefFile = "fuseDef.json"
	DefaultMTLFile     = "MTL_OLF.xml"
	DefaultUBEExt      = ".ube"
)

// Config controls one reconciliation run.
type Config struct {
	Inputs  Inputs  `toml:"inputs" yaml:"inputs" json:"inputs"`
	ITF     ITF     `toml:"itf" yaml:"itf" json:"itf"`
	Mapping Mapping `toml:"mapping" yaml:"mapping" json:"mapping"`
	Output  Output  `toml:"output" yaml:"output" json:"output"`
}

// Inputs locates the source files. Relative file names resolve against Dir.
type Inputs struct {
	Dir     string `toml:"dir" yaml:"dir" json:"dir" validate:"required"`
	SSpec   string `toml:"sspec" yaml:"sspec" json:"sspec"`
	FuseDef string `toml:"fusedef" yaml:"fusedef" json:"fusedef"`
	MTLOLF  string `toml:"mtlolf" yaml:"mtlolf" json:"mtlolf"`
	// UBE is optional; empty picks the first *.ube file of Dir.
	UBE string `toml:"ube" yaml:"ube" json:"ube"`
	FLE string `toml:"fle" yaml:"fle" json:"fle"`
	// QDF is a comma separated list or "*" for every QDF in sspec.txt.
	QDF string `toml:"qdf" yaml:"qdf" json:"qdf"`
}

// ITF controls test log parsing.
type ITF struct {
	// Dir is optional; without it no unit data is produced.
	Dir         string   `toml:"dir" yaml:"dir" json:"dir"`
	ValueMarker string   `toml:"value_marker" yaml:"value_marker" json:"value_marker" validate:"required"`
	Workers     int      `toml:"workers" yaml:"workers" json:"workers" validate:"gte=0,lte=256"`
	VisualIDs   []string `toml:"visual_ids" yaml:"visual_ids" json:"visual_ids"`
}

// Mapping holds the named test-name mapping profiles.
type Mapping struct {
	Active   string                   `toml:"active" yaml:"active" json:"active" validate:"required"`
	Profiles map[string][]itf.Mapping `toml:"profiles" yaml:"profiles" json:"profiles" validate:"dive,min=1,dive"`
}

// Output controls where and how reports are written.
type Output struct {
	Dir string `toml:"dir" yaml:"dir" json:"dir" validate:"required"`
	// Name tags every report file; empty uses the fuseDef file stem.
	Name     string `toml:"name" yaml:"name" json:"name"`
	Sanitize bool   `toml:"sanitize" yaml:"sanitize" json:"sanitize"`
}

// Default returns a Config with the built-in mapping profile.
func Default() *Config {
	return &Config{
		Inputs: Inputs{
			Dir:     ".",
			SSpec:   DefaultSSpecFile,
			FuseDef: DefaultFuseDefFile,
			MTLOLF:  DefaultMTLFile,
			FLE:     fle.DefaultFileName,
			QDF:     "*",
		},
		ITF: ITF{
			ValueMarker: itf.DefaultValueMarker,
		},
		Mapping: Mapping{
			Active: itf.DefaultProfile,
			Profiles: map[string][]itf.Mapping{
				itf.DefaultProfile: itf.DefaultMappings(),
			},
		},
		Output: Output{
			Dir:      "output",
			Sanitize: true,
		},
	}
}

var validate = validator.New()

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, ok := c.Mapping.Profiles[c.Mapping.Active]; !ok {
		return fmt.Errorf("config: mapping profile %q not defined (have %s)",
			c.Mapping.Active, strings.Join(c.ProfileNames(), ", "))
	}
	if c.Output.Name == "" {
		c.Output.Name = c.defaultName()
	}
	return nil
}

// defaultName is the fuseDef stem when the file exists, else "output".
func (c *Config) defaultName() string {
	path := c.Path(c.Inputs.FuseDef)
	if path == "" {
		return "output"
	}
	if _, err := os.Stat(path); err != nil {
		return "output"
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// ProfileNames returns the defined mapping profiles, sorted.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Mapping.Profiles))
	for n := range c.Mapping.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ActiveMappings returns the mapping list of the active profile.
func (c *Config) ActiveMappings() []itf.Mapping {
	return c.Mapping.Profiles[c.Mapping.Active]
}

// Path resolves an input file name against the input directory. Empty
// names stay empty.
func (c *Config) Path(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Inputs.Dir, name)
}

// UBEPath returns the configured dump, or the first *.ube file of the input
// directory.
func (c *Config) UBEPath() string {
	if c.Inputs.UBE != "" {
		return c.Path(c.Inputs.UBE)
	}
	matches, err := filepath.Glob(filepath.Join(c.Inputs.Dir, "*"+DefaultUBEExt))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[0]
}

// Load reads a configuration file over the defaults. The format follows the
// extension: .toml, .yaml/.yml or .json.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config: %s: unknown key %s", path, undecoded[0])
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: %s: %w", path, ErrUnknownFormat)
	}
	return cfg, nil
}

// ErrUnknownFormat is returned for configuration files with an unsupported
// extension.
var ErrUnknownFormat = errors.New("unknown configuration format")
