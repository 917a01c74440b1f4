package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/robert-at-pretension-io/gate-estimate/internal/costs"
	"github.com/robert-at-pretension-io/gate-estimate/internal/validator"
)

// FileName is the configuration file written by "gate-estimate init".
const FileName = "gate_estimate.json"

// Config is the top-level configuration for gate-estimate
type Config struct {
	// Profile selects the cost profile: a built-in name or a key of Profiles
	Profile string `json:"profile,omitempty"`

	// DoubleCountPrimitives keeps primitive gates in the construct pass as well
	DoubleCountPrimitives *bool `json:"doubleCountPrimitives,omitempty"`

	// Profiles defines custom cost profiles
	Profiles map[string]ProfileConfig `json:"profiles,omitempty"`

	// Files is a list of glob patterns used when the input is a directory
	Files []string `json:"files,omitempty"`

	// Exclude is a list of glob patterns removed from Files
	Exclude []string `json:"exclude,omitempty"`

	// Budget holds the limits checked by the budget policy
	Budget BudgetConfig `json:"budget,omitempty"`

	// PolicyDir holds extra .rego files evaluated with the built-in policy
	PolicyDir string `json:"policyDir,omitempty"`
}

// ProfileConfig is a user-defined cost profile
type ProfileConfig struct {
	// Constructs maps a construct name to its cost
	Constructs map[string]costs.Cost `json:"constructs"`

	// Primitives are counted in an extra pass before the construct pass
	Primitives []string `json:"primitives,omitempty"`

	// Arithmetic is charged for each assign with + or - on its right-hand side
	Arithmetic string `json:"arithmetic,omitempty"`

	// TrackDelay enables delay totals
	TrackDelay bool `json:"trackDelay,omitempty"`
}

// BudgetConfig sets upper limits on the estimate (0 = unlimited)
type BudgetConfig struct {
	MaxGates int `json:"maxGates,omitempty"`
	MaxDelay int `json:"maxDelay,omitempty"`
}

var defaultFiles = []string{"*.v", "*.sv", "**/*.v", "**/*.sv"}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Profile:               costs.Default,
		DoubleCountPrimitives: boolPtr(true),
		Profiles:              map[string]ProfileConfig{},
		Files:                 append([]string(nil), defaultFiles...),
		Exclude:               []string{},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./gate_estimate.json, ./.gate_estimate.json, ./gate_estimate.yaml (current working directory)
//  2. the same names in <rootPath> (if it is a directory different from cwd)
//  3. ~/.config/gate_estimate/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	names := []string{FileName, "." + FileName, "gate_estimate.yaml"}

	var searchPaths []string
	for _, name := range names {
		searchPaths = append(searchPaths, filepath.Join(cwd, name))
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			for _, name := range names {
				searchPaths = append(searchPaths, filepath.Join(rootPath, name))
			}
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "gate_estimate", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific JSON or YAML file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	if isYAML(path) {
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return nil, errors.Wrap(err, "converting YAML config")
		}
	}

	v, err := validator.New()
	if err != nil {
		return nil, err
	}
	if err := v.ValidateConfigJSON(data); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Profile == "" {
		c.Profile = costs.Default
	}
	if c.DoubleCountPrimitives == nil {
		c.DoubleCountPrimitives = boolPtr(true)
	}
	if c.Profiles == nil {
		c.Profiles = map[string]ProfileConfig{}
	}
	if len(c.Files) == 0 {
		c.Files = append([]string(nil), defaultFiles...)
	}
}

// Save writes the configuration to a file, as YAML when the name ends in .yaml or .yml.
// A configuration that LoadFile would reject is not written.
func (c *Config) Save(path string) error {
	v, err := validator.New()
	if err != nil {
		return err
	}
	if err := v.ValidateConfig(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	if isYAML(path) {
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return errors.Wrap(err, "converting config to YAML")
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	return nil
}

// DoubleCount reports whether primitives are counted in both passes
func (c *Config) DoubleCount() bool {
	if c.DoubleCountPrimitives == nil {
		return true
	}
	return *c.DoubleCountPrimitives
}

// ResolveProfile returns the selected cost profile. Custom profiles shadow
// built-in ones of the same name.
func (c *Config) ResolveProfile() (costs.Profile, error) {
	name := c.Profile
	if name == "" {
		name = costs.Default
	}

	if pc, ok := c.Profiles[name]; ok {
		table, err := costs.FromMap(pc.Constructs)
		if err != nil {
			return costs.Profile{}, errors.Wrapf(err, "profile %s", name)
		}
		p := costs.Profile{
			Name:       name,
			Table:      table,
			Primitives: pc.Primitives,
			Arithmetic: pc.Arithmetic,
			TrackDelay: pc.TrackDelay,
		}
		if err := p.Validate(); err != nil {
			return costs.Profile{}, err
		}
		return p, nil
	}

	if p, ok := costs.Builtin(name); ok {
		return p, nil
	}
	return costs.Profile{}, errors.Errorf("unknown profile %q", name)
}

// ProfileNames lists built-in and custom profile names
func (c *Config) ProfileNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, name := range costs.BuiltinNames() {
		seen[name] = true
		names = append(names, name)
	}
	var custom []string
	for name := range c.Profiles {
		if !seen[name] {
			custom = append(custom, name)
		}
	}
	sort.Strings(custom)
	return append(names, custom...)
}
