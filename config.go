package roundbias

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RoundingConfig is the configuration form of a RoundingPolicy. Kind is
// matched by ParsePolicy, case-insensitively, with "" meaning none.
type RoundingConfig struct {
	Kind string  `yaml:"kind" json:"kind"`
	Step float64 `yaml:"step,omitempty" json:"step,omitempty" validate:"gte=0"`
	P    float64 `yaml:"p,omitempty" json:"p,omitempty" validate:"gte=0,lte=1"`
}

// Policy builds the configured policy.
func (r RoundingConfig) Policy() (RoundingPolicy, error) {
	return ParsePolicy(r.Kind, r.Step, r.P)
}

// Config controls a bias sweep.
//
// The μ grid is either MuValues or the expansion of MuRange; when both are
// set the union is used.
type Config struct {
	MuValues        []float64      `yaml:"mu_values,omitempty" json:"mu_values,omitempty" validate:"omitempty,dive,gt=0,lt=1"`
	MuRange         *Range         `yaml:"mu_range,omitempty" json:"mu_range,omitempty" validate:"omitempty"`
	NuValues        []float64      `yaml:"nu_values" json:"nu_values" validate:"required,min=1,dive,gt=0"`
	SampleSizes     []int          `yaml:"sample_sizes" json:"sample_sizes" validate:"required,min=1,dive,gt=0"`
	Rounding        RoundingConfig `yaml:"rounding" json:"rounding"`
	SmoothingWindow int            `yaml:"smoothing_window" json:"smoothing_window" validate:"gte=1"`
	SmoothingEdge   string         `yaml:"smoothing_edge,omitempty" json:"smoothing_edge,omitempty"`
	Trials          int            `yaml:"trials" json:"trials" validate:"gte=1"`
	Workers         int            `yaml:"workers" json:"workers" validate:"gte=1"`
	Seed            uint64         `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the exploration grid: μ from 0.01 to 0.99 in steps
// of 0.01, ν ∈ {10, 100, 1000}, sample sizes {30, 100, 1000}, rounding to
// the nearest 0.1, a 5-cell smoothing window, one trial per cell.
func DefaultConfig() Config {
	return Config{
		MuRange:         &Range{Min: 0.01, Max: 0.99, Step: 0.01},
		NuValues:        []float64{10, 100, 1000},
		SampleSizes:     []int{30, 100, 1000},
		Rounding:        RoundingConfig{Kind: KindNearest, Step: 0.1},
		SmoothingWindow: 5,
		SmoothingEdge:   EdgeMissing.String(),
		Trials:          1,
		Workers:         1,
		Seed:            42,
	}
}

// Mus returns the configured μ grid.
func (c Config) Mus() []float64 {
	mus := append([]float64(nil), c.MuValues...)
	if c.MuRange != nil {
		mus = append(mus, c.MuRange.Values()...)
	}
	return uniqueFloats(mus)
}

var configValidate = validator.New()

// Validate checks every field and the policy parameters. All failures wrap
// ErrConfiguration.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
			}
			return configErrorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return errors.Wrap(ErrConfiguration, err.Error())
	}
	if len(c.Mus()) == 0 {
		return configErrorf("config yields an empty μ grid")
	}
	if _, err := c.Rounding.Policy(); err != nil {
		return err
	}
	if _, err := ParseEdgePolicy(c.SmoothingEdge); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads a YAML config. Fields absent from the file keep their
// DefaultConfig values; the result is validated.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}

	// A file that defines its own μ grid replaces the default range
	// instead of being merged with it.
	var muGrid struct {
		MuValues []float64 `yaml:"mu_values"`
		MuRange  *Range    `yaml:"mu_range"`
	}
	if err := yaml.Unmarshal(data, &muGrid); err != nil {
		return Config{}, errors.Wrapf(ErrConfiguration, "failed to parse config %s: %v", path, err)
	}

	cfg := DefaultConfig()
	if len(muGrid.MuValues) > 0 || muGrid.MuRange != nil {
		cfg.MuValues, cfg.MuRange = nil, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(ErrConfiguration, "failed to parse config %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// WriteConfig writes cfg as YAML, creating parent directories.
func WriteConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	return os.WriteFile(path, data, 0o644)
}
