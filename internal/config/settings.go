package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. MORTGAGE_PORTFOLIO=home.yaml
const EnvPrefix = "MORTGAGE"

// Settings are the CLI options resolved from flags, environment and an optional config file
type Settings struct {
	Portfolio     string `mapstructure:"portfolio"`
	Format        string `mapstructure:"format"`
	ReferenceRate string `mapstructure:"reference_rate"`
	AsOf          string `mapstructure:"as_of"`
	Verbose       bool   `mapstructure:"verbose"`
	Concurrency   int    `mapstructure:"concurrency"`
}

// NewViper returns a viper instance with the defaults and environment binding in place.
// A non-empty configFile is read as well.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("portfolio", "portfolio.yaml")
	v.SetDefault("format", "console")
	v.SetDefault("concurrency", 4)
	// keys without a default must still be registered for env lookups to reach Unmarshal
	v.SetDefault("reference_rate", "")
	v.SetDefault("as_of", "")
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// ReadEnvFile loads MORTGAGE_* entries from a dotenv file as defaults. Real environment
// variables, the config file and flags all take precedence over them.
func ReadEnvFile(v *viper.Viper, path string) error {
	entries, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read env file: %w", err)
	}
	prefix := EnvPrefix + "_"
	for k, val := range entries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		v.SetDefault(strings.ToLower(strings.TrimPrefix(k, prefix)), val)
	}
	return nil
}

// LoadSettings unmarshals the settings and checks the values that are parsed later
func LoadSettings(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if _, err := s.ReferenceRateOverride(); err != nil {
		return nil, err
	}
	if _, err := s.AsOfTime(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReferenceRateOverride returns the reference rate given on the command line or in the
// environment, or nil when none was given.
func (s *Settings) ReferenceRateOverride() (*decimal.Percentage, error) {
	if s.ReferenceRate == "" {
		return nil, nil
	}
	p, err := decimal.NewPercentageFromString(s.ReferenceRate)
	if err != nil {
		return nil, fmt.Errorf("invalid reference rate %q: %w", s.ReferenceRate, err)
	}
	if p.IsNegative() {
		return nil, fmt.Errorf("reference rate cannot be negative")
	}
	return &p, nil
}

// AsOfTime parses the evaluation date (YYYY-MM-DD). A zero time means "now".
func (s *Settings) AsOfTime() (time.Time, error) {
	if s.AsOf == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as-of date %q: expected YYYY-MM-DD", s.AsOf)
	}
	return t, nil
}
