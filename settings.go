package captrack

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultFXTTL is how long an FX rate is trusted before being fetched again.
const DefaultFXTTL = time.Hour

// Settings are the user preferences.
type Settings struct {
	BaseCurrency string           `yaml:"base_currency"`
	Platforms    []string         `yaml:"platforms"`
	SellBehavior string           `yaml:"sell_behavior"`
	DefaultFees  float64          `yaml:"default_fees"`
	FXTTL        time.Duration    `yaml:"fx_ttl"`
	Quotes       QuoteSettings    `yaml:"quotes"`
	Database     DatabaseSettings `yaml:"database"`
}

// QuoteSettings configures the access to the quote provider.
type QuoteSettings struct {
	BaseURL string        `yaml:"base_url"`
	Rate    float64       `yaml:"rate"` // requests per second
	Burst   int           `yaml:"burst"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseSettings configures the Postgres trade store. An empty DSN means
// trades are kept in the JSONL ledger file.
type DatabaseSettings struct {
	DSN          string        `yaml:"dsn"`
	PortfolioID  string        `yaml:"portfolio_id"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// DefaultSettings returns the settings used when there is no settings file.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.setDefaults()
	return s
}

// LoadSettings reads the settings from a YAML file. A missing file yields
// the default settings. The CAPTRACK_DSN environment variable, when set,
// overrides the database DSN.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	}
	if v := os.Getenv("CAPTRACK_DSN"); v != "" {
		s.Database.DSN = v
	}
	s.setDefaults()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings file %s: %w", path, err)
	}
	return s, nil
}

// Save writes the settings to a YAML file.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", path, err)
	}
	return nil
}

func (s *Settings) setDefaults() {
	s.BaseCurrency = strings.ToUpper(strings.TrimSpace(s.BaseCurrency))
	if s.BaseCurrency == "" {
		s.BaseCurrency = "USD"
	}
	s.Platforms = NormalizePlatforms(s.Platforms)
	if s.SellBehavior == "" {
		s.SellBehavior = Clamp.String()
	}
	if s.FXTTL == 0 {
		s.FXTTL = DefaultFXTTL
	}
	if s.Quotes.Rate == 0 {
		s.Quotes.Rate = 5
	}
	if s.Quotes.Burst == 0 {
		s.Quotes.Burst = 5
	}
	if s.Quotes.Timeout == 0 {
		s.Quotes.Timeout = 10 * time.Second
	}
	if s.Database.PortfolioID == "" {
		s.Database.PortfolioID = "default"
	}
	if s.Database.MaxOpenConns == 0 {
		s.Database.MaxOpenConns = 4
	}
	if s.Database.QueryTimeout == 0 {
		s.Database.QueryTimeout = 30 * time.Second
	}
}

// Validate checks the settings values.
func (s *Settings) Validate() error {
	var errs []error
	if err := ValidateCurrency(s.BaseCurrency); err != nil {
		errs = append(errs, fmt.Errorf("base_currency: %w", err))
	}
	if _, err := ParseSellBehavior(s.SellBehavior); err != nil {
		errs = append(errs, fmt.Errorf("sell_behavior: %w", err))
	}
	if s.DefaultFees < 0 {
		errs = append(errs, fmt.Errorf("default_fees must not be negative, got %v", s.DefaultFees))
	}
	if s.FXTTL < 0 {
		errs = append(errs, fmt.Errorf("fx_ttl must not be negative, got %v", s.FXTTL))
	}
	for _, p := range s.Platforms {
		if len([]rune(p)) > MaxPlatformLength {
			errs = append(errs, fmt.Errorf("platform %q is longer than %d characters", p, MaxPlatformLength))
		}
	}
	return errors.Join(errs...)
}

// Options returns the position engine options configured by the settings.
func (s *Settings) Options() (Options, error) {
	behavior, err := ParseSellBehavior(s.SellBehavior)
	if err != nil {
		return Options{}, err
	}
	return Options{
		SellBehavior: behavior,
		DefaultFees:  decimal.NewFromFloat(s.DefaultFees),
	}, nil
}

// NormalizePlatforms trims platform names and removes blanks and case
// insensitive duplicates, keeping the first spelling. The result is never
// empty: it defaults to DefaultPlatform.
func NormalizePlatforms(platforms []string) []string {
	res := make([]string, 0, len(platforms))
	for _, p := range platforms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		dup := slices.ContainsFunc(res, func(q string) bool { return strings.EqualFold(p, q) })
		if !dup {
			res = append(res, p)
		}
	}
	if len(res) == 0 {
		res = append(res, DefaultPlatform)
	}
	return res
}
