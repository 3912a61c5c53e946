package captrack

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
base_currency: inr
platforms: [" Zerodha", zerodha, "", Coinbase]
sell_behavior: allow_negative
default_fees: 1.25
fx_ttl: 30m
quotes:
  rate: 2
  timeout: 3s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CAPTRACK_DSN", "postgres://localhost/captrack")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.BaseCurrency != "INR" {
		t.Errorf("BaseCurrency = %q, want INR", s.BaseCurrency)
	}
	if got, want := s.Platforms, []string{"Zerodha", "Coinbase"}; !slices.Equal(got, want) {
		t.Errorf("Platforms = %v, want %v", got, want)
	}
	if s.FXTTL != 30*time.Minute {
		t.Errorf("FXTTL = %v, want 30m", s.FXTTL)
	}
	if s.Quotes.Rate != 2 || s.Quotes.Burst != 5 || s.Quotes.Timeout != 3*time.Second {
		t.Errorf("Quotes = %+v, want rate 2, default burst and 3s timeout", s.Quotes)
	}
	if s.Database.DSN != "postgres://localhost/captrack" {
		t.Errorf("Database.DSN = %q, want the environment value", s.Database.DSN)
	}

	opts, err := s.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.SellBehavior != AllowNegative {
		t.Errorf("SellBehavior = %v, want %v", opts.SellBehavior, AllowNegative)
	}
	if !opts.DefaultFees.Equal(d(1.25)) {
		t.Errorf("DefaultFees = %v, want 1.25", opts.DefaultFees)
	}
}

func TestLoadSettings_Missing(t *testing.T) {
	t.Setenv("CAPTRACK_DSN", "")
	s, err := LoadSettings(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if diff := cmp.Diff(DefaultSettings(), s); diff != "" {
		t.Errorf("LoadSettings() mismatch (-want +got):\n%s", diff)
	}
	if !slices.Equal(s.Platforms, []string{DefaultPlatform}) || s.FXTTL != DefaultFXTTL {
		t.Errorf("defaults = %v, %v", s.Platforms, s.FXTTL)
	}
	opts, err := s.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.SellBehavior != Clamp || !opts.DefaultFees.IsZero() {
		t.Errorf("Options() = %+v, want the zero options", opts)
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("base_currency: euro\nsell_behavior: fifo\ndefault_fees: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("LoadSettings() expected an error")
	}
}

func TestSettings_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := DefaultSettings()
	s.BaseCurrency = "EUR"
	s.Platforms = []string{"Degiro", "Manual"}
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	t.Setenv("CAPTRACK_DSN", "")
	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("LoadSettings() mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestParseSellBehavior(t *testing.T) {
	for _, b := range []SellBehavior{Clamp, AllowNegative} {
		got, err := ParseSellBehavior(b.String())
		if err != nil || got != b {
			t.Errorf("ParseSellBehavior(%q) = %v, %v, want %v", b.String(), got, err, b)
		}
	}
	if _, err := ParseSellBehavior("fifo"); err == nil {
		t.Error("ParseSellBehavior(fifo) expected an error")
	}
}
