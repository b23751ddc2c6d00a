// Package config loads the tracker configuration from a YAML file with
// flag-based fallbacks for quick local runs.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/elobry/cryptofolio/internal/domain"
)

// French PFU components, the default flat tax on crypto gains.
var (
	DefaultIncomeTaxRate           = decimal.NewFromFloat(0.128)
	DefaultSocialContributionsRate = decimal.NewFromFloat(0.172)
)

var defaultStableAssets = []string{"USDT", "BUSD", "USDC", "EUR", "USD"}

type Config struct {
	// Pairs are the markets whose trade history is synced.
	Pairs []domain.Pair
	// QuoteAsset is the currency all valuations are expressed in.
	QuoteAsset string
	// StableAssets are valued 1:1 against the quote asset.
	StableAssets []string
	DBPath       string
	SnapshotDir  string
	ListenAddr   string
	SyncInterval time.Duration
	IncomeTaxRate decimal.Decimal
	SocialTaxRate decimal.Decimal
	// TLSDomains switches the dashboard to automatic ACME certificates.
	TLSDomains   []string
	CertCacheDir string
}

type ConfigTmp struct {
	Pairs         []string      `yaml:"pairs"`
	QuoteAsset    string        `yaml:"quote_asset,omitempty"`
	StableAssets  []string      `yaml:"stable_assets,omitempty"`
	DBPath        string        `yaml:"db_path,omitempty"`
	SnapshotDir   string        `yaml:"snapshot_dir,omitempty"`
	ListenAddr    string        `yaml:"listen_addr,omitempty"`
	SyncInterval  time.Duration `yaml:"sync_interval,omitempty"`
	IncomeTaxRate string        `yaml:"income_tax_rate,omitempty"`
	SocialTaxRate string        `yaml:"social_tax_rate,omitempty"`
	TLSDomains    []string      `yaml:"tls_domains,omitempty"`
	CertCacheDir  string        `yaml:"cert_cache_dir,omitempty"`
}

// Get reads the configuration from the --config YAML file when given,
// otherwise from the remaining CLI flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	pairsFlag := flag.String("pairs", "BTC_USDT", "comma-separated trade pairs, example: BTC_USDT,ETH_USDT")
	dbPath := flag.String("db", "portfolio.db", "path to the sqlite database")
	listenAddr := flag.String("listen", ":8080", "dashboard listen address")
	syncInterval := flag.Duration("syncinterval", time.Hour, "interval between exchange syncs")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	pairs, err := parsePairs(strings.Split(*pairsFlag, ","))
	if err != nil {
		return Config{}, fmt.Errorf("invalid --pairs provided, --pairs=%s: %w", *pairsFlag, err)
	}

	cfg := Config{
		Pairs:        pairs,
		DBPath:       *dbPath,
		ListenAddr:   *listenAddr,
		SyncInterval: *syncInterval,
	}
	applyDefaults(&cfg)
	return cfg, cfg.validate()
}

// Load reads the configuration from the given YAML file.
func Load(path string) (Config, error) {
	return getYaml(path)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	pairs, err := parsePairs(tmp.Pairs)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pairs' param in yaml config: %w", err)
	}

	cfg := Config{
		Pairs:        pairs,
		QuoteAsset:   tmp.QuoteAsset,
		StableAssets: tmp.StableAssets,
		DBPath:       tmp.DBPath,
		SnapshotDir:  tmp.SnapshotDir,
		ListenAddr:   tmp.ListenAddr,
		SyncInterval: tmp.SyncInterval,
		TLSDomains:   tmp.TLSDomains,
		CertCacheDir: tmp.CertCacheDir,
	}

	if tmp.IncomeTaxRate != "" {
		cfg.IncomeTaxRate, err = decimal.NewFromString(tmp.IncomeTaxRate)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'income_tax_rate' param in yaml config (must be a decimal): %w", err)
		}
	}
	if tmp.SocialTaxRate != "" {
		cfg.SocialTaxRate, err = decimal.NewFromString(tmp.SocialTaxRate)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'social_tax_rate' param in yaml config (must be a decimal): %w", err)
		}
	}

	applyDefaults(&cfg)
	return cfg, cfg.validate()
}

func applyDefaults(cfg *Config) {
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	if len(cfg.StableAssets) == 0 {
		cfg.StableAssets = defaultStableAssets
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "portfolio.db"
	}
	if cfg.SnapshotDir == "" {
		cfg.SnapshotDir = "./wal/portfolio"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.SyncInterval == 0 {
		cfg.SyncInterval = time.Hour
	}
	if cfg.IncomeTaxRate.IsZero() {
		cfg.IncomeTaxRate = DefaultIncomeTaxRate
	}
	if cfg.SocialTaxRate.IsZero() {
		cfg.SocialTaxRate = DefaultSocialContributionsRate
	}
	if cfg.CertCacheDir == "" {
		cfg.CertCacheDir = "cert-cache"
	}
}

func (c Config) validate() error {
	if len(c.Pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	for _, p := range c.Pairs {
		if p.To != c.QuoteAsset {
			return fmt.Errorf("pair %s is not quoted in %s", p.String(), c.QuoteAsset)
		}
	}
	if c.IncomeTaxRate.IsNegative() || c.SocialTaxRate.IsNegative() {
		return fmt.Errorf("tax rates must be non-negative")
	}
	if c.SyncInterval < time.Minute {
		return fmt.Errorf("sync_interval must be at least one minute")
	}
	return nil
}

func parsePairs(raw []string) ([]domain.Pair, error) {
	pairs := make([]domain.Pair, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		elements := strings.Split(s, "_")
		if len(elements) != 2 {
			return nil, fmt.Errorf("invalid pair param %q", s)
		}
		pairs = append(pairs, domain.Pair{From: elements[0], To: elements[1]})
	}
	return pairs, nil
}
