package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/elobry/cryptofolio/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		pairsStr        string
		quoteAsset      string
		dbPath          string
		listenAddr      string
		syncIntervalStr string
		incomeRateStr   string
		socialRateStr   string
		confirm         bool
	)

	// defaults
	pairsStr = "BTC_USDT"
	quoteAsset = "USDT"
	dbPath = "portfolio.db"
	listenAddr = ":8080"
	syncIntervalStr = "1h"
	incomeRateStr = config.DefaultIncomeTaxRate.String()
	socialRateStr = config.DefaultSocialContributionsRate.String()

	// step 1: welcome
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("CRYPTOFOLIO CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's wire up your portfolio tracker.\n"))

	// markets
	fmt.Println(stepStyle.Render("STEP 1: MARKETS"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pairs").
				Description("Comma-separated BASE_QUOTE pairs (e.g. BTC_USDT,ETH_USDT)").
				Value(&pairsStr).
				Validate(validatePairs),
			huh.NewInput().
				Title("Quote Asset").
				Description("Currency all valuations are expressed in").
				Value(&quoteAsset).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("quote asset cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// storage and dashboard
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CRYPTOFOLIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: STORAGE & DASHBOARD"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Database Path").
				Description("SQLite file holding the synced ledger").
				Value(&dbPath),
			huh.NewInput().
				Title("Dashboard Listen Address").
				Value(&listenAddr),
			huh.NewInput().
				Title("Sync Interval").
				Description("Duration string (e.g. 30m, 1h, 6h)").
				Value(&syncIntervalStr).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err != nil {
						return err
					}
					if d < time.Minute {
						return fmt.Errorf("must be at least one minute")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// tax rates
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CRYPTOFOLIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TAX RATES"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Income Tax Rate").
				Description("Flat rate as a fraction (default is the French PFU income part)").
				Value(&incomeRateStr).
				Validate(validateRate),
			huh.NewInput().
				Title("Social Contributions Rate").
				Description("Flat rate as a fraction").
				Value(&socialRateStr).
				Validate(validateRate),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CRYPTOFOLIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Pairs: %s\nQuote: %s\nDatabase: %s\nDashboard: %s\nSync every: %s\nTax: %s + %s\n",
		pairsStr, quoteAsset, dbPath, listenAddr, syncIntervalStr, incomeRateStr, socialRateStr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	syncInterval, _ := time.ParseDuration(syncIntervalStr)

	cfgTmp := config.ConfigTmp{
		Pairs:         splitPairs(pairsStr),
		QuoteAsset:    strings.ToUpper(strings.TrimSpace(quoteAsset)),
		DBPath:        dbPath,
		ListenAddr:    listenAddr,
		SyncInterval:  syncInterval,
		IncomeTaxRate: incomeRateStr,
		SocialTaxRate: socialRateStr,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nRun with --config %s", filename, filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func splitPairs(s string) []string {
	var pairs []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

func validatePairs(s string) error {
	pairs := splitPairs(s)
	if len(pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	for _, p := range pairs {
		if !strings.Contains(p, "_") {
			return fmt.Errorf("invalid format %q: must be BASE_QUOTE (e.g. BTC_USDT)", p)
		}
	}
	return nil
}

func validateRate(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("must be between 0 and 1")
	}
	return nil
}
