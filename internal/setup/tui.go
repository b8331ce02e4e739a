// Package setup provides the interactive wizard that writes a merx YAML configuration.
package setup

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/merx/config"
	"github.com/vadiminshakov/merx/internal/domain"
	"github.com/vadiminshakov/merx/internal/services/market/analysis"
	"github.com/vadiminshakov/merx/internal/services/market/collector"
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

// Answers collects what the wizard asks.
type Answers struct {
	Platform   string
	Pair       string
	CSV        string
	Interval   string
	Limit      string
	Indicators []string
	Workers    string
}

// DefaultAnswers pre-fills the wizard.
func DefaultAnswers() Answers {
	return Answers{
		Platform:   collector.PlatformBinance,
		Pair:       "BTC_USDT",
		Interval:   "1h",
		Limit:      "200",
		Indicators: []string{"sma", "ema", "rsi", "macd", "bollinger"},
		Workers:    "8",
	}
}

func screen(step string) {
	fmt.Print("\033[H\033[2J") // clear screen
	fmt.Println(headerStyle.Render("MERX CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(step))
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	a := DefaultAnswers()
	var confirm bool

	screen("STEP 1: SOURCE")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Pick where candles come from.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select data source").
				Options(
					huh.NewOption("Binance", collector.PlatformBinance),
					huh.NewOption("Bybit", collector.PlatformBybit),
					huh.NewOption("Hyperliquid", collector.PlatformHyperliquid),
					huh.NewOption("Yahoo Finance CSV", collector.PlatformCSV),
				).
				Value(&a.Platform),
		),
	).Run()
	if err != nil {
		return err
	}

	screen("STEP 2: MARKET")
	var fields []huh.Field
	if a.Platform == collector.PlatformCSV {
		fields = append(fields, huh.NewInput().
			Title("CSV file").
			Description("Date,Open,High,Low,Close,Adj Close,Volume").
			Value(&a.CSV).
			Validate(func(s string) error {
				_, err := os.Stat(s)
				return err
			}))
	}
	fields = append(fields,
		huh.NewInput().
			Title("Pair").
			Description("Must contain underscore (e.g. BTC_USDT)").
			Value(&a.Pair).
			Validate(func(s string) error {
				_, err := domain.ParsePair(s)
				return err
			}),
		huh.NewInput().
			Title("Interval").
			Description("e.g. 15m, 1h, 4h, 1d").
			Value(&a.Interval).
			Validate(func(s string) error {
				_, err := collector.ParseInterval(s)
				return err
			}),
		huh.NewInput().
			Title("Candles to fetch").
			Value(&a.Limit).
			Validate(validatePositive),
	)
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	screen("STEP 3: INDICATORS")
	options := make([]huh.Option[string], 0, len(analysis.Names()))
	for _, name := range analysis.Names() {
		options = append(options, huh.NewOption(name, name))
	}
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Indicators (default parameters, edit the file to tune)").
				Options(options...).
				Value(&a.Indicators).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return fmt.Errorf("pick at least one indicator")
					}
					return nil
				}),
			huh.NewInput().
				Title("Worker pool size").
				Value(&a.Workers).
				Validate(validatePositive),
		),
	).Run()
	if err != nil {
		return err
	}

	screen("FINAL CONFIRMATION")
	tmp, err := BuildConfig(a)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(tmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(string(data)))

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

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(
		fmt.Sprintf("\nConfiguration saved to %s\nRun: merx --config %s", path, path)))
	return nil
}

// BuildConfig turns wizard answers into a configuration document that config.Parse accepts.
func BuildConfig(a Answers) (config.ConfigTmp, error) {
	limit, err := strconv.Atoi(a.Limit)
	if err != nil {
		return config.ConfigTmp{}, fmt.Errorf("limit: %w", err)
	}
	workers, err := strconv.Atoi(a.Workers)
	if err != nil {
		return config.ConfigTmp{}, fmt.Errorf("workers: %w", err)
	}

	indicators := make([]config.IndicatorTmp, 0, len(a.Indicators))
	for _, name := range a.Indicators {
		spec, err := analysis.Resolve(analysis.Spec{Name: name})
		if err != nil {
			return config.ConfigTmp{}, err
		}
		ind := config.IndicatorTmp{
			Name:   spec.Name,
			Period: spec.Period,
			Slow:   spec.Slow,
			Fast:   spec.Fast,
			Signal: spec.Signal,
			MA:     spec.MA,
		}
		if spec.Multiplier != 0 {
			ind.Multiplier = strconv.FormatFloat(spec.Multiplier, 'f', -1, 64)
		}
		if spec.Name == "bollinger" {
			ind.StdDev = spec.StdDev.String()
		}
		indicators = append(indicators, ind)
	}

	job := config.JobTmp{
		Platform:   a.Platform,
		Pair:       a.Pair,
		Interval:   a.Interval,
		Limit:      limit,
		Indicators: indicators,
	}
	if a.Platform == collector.PlatformCSV {
		job.CSV = a.CSV
	}

	return config.ConfigTmp{
		Workers: workers,
		Jobs:    []config.JobTmp{job},
	}, nil
}

func validatePositive(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}
