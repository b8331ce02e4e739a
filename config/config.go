// Package config loads analysis jobs from command-line flags or a YAML file.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/merx/internal/domain"
	"github.com/vadiminshakov/merx/internal/services/market/analysis"
	"github.com/vadiminshakov/merx/internal/services/market/collector"
	"github.com/vadiminshakov/merx/pkg/series"
)

const (
	defaultWorkers        = 8
	defaultRequestTimeout = 30 * time.Second
	defaultLimit          = 200
	defaultInterval       = "1h"
	defaultIndicators     = "sma:20,ema:20,rsi:14,macd,atr:14,bollinger:20,pivot_standard"
	maxExchangeLimit      = 1000
)

// Config is the parsed run configuration.
type Config struct {
	Workers        int
	RequestTimeout time.Duration
	// SnapshotDir enables the kline snapshot cache when set.
	SnapshotDir string
	// Rows is how many trailing rows each result table shows.
	Rows  int
	Debug bool
	// Setup asks for the interactive wizard; SetupOutput is where it writes.
	Setup       bool
	SetupOutput string
	Jobs        []Job
}

// Job is one market to fetch and the indicators to compute over it.
type Job struct {
	Platform   string
	Pair       domain.Pair
	Interval   string
	Limit      int
	CSV        string
	Indicators []analysis.Spec
}

// Market labels the job in logs and output.
func (j Job) Market() string {
	return fmt.Sprintf("%s %s %s", j.Platform, j.Pair.String(), j.Interval)
}

// ConfigTmp is the YAML shape of a configuration file.
type ConfigTmp struct {
	Workers        int           `yaml:"workers,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	SnapshotDir    string        `yaml:"snapshot_dir,omitempty"`
	Rows           int           `yaml:"rows,omitempty"`
	Jobs           []JobTmp      `yaml:"jobs"`
}

// JobTmp is the YAML shape of a job.
type JobTmp struct {
	Platform   string         `yaml:"platform"`
	Pair       string         `yaml:"pair"`
	Interval   string         `yaml:"interval,omitempty"`
	Limit      int            `yaml:"limit,omitempty"`
	CSV        string         `yaml:"csv,omitempty"`
	Indicators []IndicatorTmp `yaml:"indicators"`
}

// IndicatorTmp is the YAML shape of an indicator spec. Multiplier is a decimal string.
type IndicatorTmp struct {
	Name       string `yaml:"name"`
	Period     int    `yaml:"period,omitempty"`
	Slow       int    `yaml:"slow,omitempty"`
	Fast       int    `yaml:"fast,omitempty"`
	Signal     int    `yaml:"signal,omitempty"`
	Multiplier string `yaml:"multiplier,omitempty"`
	StdDev     string `yaml:"stddev,omitempty"`
	MA         string `yaml:"ma,omitempty"`
	Source     string `yaml:"source,omitempty"`
}

// Get reads the configuration from the process arguments.
func Get() (Config, error) {
	return Load(os.Args[1:])
}

// Load parses args. With --config the YAML file defines the jobs; otherwise the flags define a single job.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("merx", flag.ContinueOnError)
	path := fs.String("config", "", "path to yaml config")
	setup := fs.Bool("setup", false, "run the interactive configuration wizard")
	setupOut := fs.String("setup-output", "config.gen.yaml", "file the wizard writes")
	debug := fs.Bool("debug", false, "verbose logging")
	workers := fs.Int("workers", defaultWorkers, "indicator worker pool size")
	timeout := fs.Duration("timeout", defaultRequestTimeout, "per-request timeout")
	snapshotDir := fs.String("snapshot-dir", "", "directory of the kline snapshot cache, empty disables it")
	rows := fs.Int("rows", 10, "trailing rows shown per indicator")
	platform := fs.String("platform", collector.PlatformBinance, "binance, bybit, hyperliquid or csv")
	pair := fs.String("pair", "BTC_USDT", "pair, example: BTC_USDT")
	interval := fs.String("interval", defaultInterval, "kline interval, example: 15m, 1h, 1d")
	limit := fs.Int("limit", defaultLimit, "number of klines to fetch")
	csvPath := fs.String("csv", "", "Yahoo Finance csv export, used with --platform=csv")
	indicators := fs.String("indicators", defaultIndicators, "comma separated name[:period] list")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Workers:        *workers,
		RequestTimeout: *timeout,
		SnapshotDir:    *snapshotDir,
		Rows:           *rows,
		Debug:          *debug,
		Setup:          *setup,
		SetupOutput:    *setupOut,
	}
	if cfg.Setup {
		return cfg, nil
	}

	if *path != "" {
		fromFile, err := getYaml(*path)
		if err != nil {
			return Config{}, err
		}
		fromFile.Debug = cfg.Debug
		return fromFile, nil
	}

	specs, err := ParseIndicatorList(*indicators)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --indicators provided, --indicators=%s: %w", *indicators, err)
	}
	job, err := buildJob(JobTmp{
		Platform: *platform,
		Pair:     *pair,
		Interval: *interval,
		Limit:    *limit,
		CSV:      *csvPath,
	}, specs)
	if err != nil {
		return Config{}, err
	}
	cfg.Jobs = []Job{job}

	return cfg, validate(cfg)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(f)
}

// Parse decodes a YAML configuration document.
func Parse(data []byte) (Config, error) {
	var tmp ConfigTmp
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return Config{}, fmt.Errorf("failed to decode yaml config: %w", err)
	}

	cfg := Config{
		Workers:        tmp.Workers,
		RequestTimeout: tmp.RequestTimeout,
		SnapshotDir:    tmp.SnapshotDir,
		Rows:           tmp.Rows,
	}
	if cfg.Workers == 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Rows == 0 {
		cfg.Rows = 10
	}

	for i, j := range tmp.Jobs {
		specs := make([]analysis.Spec, 0, len(j.Indicators))
		for k, ind := range j.Indicators {
			spec, err := parseIndicator(ind)
			if err != nil {
				return Config{}, fmt.Errorf("job %d indicator %d: %w", i, k, err)
			}
			specs = append(specs, spec)
		}
		job, err := buildJob(j, specs)
		if err != nil {
			return Config{}, fmt.Errorf("job %d: %w", i, err)
		}
		cfg.Jobs = append(cfg.Jobs, job)
	}

	return cfg, validate(cfg)
}

func buildJob(j JobTmp, specs []analysis.Spec) (Job, error) {
	job := Job{
		Platform:   strings.ToLower(j.Platform),
		Interval:   j.Interval,
		Limit:      j.Limit,
		CSV:        j.CSV,
		Indicators: specs,
	}
	if job.Interval == "" {
		job.Interval = defaultInterval
	}
	if job.Limit == 0 {
		job.Limit = defaultLimit
	}

	switch job.Platform {
	case collector.PlatformBinance, collector.PlatformBybit, collector.PlatformHyperliquid:
		if job.Limit < 1 || job.Limit > maxExchangeLimit {
			return Job{}, fmt.Errorf("incorrect 'limit' param %d (must be 1..%d)", job.Limit, maxExchangeLimit)
		}
	case collector.PlatformCSV:
		if job.CSV == "" {
			return Job{}, fmt.Errorf("'csv' path is required for platform csv")
		}
	default:
		return Job{}, fmt.Errorf("unsupported platform %q", j.Platform)
	}

	if _, err := collector.ParseInterval(job.Interval); err != nil {
		return Job{}, fmt.Errorf("incorrect 'interval' param: %w", err)
	}

	if j.Pair == "" && job.Platform == collector.PlatformCSV {
		j.Pair = "CSV_USD"
	}
	pair, err := domain.ParsePair(j.Pair)
	if err != nil {
		return Job{}, fmt.Errorf("incorrect 'pair' param in config: %s, error: %w", j.Pair, err)
	}
	job.Pair = pair

	return job, nil
}

func parseIndicator(ind IndicatorTmp) (analysis.Spec, error) {
	stddev, err := series.ParseStdDev(strings.ToLower(ind.StdDev))
	if err != nil {
		return analysis.Spec{}, err
	}

	spec := analysis.Spec{
		Name:   ind.Name,
		Period: ind.Period,
		Slow:   ind.Slow,
		Fast:   ind.Fast,
		Signal: ind.Signal,
		StdDev: stddev,
		MA:     ind.MA,
		Source: ind.Source,
	}

	if ind.Multiplier != "" {
		m, err := decimal.NewFromString(ind.Multiplier)
		if err != nil {
			return analysis.Spec{}, fmt.Errorf("incorrect 'multiplier' param (must be a decimal), error: %w", err)
		}
		if m.IsNegative() {
			return analysis.Spec{}, fmt.Errorf("incorrect 'multiplier' param %s (must not be negative)", m)
		}
		spec.Multiplier = m.InexactFloat64()
	}

	return analysis.Resolve(spec)
}

// ParseIndicatorList parses "sma:20,rsi:14,macd" into resolved specs.
func ParseIndicatorList(s string) ([]analysis.Spec, error) {
	var specs []analysis.Spec
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, periodStr, hasPeriod := strings.Cut(item, ":")
		ind := IndicatorTmp{Name: name}
		if hasPeriod {
			p, err := strconv.Atoi(periodStr)
			if err != nil {
				return nil, fmt.Errorf("period of %s must be an integer: %w", name, err)
			}
			ind.Period = p
		}
		spec, err := parseIndicator(ind)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func validate(cfg Config) error {
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", cfg.RequestTimeout)
	}
	if len(cfg.Jobs) == 0 {
		return fmt.Errorf("no jobs configured")
	}
	for i, j := range cfg.Jobs {
		if len(j.Indicators) == 0 {
			return fmt.Errorf("job %d (%s) has no indicators", i, j.Market())
		}
	}
	return nil
}
