package internal

import (
	"fmt"
	"os"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"

	"github.com/vadiminshakov/merx/config"
	"github.com/vadiminshakov/merx/internal/clients"
	"github.com/vadiminshakov/merx/internal/services/market/collector"
)

// Credentials for the exchanges. Market data endpoints are public, so every field may be empty.
type Credentials struct {
	BinanceAPIKey         string
	BinanceAPISecret      string
	BybitAPIKey           string
	BybitAPISecret        string
	HyperliquidPrivateKey string
	HyperliquidURL        string
}

// CredentialsFromEnv reads credentials from the environment.
func CredentialsFromEnv() Credentials {
	return Credentials{
		BinanceAPIKey:         os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret:      os.Getenv("BINANCE_API_SECRET"),
		BybitAPIKey:           os.Getenv("BYBIT_API_KEY"),
		BybitAPISecret:        os.Getenv("BYBIT_API_SECRET"),
		HyperliquidPrivateKey: os.Getenv("HYPERLIQUID_PRIVATE_KEY"),
		HyperliquidURL:        os.Getenv("HYPERLIQUID_URL"),
	}
}

// csvSource marks jobs that read a file instead of an exchange.
type csvSource struct{ path string }

// NewClient creates the platform client a job needs.
func NewClient(job config.Job, creds Credentials) (any, error) {
	switch job.Platform {
	case collector.PlatformBinance:
		return clients.NewBinanceClient(creds.BinanceAPIKey, creds.BinanceAPISecret), nil
	case collector.PlatformBybit:
		return clients.NewBybitClient(creds.BybitAPIKey, creds.BybitAPISecret), nil
	case collector.PlatformHyperliquid:
		return clients.NewHyperliquidClient(creds.HyperliquidPrivateKey, creds.HyperliquidURL)
	case collector.PlatformCSV:
		return csvSource{path: job.CSV}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", job.Platform)
	}
}

// NewKlineProvider creates a kline provider based on the client type.
// This is the single point of truth for dispatching to platform-specific implementations.
func NewKlineProvider(client any) (collector.KlineProvider, error) {
	switch c := client.(type) {
	case *binance.Client:
		return collector.NewBinanceKlineProvider(c), nil
	case *bybit.Client:
		return collector.NewBybitKlineProvider(c), nil
	case *clients.HyperliquidClient:
		return collector.NewHyperliquidKlineProvider(c.Info()), nil
	case csvSource:
		return collector.NewCSVKlineProvider(c.path), nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}
