package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderDukascopy ProviderType = "dukascopy"
	ProviderPolygon   ProviderType = "polygon"
	ProviderSynthetic ProviderType = "synthetic"
)

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer for the provider.
	// The writer is the destination of downloaded candles.
	// It could be a file, a database, etc.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download downloads candles for the given symbol and date range and
	// streams them into the configured writer. The context can be used to
	// cancel the download operation.
	// example:
	// Download(ctx, "EURUSD", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, models.Minute, onProgress)
	Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
// The config argument carries provider specific settings: the Polygon API key
// string for polygon, a *SyntheticConfig (or nil for defaults) for synthetic,
// and is ignored by dukascopy.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	switch providerType {
	case ProviderDukascopy:
		return NewDukascopyClient()
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, fmt.Errorf("polygon provider requires API key string config")
		}

		return NewPolygonClient(apiKey)
	case ProviderSynthetic:
		if config == nil {
			return NewSyntheticProvider(nil)
		}

		syntheticConfig, ok := config.(*SyntheticConfig)
		if !ok {
			return nil, fmt.Errorf("synthetic provider requires *SyntheticConfig or nil config")
		}

		return NewSyntheticProvider(syntheticConfig)
	default:
		return nil, fmt.Errorf("unsupported market data provider: %s", providerType)
	}
}

// candleDuration converts a multiplier and timespan into the wall clock width
// of a single candle. Months are approximated as 30 days.
func candleDuration(multiplier int, timespan models.Timespan) (time.Duration, error) {
	if multiplier < 1 {
		return 0, fmt.Errorf("multiplier must be at least 1, got %d", multiplier)
	}

	var unit time.Duration

	switch timespan {
	case models.Second:
		unit = time.Second
	case models.Minute:
		unit = time.Minute
	case models.Hour:
		unit = time.Hour
	case models.Day:
		unit = 24 * time.Hour
	case models.Week:
		unit = 7 * 24 * time.Hour
	case models.Month:
		unit = 30 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("unsupported timespan: %s", timespan)
	}

	return time.Duration(multiplier) * unit, nil
}
