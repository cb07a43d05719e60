package marketdata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-fx/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata/writer"
)

// BaseDownloadConfig contains common fields for all download configurations.
type BaseDownloadConfig struct {
	Symbol    string `json:"symbol" jsonschema:"title=Symbol,description=The currency pair to download data for (e.g. EURUSD or USDJPY),required" validate:"required"`
	StartDate string `json:"startDate" jsonschema:"title=Start Date,description=Start date,format=date,required" validate:"required"`
	EndDate   string `json:"endDate" jsonschema:"title=End Date,description=End date,format=date,required" validate:"required"`
	Interval  string `json:"interval" jsonschema:"title=Interval,description=Candle interval,required,enum=1s,enum=1m,enum=3m,enum=5m,enum=15m,enum=30m,enum=1h,enum=2h,enum=4h,enum=6h,enum=8h,enum=12h,enum=1d,enum=3d,enum=1w,enum=1M" validate:"required,oneof=1s 1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
	Format    string `json:"format,omitempty" jsonschema:"title=Output Format,description=Output file format,enum=parquet,enum=csv" validate:"omitempty,oneof=parquet csv"`
}

// DukascopyDownloadConfig contains configuration for downloading from the
// Dukascopy public data feed. The feed does not require authentication.
type DukascopyDownloadConfig struct {
	BaseDownloadConfig
}

// PolygonDownloadConfig contains configuration for downloading from Polygon.io.
type PolygonDownloadConfig struct {
	BaseDownloadConfig

	ApiKey string `json:"apiKey" jsonschema:"title=API Key,description=Polygon.io API key for authentication,required" validate:"required"`
}

// SyntheticDownloadConfig contains configuration for generating synthetic
// data. A fixed seed makes the generated series reproducible.
type SyntheticDownloadConfig struct {
	BaseDownloadConfig

	Pattern           string  `json:"pattern,omitempty" jsonschema:"title=Pattern,description=Price path behavior,enum=increasing,enum=decreasing,enum=volatile,enum=mean_reverting" validate:"omitempty,oneof=increasing decreasing volatile mean_reverting"`
	InitialPrice      float64 `json:"initialPrice,omitempty" jsonschema:"title=Initial Price,description=Starting price of the generated series" validate:"omitempty,gt=0"`
	VolatilityPercent float64 `json:"volatilityPercent,omitempty" jsonschema:"title=Volatility Percent,description=Per candle noise amplitude in percent" validate:"omitempty,gt=0"`
	ReversionStrength float64 `json:"reversionStrength,omitempty" jsonschema:"title=Reversion Strength,description=Pull strength toward the initial price for the mean_reverting pattern" validate:"omitempty,gt=0"`
	BaseVolume        float64 `json:"baseVolume,omitempty" jsonschema:"title=Base Volume,description=Average volume per candle" validate:"omitempty,gt=0"`
	Seed              int64   `json:"seed,omitempty" jsonschema:"title=Seed,description=Random seed; zero picks a time based seed"`
}

// Validate validates the BaseDownloadConfig fields.
func (c *BaseDownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := time.Parse(time.RFC3339, c.StartDate); err != nil {
		return fmt.Errorf("invalid startDate format, expected RFC3339: %w", err)
	}

	if _, err := time.Parse(time.RFC3339, c.EndDate); err != nil {
		return fmt.Errorf("invalid endDate format, expected RFC3339: %w", err)
	}

	return nil
}

// Validate validates the DukascopyDownloadConfig.
func (c *DukascopyDownloadConfig) Validate() error {
	return c.BaseDownloadConfig.Validate()
}

// Validate validates the PolygonDownloadConfig.
func (c *PolygonDownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return c.BaseDownloadConfig.Validate()
}

// Validate validates the SyntheticDownloadConfig.
func (c *SyntheticDownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return c.BaseDownloadConfig.Validate()
}

// ToDownloadParams converts a BaseDownloadConfig to DownloadParams.
func (c *BaseDownloadConfig) ToDownloadParams() (DownloadParams, error) {
	startDate, err := time.Parse(time.RFC3339, c.StartDate)
	if err != nil {
		return DownloadParams{}, fmt.Errorf("failed to parse startDate: %w", err)
	}

	endDate, err := time.Parse(time.RFC3339, c.EndDate)
	if err != nil {
		return DownloadParams{}, fmt.Errorf("failed to parse endDate: %w", err)
	}

	timespan := Timespan(c.Interval)

	return DownloadParams{
		Symbol:     c.Symbol,
		StartDate:  startDate,
		EndDate:    endDate,
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan.Timespan(),
	}, nil
}

// outputFormat maps the config format string to the writer format,
// defaulting to parquet.
func (c *BaseDownloadConfig) outputFormat() writer.Format {
	if c.Format == "" {
		return writer.FormatParquet
	}

	return writer.Format(c.Format)
}

// ToClientConfig converts a DukascopyDownloadConfig to ClientConfig.
func (c *DukascopyDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderDukascopy,
		WriterType:    WriterDuckDB,
		DataPath:      dataPath,
		Format:        c.outputFormat(),
		PolygonApiKey: "",
		Synthetic:     nil,
	}
}

// ToClientConfig converts a PolygonDownloadConfig to ClientConfig.
func (c *PolygonDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderPolygon,
		WriterType:    WriterDuckDB,
		DataPath:      dataPath,
		Format:        c.outputFormat(),
		PolygonApiKey: c.ApiKey,
		Synthetic:     nil,
	}
}

// ToClientConfig converts a SyntheticDownloadConfig to ClientConfig.
func (c *SyntheticDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderSynthetic,
		WriterType:    WriterDuckDB,
		DataPath:      dataPath,
		Format:        c.outputFormat(),
		PolygonApiKey: "",
		Synthetic: &provider.SyntheticConfig{
			Pattern:           provider.SimulationPattern(c.Pattern),
			InitialPrice:      c.InitialPrice,
			VolatilityPercent: c.VolatilityPercent,
			ReversionStrength: c.ReversionStrength,
			BaseVolume:        c.BaseVolume,
			Seed:              c.Seed,
		},
	}
}

// ParseDukascopyConfig parses JSON into a DukascopyDownloadConfig.
func ParseDukascopyConfig(jsonConfig string) (*DukascopyDownloadConfig, error) {
	var config DukascopyDownloadConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParsePolygonConfig parses JSON into a PolygonDownloadConfig.
func ParsePolygonConfig(jsonConfig string) (*PolygonDownloadConfig, error) {
	var config PolygonDownloadConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParseSyntheticConfig parses JSON into a SyntheticDownloadConfig.
func ParseSyntheticConfig(jsonConfig string) (*SyntheticDownloadConfig, error) {
	var config SyntheticDownloadConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
