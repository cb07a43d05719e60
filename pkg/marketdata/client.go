package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderDukascopy ProviderType = "dukascopy"
	ProviderPolygon   ProviderType = "polygon"
	ProviderSynthetic ProviderType = "synthetic"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
// Format defaults to parquet when left empty. Synthetic carries the
// generator settings for the synthetic provider and is ignored otherwise.
type ClientConfig struct {
	ProviderType  ProviderType  `validate:"required,oneof=dukascopy polygon synthetic"`
	WriterType    WriterType    `validate:"required,oneof=duckdb"`
	DataPath      string        `validate:"required"`
	Format        writer.Format `validate:"omitempty,oneof=parquet csv"`
	PolygonApiKey string        `validate:"required_if=ProviderType polygon"`
	Synthetic     *provider.SyntheticConfig
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Symbol     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
}

// Client is the market data client responsible for downloading data from providers and storing it using writers.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	var marketProvider provider.Provider

	var err error

	switch config.ProviderType {
	case ProviderDukascopy:
		marketProvider, err = provider.NewDukascopyClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create Dukascopy client: %w", err)
		}
	case ProviderPolygon:
		marketProvider, err = provider.NewPolygonClient(config.PolygonApiKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Polygon client: %w", err)
		}
	case ProviderSynthetic:
		marketProvider, err = provider.NewSyntheticProvider(config.Synthetic)
		if err != nil {
			return nil, fmt.Errorf("failed to create synthetic provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.ProviderType)
	}

	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
	}, nil
}

// Download initiates a market data download with the given parameters.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", fmt.Errorf("invalid download parameters: %w", err)
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", fmt.Errorf("failed to setup writer: %w", err)
	}

	// The provider closes the writer when the download finishes; closing
	// again here only covers providers that bailed out before taking over.
	defer func() {
		if closeErr := marketWriter.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close writer: %v\n", closeErr)
		}
	}()

	c.provider.ConfigWriter(marketWriter)

	outputPath, err := c.provider.Download(
		ctx,
		params.Symbol,
		params.StartDate,
		params.EndDate,
		params.Multiplier,
		params.Timespan,
		c.onProgress,
	)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	return outputPath, nil
}

// setupWriter builds the market data writer for the configured output
// format. The output file is named after the request so repeated
// downloads with the same parameters overwrite instead of piling up.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		format := c.config.Format
		if format == "" {
			format = writer.FormatParquet
		}

		outputFileName := fmt.Sprintf("%s_%s_%s_%d_%s.%s",
			params.Symbol,
			params.StartDate.Format("2006-01-02"),
			params.EndDate.Format("2006-01-02"),
			params.Multiplier,
			params.Timespan,
			format.Extension())
		outputPath := filepath.Join(c.config.DataPath, outputFileName)

		if _, err := os.Stat(c.config.DataPath); os.IsNotExist(err) {
			if err := os.MkdirAll(c.config.DataPath, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data path %s: %w", c.config.DataPath, err)
			}
		}

		return writer.NewDuckDBWriter(outputPath, format), nil
	default:
		return nil, fmt.Errorf("unsupported writer type: %s", c.config.WriterType)
	}
}
