package provider

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/internal/utils"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata/writer"
)

// PolygonAPIClient abstracts the Polygon REST client so tests can inject
// a fake aggregate source.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

// PolygonAggsIterator is the subset of the Polygon iterator the download
// loop consumes.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// polygonAPIAdapter narrows the real client to the PolygonAPIClient interface.
type polygonAPIAdapter struct {
	client *polygon.Client
}

func (a *polygonAPIAdapter) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, options...)
}

// PolygonClient downloads aggregate candles from the Polygon.io REST API.
// Symbols are plain currency pairs; the client prepends Polygon's "C:"
// currency prefix on the wire and stores the plain pair in the output.
type PolygonClient struct {
	apiClient PolygonAPIClient
	writer    writer.MarketDataWriter
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonAPIAdapter{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI creates a client on top of an existing API client.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient) *PolygonClient {
	return &PolygonClient{
		apiClient: apiClient,
		writer:    nil,
	}
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

func (c *PolygonClient) Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", fmt.Errorf("no writer configured for PolygonClient. Call ConfigWriter first")
	}

	if err = c.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	processedCount := 0

	// A failed download with nothing written leaves no partial file behind.
	defer func() {
		if err == nil || processedCount > 0 {
			return
		}

		if outputPath := c.writer.GetOutputPath(); outputPath != "" {
			if removeErr := os.Remove(outputPath); removeErr != nil && !os.IsNotExist(removeErr) {
				log.Printf("Warning: failed to remove partial output %s: %v", outputPath, removeErr)
			}
		}
	}()

	defer func() {
		if cerr := c.writer.Close(); cerr != nil {
			if err == nil {
				err = fmt.Errorf("error closing writer: %w", cerr)
			} else {
				log.Printf("Error closing writer after another error: %v", cerr)
			}
		}
	}()

	symbol = utils.NormalizeSymbol(symbol)

	totalCandles := estimateCandleCount(startDate, endDate, multiplier, timespan)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     polygonTicker(symbol),
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	for iter.Next() {
		if err = ctx.Err(); err != nil {
			return "", err
		}

		agg := iter.Item()
		marketData := types.MarketData{
			Id:     "",
			Symbol: symbol,
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		}

		if err = c.writer.Write(marketData); err != nil {
			return "", fmt.Errorf("failed to write data: %w", err)
		}

		processedCount++

		if onProgress != nil {
			// The total is a calendar estimate, so clamp to keep the
			// reported progress at or below one hundred percent.
			current := float64(processedCount)
			if current > totalCandles {
				current = totalCandles
			}

			onProgress(current, totalCandles, fmt.Sprintf("Downloading %s", symbol))
		}
	}

	if iterErr := iter.Err(); iterErr != nil {
		err = fmt.Errorf("error iterating polygon aggregates: %w", iterErr)

		return "", err
	}

	log.Printf("Finished downloading %d data points for %s.", processedCount, symbol)

	outputPath, err := c.writer.Finalize()
	if err != nil {
		err = fmt.Errorf("failed to finalize writer: %w", err)

		return "", err
	}

	return outputPath, nil
}

// polygonTicker maps a currency pair to Polygon's forex ticker form.
// Already prefixed tickers pass through untouched.
func polygonTicker(symbol string) string {
	if strings.Contains(symbol, ":") {
		return symbol
	}

	return "C:" + symbol
}

// estimateCandleCount sizes the progress total from the requested range.
// The real count can be lower over weekends and holidays.
func estimateCandleCount(startDate, endDate time.Time, multiplier int, timespan models.Timespan) float64 {
	bucket, err := candleDuration(multiplier, timespan)
	if err != nil || bucket <= 0 {
		return 1
	}

	count := float64(endDate.Sub(startDate)) / float64(bucket)
	if count < 1 {
		return 1
	}

	return count
}
