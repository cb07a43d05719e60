package provider

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/ulikunitz/xz/lzma"

	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/internal/utils"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata/writer"
)

const (
	dukascopyBaseURL = "https://datafeed.dukascopy.com/datafeed"

	// Tick prices come over the wire as integers scaled by the instrument
	// point value. JPY quoted pairs use three price decimals, everything
	// else uses five.
	standardPointValue = 100000.0
	jpyPointValue      = 1000.0
)

// bi5Tick is one record of a Dukascopy .bi5 hour file after LZMA
// decompression. All fields are big endian. MsOffset counts milliseconds
// from the start of the hour the file covers; volumes are quoted in
// millions of units of the base currency.
type bi5Tick struct {
	MsOffset  uint32
	Ask       uint32
	Bid       uint32
	AskVolume float32
	BidVolume float32
}

// tick is a decoded quote with wall clock time and unscaled prices.
type tick struct {
	Time      time.Time
	Bid       float64
	Ask       float64
	BidVolume float64
	AskVolume float64
}

// Mid returns the quote midpoint. Candles are built from mids so a
// single hour file yields the same series regardless of spread.
func (t tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// DukascopyClient downloads tick history from the Dukascopy public data
// feed and aggregates it into OHLC candles. No API key is required.
type DukascopyClient struct {
	client  *resty.Client
	baseURL string
	writer  writer.MarketDataWriter
}

func NewDukascopyClient() (Provider, error) {
	return NewDukascopyClientWithBaseURL(dukascopyBaseURL)
}

// NewDukascopyClientWithBaseURL creates a client against a non-default
// feed endpoint. Tests point this at a local fixture server.
func NewDukascopyClientWithBaseURL(baseURL string) (Provider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}

	client := resty.New().
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetTimeout(30 * time.Second)

	return &DukascopyClient{
		client:  client,
		baseURL: baseURL,
		writer:  nil,
	}, nil
}

func (c *DukascopyClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download walks the requested range hour by hour, decodes each hour file
// and folds the ticks into candles of the requested width. The feed serves
// one file per instrument per hour; hours with no trading activity come
// back as 404 or an empty body and are skipped.
func (c *DukascopyClient) Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", fmt.Errorf("no writer configured for DukascopyClient. Call ConfigWriter first")
	}

	bucket, err := candleDuration(multiplier, timespan)
	if err != nil {
		return "", err
	}

	if err = c.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	candlesWritten := 0

	// A failed download with nothing written leaves no partial file behind.
	defer func() {
		if err == nil || candlesWritten > 0 {
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

	point := standardPointValue
	if utils.IsJPYQuoted(symbol) {
		point = jpyPointValue
	}

	start := startDate.UTC().Truncate(time.Hour)
	end := endDate.UTC()
	totalHours := float64(int(end.Sub(start).Hours()) + 1)

	var builder *candleBuilder

	hoursDone := 0

	for hour := start; hour.Before(end); hour = hour.Add(time.Hour) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		ticks, err := c.fetchHour(ctx, symbol, hour, point)
		if err != nil {
			return "", err
		}

		for _, t := range ticks {
			// Hour files cover whole hours; trim to the requested range.
			if t.Time.Before(startDate) || !t.Time.Before(end) {
				continue
			}

			bucketStart := t.Time.Truncate(bucket)
			if builder != nil && bucketStart.After(builder.start) {
				if err = c.writer.Write(builder.candle(symbol)); err != nil {
					return "", fmt.Errorf("failed to write data: %w", err)
				}

				candlesWritten++
				builder = nil
			}

			if builder == nil {
				builder = newCandleBuilder(bucketStart, t)
			} else {
				builder.add(t)
			}
		}

		hoursDone++

		if onProgress != nil {
			go onProgress(float64(hoursDone), totalHours, fmt.Sprintf("Downloading %s %s", symbol, hour.Format("2006-01-02 15h")))
		}
	}

	if builder != nil {
		if err = c.writer.Write(builder.candle(symbol)); err != nil {
			return "", fmt.Errorf("failed to write data: %w", err)
		}

		candlesWritten++
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		err = fmt.Errorf("failed to finalize writer: %w", err)

		return "", err
	}

	return outputPath, nil
}

// fetchHour downloads and decodes one hour file. The feed path encodes the
// month zero based, so March sits under /02/.
func (c *DukascopyClient) fetchHour(ctx context.Context, symbol string, hour time.Time, point float64) ([]tick, error) {
	url := fmt.Sprintf("%s/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		c.baseURL, symbol, hour.Year(), int(hour.Month())-1, hour.Day(), hour.Hour())

	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode(), url)
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, nil
	}

	return decodeTicks(body, hour, point)
}

// decodeTicks decompresses an hour file and converts its fixed width
// records into ticks stamped relative to the hour start.
func decodeTicks(body []byte, hour time.Time, point float64) ([]tick, error) {
	reader, err := lzma.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to open LZMA stream: %w", err)
	}

	var ticks []tick

	for {
		var record bi5Tick

		err := binary.Read(reader, binary.BigEndian, &record)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to decode tick record: %w", err)
		}

		ticks = append(ticks, tick{
			Time:      hour.Add(time.Duration(record.MsOffset) * time.Millisecond),
			Bid:       float64(record.Bid) / point,
			Ask:       float64(record.Ask) / point,
			BidVolume: float64(record.BidVolume),
			AskVolume: float64(record.AskVolume),
		})
	}

	return ticks, nil
}

// candleBuilder folds ticks into a single OHLC candle keyed by the candle
// start time. Volume sums both sides of the book.
type candleBuilder struct {
	start  time.Time
	open   float64
	high   float64
	low    float64
	close  float64
	volume float64
}

func newCandleBuilder(start time.Time, t tick) *candleBuilder {
	mid := t.Mid()

	return &candleBuilder{
		start:  start,
		open:   mid,
		high:   mid,
		low:    mid,
		close:  mid,
		volume: t.BidVolume + t.AskVolume,
	}
}

func (b *candleBuilder) add(t tick) {
	mid := t.Mid()
	if mid > b.high {
		b.high = mid
	}

	if mid < b.low {
		b.low = mid
	}

	b.close = mid
	b.volume += t.BidVolume + t.AskVolume
}

func (b *candleBuilder) candle(symbol string) types.MarketData {
	return types.MarketData{
		Id:     "",
		Symbol: symbol,
		Time:   b.start,
		Open:   b.open,
		High:   b.high,
		Low:    b.low,
		Close:  b.close,
		Volume: b.volume,
	}
}
