package provider

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/suite"
)

// mockPolygonAPIClient implements PolygonAPIClient for testing.
type mockPolygonAPIClient struct {
	iterator   PolygonAggsIterator
	lastParams *models.ListAggsParams
}

func (m *mockPolygonAPIClient) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	m.lastParams = params

	return m.iterator
}

// mockPolygonIterator implements PolygonAggsIterator for testing.
type mockPolygonIterator struct {
	aggs  []models.Agg
	index int
	err   error
}

func (m *mockPolygonIterator) Next() bool {
	if m.index < len(m.aggs) {
		m.index++

		return true
	}

	return false
}

func (m *mockPolygonIterator) Item() models.Agg {
	if m.index > 0 && m.index <= len(m.aggs) {
		return m.aggs[m.index-1]
	}

	return models.Agg{}
}

func (m *mockPolygonIterator) Err() error {
	return m.err
}

func fxAgg(minuteOffset int) models.Agg {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	//nolint:exhaustruct // third-party struct with many optional fields
	return models.Agg{
		Timestamp: models.Millis(base.Add(time.Duration(minuteOffset) * time.Minute)),
		Open:      1.1000 + float64(minuteOffset)*0.0001,
		High:      1.1005 + float64(minuteOffset)*0.0001,
		Low:       1.0995 + float64(minuteOffset)*0.0001,
		Close:     1.1002 + float64(minuteOffset)*0.0001,
		Volume:    1500,
	}
}

type PolygonClientTestSuite struct {
	suite.Suite
}

func TestPolygonClientSuite(t *testing.T) {
	suite.Run(t, new(PolygonClientTestSuite))
}

func (suite *PolygonClientTestSuite) TestNewPolygonClient_ValidApiKey() {
	client, err := NewPolygonClient("test-api-key")
	suite.NoError(err)
	suite.NotNil(client)

	polygonClient, ok := client.(*PolygonClient)
	suite.True(ok)
	suite.NotNil(polygonClient.apiClient)
	suite.Nil(polygonClient.writer)
}

func (suite *PolygonClientTestSuite) TestNewPolygonClient_EmptyApiKey() {
	client, err := NewPolygonClient("")
	suite.Error(err)
	suite.Nil(client)
	suite.Contains(err.Error(), "apiKey is required")
}

func (suite *PolygonClientTestSuite) TestNewPolygonClientWithAPI() {
	mockAPI := &mockPolygonAPIClient{}
	client := NewPolygonClientWithAPI(mockAPI)
	suite.NotNil(client)
	suite.Equal(mockAPI, client.apiClient)
	suite.Nil(client.writer)
}

func (suite *PolygonClientTestSuite) TestConfigWriter() {
	client := NewPolygonClientWithAPI(&mockPolygonAPIClient{})
	suite.Nil(client.writer)

	mockW := &mockWriter{outputPath: "/tmp/test.parquet"}
	client.ConfigWriter(mockW)
	suite.Equal(mockW, client.writer)
}

func (suite *PolygonClientTestSuite) TestPolygonTicker() {
	suite.Equal("C:EURUSD", polygonTicker("EURUSD"))
	suite.Equal("C:GBPJPY", polygonTicker("GBPJPY"))
	suite.Equal("X:BTCUSD", polygonTicker("X:BTCUSD"))
}

func (suite *PolygonClientTestSuite) TestDownload_WithoutWriter() {
	client := NewPolygonClientWithAPI(&mockPolygonAPIClient{})

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "no writer configured")
}

func (suite *PolygonClientTestSuite) TestDownload_WriterInitializeError() {
	client := NewPolygonClientWithAPI(&mockPolygonAPIClient{})
	client.ConfigWriter(&mockWriter{initializeErr: errors.New("initialization failed")})

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to initialize writer")
}

func (suite *PolygonClientTestSuite) TestDownloadSuccess() {
	mockIter := &mockPolygonIterator{aggs: []models.Agg{fxAgg(0), fxAgg(1)}}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{outputPath: "/tmp/test.parquet"}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	path, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.NoError(err)
	suite.Equal("/tmp/test.parquet", path)
	suite.Len(mockW.writtenData, 2)
	suite.True(mockW.initialized)
	suite.Equal(1, mockW.closeCallCount)

	first := mockW.writtenData[0]
	suite.Equal("EURUSD", first.Symbol)
	suite.Equal(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), first.Time)
	suite.InDelta(1.1000, first.Open, 1e-9)
	suite.InDelta(1.1005, first.High, 1e-9)
	suite.InDelta(1.0995, first.Low, 1e-9)
	suite.InDelta(1.1002, first.Close, 1e-9)
	suite.InDelta(1500, first.Volume, 1e-9)

	// The wire ticker carries the currency prefix, the stored symbol does not.
	suite.Require().NotNil(mockAPI.lastParams)
	suite.Equal("C:EURUSD", mockAPI.lastParams.Ticker)
}

func (suite *PolygonClientTestSuite) TestDownloadEmptyAggs() {
	mockIter := &mockPolygonIterator{aggs: []models.Agg{}}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{outputPath: "/tmp/empty.parquet"}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	path, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.NoError(err)
	suite.Equal("/tmp/empty.parquet", path)
	suite.Empty(mockW.writtenData)
}

func (suite *PolygonClientTestSuite) TestDownloadIteratorError() {
	mockIter := &mockPolygonIterator{aggs: []models.Agg{}, err: errors.New("API rate limit exceeded")}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "error iterating polygon aggregates")
	suite.Contains(err.Error(), "API rate limit exceeded")
}

func (suite *PolygonClientTestSuite) TestDownloadWriteError() {
	mockIter := &mockPolygonIterator{aggs: []models.Agg{fxAgg(0)}}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{writeErr: errors.New("disk full")}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to write data")
}

func (suite *PolygonClientTestSuite) TestDownloadFinalizeError() {
	mockIter := &mockPolygonIterator{aggs: []models.Agg{fxAgg(0)}}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{finalizeErr: errors.New("finalize failed")}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to finalize writer")
}

func (suite *PolygonClientTestSuite) TestDownloadCloseError() {
	mockIter := &mockPolygonIterator{aggs: []models.Agg{fxAgg(0)}}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{outputPath: "/tmp/test.parquet", closeErr: errors.New("close failed")}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "error closing writer")
}

func (suite *PolygonClientTestSuite) TestDownloadCloseErrorAfterWriteError() {
	mockIter := &mockPolygonIterator{aggs: []models.Agg{fxAgg(0)}}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{
		writeErr: errors.New("write failed"),
		closeErr: errors.New("close also failed"),
	}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.Error(err)
	// The write failure wins, the close failure is only logged.
	suite.Contains(err.Error(), "failed to write data")
	suite.Equal(1, mockW.closeCallCount)
}

func (suite *PolygonClientTestSuite) TestDownloadProgressCallback() {
	mockIter := &mockPolygonIterator{aggs: []models.Agg{fxAgg(0), fxAgg(1), fxAgg(2)}}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{outputPath: "/tmp/test.parquet"}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	progressCalls := 0

	_, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, func(current float64, total float64, message string) {
		progressCalls++
		suite.Greater(total, 0.0)
		suite.LessOrEqual(current, total)
		suite.Contains(message, "EURUSD")
	})
	suite.NoError(err)
	suite.Equal(3, progressCalls)
}

func (suite *PolygonClientTestSuite) TestDownloadProgressNeverExceedsTotal() {
	// More aggregates than the calendar estimate for the range; the
	// reported progress must still stay at or below the total.
	aggs := make([]models.Agg, 120)
	for i := range aggs {
		aggs[i] = fxAgg(i)
	}

	mockIter := &mockPolygonIterator{aggs: aggs}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{outputPath: "/tmp/test.parquet"}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	endDate := startDate.Add(time.Hour)

	_, err := client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, func(current float64, total float64, message string) {
		suite.LessOrEqual(current/total*100, 100.0)
	})
	suite.NoError(err)
	suite.Len(mockW.writtenData, 120)
}

func (suite *PolygonClientTestSuite) TestDownloadIteratorErrorDeletesEmptyOutput() {
	tmpFile, err := os.CreateTemp("", "polygon_test_*.parquet")
	suite.Require().NoError(err)
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	mockIter := &mockPolygonIterator{aggs: []models.Agg{}, err: errors.New("API rate limit exceeded")}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{outputPath: tmpPath}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err = client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.Error(err)

	_, err = os.Stat(tmpPath)
	suite.True(os.IsNotExist(err), "output should be deleted when the download fails with no data")
}

func (suite *PolygonClientTestSuite) TestDownloadCloseErrorKeepsWrittenOutput() {
	tmpFile, err := os.CreateTemp("", "polygon_test_*.parquet")
	suite.Require().NoError(err)
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	defer os.Remove(tmpPath)

	mockIter := &mockPolygonIterator{aggs: []models.Agg{fxAgg(0)}}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{outputPath: tmpPath, closeErr: errors.New("close failed")}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err = client.Download(context.Background(), "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.Error(err)

	_, err = os.Stat(tmpPath)
	suite.NoError(err, "output with written data survives a close failure")
}

func (suite *PolygonClientTestSuite) TestDownloadCancellation() {
	mockIter := &mockPolygonIterator{aggs: []models.Agg{fxAgg(0)}}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{outputPath: "/tmp/test.parquet"}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(ctx, "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *PolygonClientTestSuite) TestDownloadCancellationDeletesEmptyOutput() {
	tmpFile, err := os.CreateTemp("", "polygon_cancel_test_*.parquet")
	suite.Require().NoError(err)
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	mockIter := &mockPolygonIterator{aggs: []models.Agg{fxAgg(0)}}
	mockAPI := &mockPolygonAPIClient{iterator: mockIter}
	mockW := &mockWriter{outputPath: tmpPath}

	client := NewPolygonClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err = client.Download(ctx, "EURUSD", startDate, endDate, 1, models.Minute, nil)
	suite.ErrorIs(err, context.Canceled)

	_, err = os.Stat(tmpPath)
	suite.True(os.IsNotExist(err), "output should be deleted when cancelled with no data written")
}
