package writer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/stretchr/testify/suite"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupSuite() {
	tempDir, err := os.MkdirTemp("", "duckdb-writer-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

func (suite *DuckDBWriterTestSuite) TearDownSuite() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func candleAt(minuteOffset int) types.MarketData {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	return types.MarketData{
		Symbol: "EURUSD",
		Time:   base.Add(time.Duration(minuteOffset) * time.Minute),
		Open:   1.1000 + float64(minuteOffset)*0.0001,
		High:   1.1005 + float64(minuteOffset)*0.0001,
		Low:    1.0995 + float64(minuteOffset)*0.0001,
		Close:  1.1002 + float64(minuteOffset)*0.0001,
		Volume: 1500.0 + float64(minuteOffset),
	}
}

func (suite *DuckDBWriterTestSuite) TestNewDuckDBWriter() {
	outputPath := filepath.Join(suite.tempDir, "new.parquet")
	writer := NewDuckDBWriter(outputPath, FormatParquet)

	suite.NotNil(writer)

	duckWriter, ok := writer.(*DuckDBWriter)
	suite.True(ok)
	suite.Equal(outputPath, duckWriter.outputPath)
	suite.Equal(outputPath, writer.GetOutputPath())
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestWriteWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "no_init.parquet"), FormatParquet)

	err := writer.Write(candleAt(0))
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")
}

func (suite *DuckDBWriterTestSuite) TestFinalizeWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "no_init_finalize.parquet"), FormatParquet)

	_, err := writer.Finalize()
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")
}

func (suite *DuckDBWriterTestSuite) TestCloseWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "no_init_close.parquet"), FormatParquet)

	suite.NoError(writer.Close())
}

func (suite *DuckDBWriterTestSuite) TestParquetWorkflow() {
	outputPath := filepath.Join(suite.tempDir, "workflow.parquet")
	writer := NewDuckDBWriter(outputPath, FormatParquet)

	suite.Require().NoError(writer.Initialize())

	for i := 0; i < 10; i++ {
		suite.Require().NoError(writer.Write(candleAt(i)))
	}

	path, err := writer.Finalize()
	suite.NoError(err)
	suite.Equal(outputPath, path)

	fileInfo, err := os.Stat(path)
	suite.NoError(err)
	suite.Greater(fileInfo.Size(), int64(0))

	suite.NoError(writer.Close())
}

func (suite *DuckDBWriterTestSuite) TestCSVWorkflow() {
	outputPath := filepath.Join(suite.tempDir, "workflow.csv")
	writer := NewDuckDBWriter(outputPath, FormatCSV)

	suite.Require().NoError(writer.Initialize())

	// Write out of time order to check the export sorts by time.
	suite.Require().NoError(writer.Write(candleAt(2)))
	suite.Require().NoError(writer.Write(candleAt(0)))
	suite.Require().NoError(writer.Write(candleAt(1)))

	path, err := writer.Finalize()
	suite.Require().NoError(err)
	suite.NoError(writer.Close())

	file, err := os.Open(path)
	suite.Require().NoError(err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	suite.Require().NoError(err)
	suite.Require().Len(records, 4)

	suite.Equal([]string{"id", "time", "symbol", "open", "high", "low", "close", "volume"}, records[0])
	suite.Equal("EURUSD", records[1][2])
	suite.Contains(records[1][1], "09:00:00")
	suite.Contains(records[2][1], "09:01:00")
	suite.Contains(records[3][1], "09:02:00")
}

func (suite *DuckDBWriterTestSuite) TestWriteAfterClose() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "write_after_close.parquet"), FormatParquet)

	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(writer.Write(candleAt(0)))

	_, err := writer.Finalize()
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	err = writer.Write(candleAt(1))
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")
}

func (suite *DuckDBWriterTestSuite) TestDoubleFinalize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "double_finalize.parquet"), FormatParquet)

	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(writer.Write(candleAt(0)))

	_, err := writer.Finalize()
	suite.NoError(err)

	_, err = writer.Finalize()
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")

	writer.Close()
}

func (suite *DuckDBWriterTestSuite) TestDoubleClose() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "double_close.parquet"), FormatParquet)

	suite.Require().NoError(writer.Initialize())
	suite.NoError(writer.Close())
	suite.NoError(writer.Close())

	duckWriter := writer.(*DuckDBWriter)
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestCloseWithActiveTransaction() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "close_active_tx.parquet"), FormatParquet)

	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(writer.Write(candleAt(0)))

	// Close without finalizing rolls the transaction back.
	suite.NoError(writer.Close())

	duckWriter := writer.(*DuckDBWriter)
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestFinalizeExportError() {
	writer := NewDuckDBWriter("/nonexistent/directory/export.parquet", FormatParquet)

	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(writer.Write(candleAt(0)))

	_, err := writer.Finalize()
	suite.Error(err)
	suite.Contains(err.Error(), "failed to export to Parquet")

	writer.Close()
}
