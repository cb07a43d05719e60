package provider

import (
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/suite"
)

type ProviderFactoryTestSuite struct {
	suite.Suite
}

func TestProviderFactorySuite(t *testing.T) {
	suite.Run(t, new(ProviderFactoryTestSuite))
}

func (suite *ProviderFactoryTestSuite) TestNewMarketDataProviderDukascopy() {
	provider, err := NewMarketDataProvider(ProviderDukascopy, nil)
	suite.NoError(err)
	suite.IsType(&DukascopyClient{}, provider)
}

func (suite *ProviderFactoryTestSuite) TestNewMarketDataProviderPolygon() {
	provider, err := NewMarketDataProvider(ProviderPolygon, "test-api-key")
	suite.NoError(err)
	suite.IsType(&PolygonClient{}, provider)
}

func (suite *ProviderFactoryTestSuite) TestNewMarketDataProviderPolygonBadConfig() {
	provider, err := NewMarketDataProvider(ProviderPolygon, 42)
	suite.Error(err)
	suite.Nil(provider)
	suite.Contains(err.Error(), "API key")
}

func (suite *ProviderFactoryTestSuite) TestNewMarketDataProviderSynthetic() {
	provider, err := NewMarketDataProvider(ProviderSynthetic, nil)
	suite.NoError(err)
	suite.IsType(&SyntheticProvider{}, provider)

	configured, err := NewMarketDataProvider(ProviderSynthetic, &SyntheticConfig{Pattern: PatternVolatile, Seed: 42})
	suite.NoError(err)

	syntheticProvider, ok := configured.(*SyntheticProvider)
	suite.Require().True(ok)
	suite.Equal(PatternVolatile, syntheticProvider.config.Pattern)
	suite.Equal(int64(42), syntheticProvider.config.Seed)
}

func (suite *ProviderFactoryTestSuite) TestNewMarketDataProviderSyntheticBadConfig() {
	provider, err := NewMarketDataProvider(ProviderSynthetic, "not a config")
	suite.Error(err)
	suite.Nil(provider)
}

func (suite *ProviderFactoryTestSuite) TestNewMarketDataProviderUnsupported() {
	provider, err := NewMarketDataProvider(ProviderType("bloomberg"), nil)
	suite.Error(err)
	suite.Nil(provider)
	suite.Contains(err.Error(), "unsupported market data provider")
}

func (suite *ProviderFactoryTestSuite) TestCandleDuration() {
	tests := []struct {
		name       string
		multiplier int
		timespan   models.Timespan
		expected   time.Duration
	}{
		{"one second", 1, models.Second, time.Second},
		{"one minute", 1, models.Minute, time.Minute},
		{"five minutes", 5, models.Minute, 5 * time.Minute},
		{"one hour", 1, models.Hour, time.Hour},
		{"four hours", 4, models.Hour, 4 * time.Hour},
		{"one day", 1, models.Day, 24 * time.Hour},
		{"one week", 1, models.Week, 7 * 24 * time.Hour},
		{"one month", 1, models.Month, 30 * 24 * time.Hour},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			duration, err := candleDuration(tc.multiplier, tc.timespan)
			suite.NoError(err)
			suite.Equal(tc.expected, duration)
		})
	}
}

func (suite *ProviderFactoryTestSuite) TestCandleDurationInvalid() {
	_, err := candleDuration(0, models.Minute)
	suite.Error(err)

	_, err = candleDuration(1, models.Timespan("quarter"))
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported timespan")
}
