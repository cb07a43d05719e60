package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RSITestSuite struct {
	suite.Suite
}

func TestRSISuite(t *testing.T) {
	suite.Run(t, new(RSITestSuite))
}

func (suite *RSITestSuite) TestInvalidConfig() {
	_, err := NewRSI(0)
	suite.Error(err)

	_, err = NewRSI(-14)
	suite.Error(err)
}

func (suite *RSITestSuite) TestReadyNeedsPeriodPlusOneBars() {
	rsi, err := NewRSI(3)
	suite.NoError(err)

	// The first bar sets the previous close and produces no change
	closes := []float64{10, 11, 10.5}
	for i, close := range closes {
		rsi.Update(closeBar(i, close))
		suite.False(rsi.Ready())
	}

	rsi.Update(closeBar(3, 11.5))
	suite.True(rsi.Ready())
}

func (suite *RSITestSuite) TestFirstAverageIsSimpleMean() {
	rsi, err := NewRSI(3)
	suite.NoError(err)

	// Changes: +1, -0.5, +1 -> avgGain 2/3, avgLoss 1/6, RS 4
	for i, close := range []float64{10, 11, 10.5, 11.5} {
		rsi.Update(closeBar(i, close))
	}

	suite.InDelta(80.0, rsi.Value(), 1e-9)
}

func (suite *RSITestSuite) TestWilderSmoothingAfterWarmup() {
	rsi, err := NewRSI(3)
	suite.NoError(err)

	for i, close := range []float64{10, 11, 10.5, 11.5, 12} {
		rsi.Update(closeBar(i, close))
	}

	// avgGain = (2/3*2 + 0.5)/3 = 11/18, avgLoss = (1/6*2)/3 = 1/9, RS 5.5
	suite.InDelta(100.0-100.0/6.5, rsi.Value(), 1e-9)
}

func (suite *RSITestSuite) TestAllGainsReadsHundred() {
	rsi, err := NewRSI(3)
	suite.NoError(err)

	for i, close := range []float64{1, 2, 3, 4} {
		rsi.Update(closeBar(i, close))
	}

	suite.Equal(100.0, rsi.Value())
}

func (suite *RSITestSuite) TestAllLossesReadsZero() {
	rsi, err := NewRSI(3)
	suite.NoError(err)

	for i, close := range []float64{4, 3, 2, 1} {
		rsi.Update(closeBar(i, close))
	}

	suite.InDelta(0.0, rsi.Value(), 1e-9)
}

func (suite *RSITestSuite) TestFlatMarketReadsHundred() {
	rsi, err := NewRSI(3)
	suite.NoError(err)

	for i := 0; i < 4; i++ {
		rsi.Update(closeBar(i, 5))
	}

	// Zero average loss maps to 100 even when gains are zero too
	suite.Equal(100.0, rsi.Value())
}

func (suite *RSITestSuite) TestValueStaysInRange() {
	rsi, err := NewRSI(5)
	suite.NoError(err)

	closes := []float64{1.10, 1.12, 1.09, 1.15, 1.08, 1.20, 1.05, 1.22, 1.03, 1.25}
	for i, close := range closes {
		rsi.Update(closeBar(i, close))

		if rsi.Ready() {
			value := rsi.Value()
			suite.GreaterOrEqual(value, 0.0)
			suite.LessOrEqual(value, 100.0)
		}
	}
}
