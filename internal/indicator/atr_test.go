package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ATRTestSuite struct {
	suite.Suite
}

func TestATRSuite(t *testing.T) {
	suite.Run(t, new(ATRTestSuite))
}

func (suite *ATRTestSuite) TestInvalidConfig() {
	_, err := NewATR(0)
	suite.Error(err)

	_, err = NewATR(-14)
	suite.Error(err)
}

func (suite *ATRTestSuite) TestFirstBarTrueRangeIsHighLow() {
	atr, err := NewATR(1)
	suite.NoError(err)

	atr.Update(rangeBar(0, 10, 8, 9))

	suite.True(atr.Ready())
	suite.InDelta(2.0, atr.Value(), 1e-9)
}

func (suite *ATRTestSuite) TestFirstAverageIsSimpleMean() {
	atr, err := NewATR(2)
	suite.NoError(err)

	atr.Update(rangeBar(0, 10, 8, 9))
	suite.False(atr.Ready())

	atr.Update(rangeBar(1, 11, 9, 10))
	suite.True(atr.Ready())

	// TRs are 2 and 2
	suite.InDelta(2.0, atr.Value(), 1e-9)
}

func (suite *ATRTestSuite) TestWilderSmoothingAfterWarmup() {
	atr, err := NewATR(2)
	suite.NoError(err)

	atr.Update(rangeBar(0, 10, 8, 9))
	atr.Update(rangeBar(1, 11, 9, 10))
	atr.Update(rangeBar(2, 12, 9, 11))

	// TR of the third bar is max(3, |12-10|, |9-10|) = 3
	suite.InDelta(2.5, atr.Value(), 1e-9)
}

func (suite *ATRTestSuite) TestGapUpUsesPreviousClose() {
	atr, err := NewATR(2)
	suite.NoError(err)

	atr.Update(rangeBar(0, 10, 8, 9))
	// Bar gaps well above the previous close; TR must span the gap
	atr.Update(rangeBar(1, 15, 14, 14.5))

	// TRs are 2 and max(1, |15-9|, |14-9|) = 6
	suite.InDelta(4.0, atr.Value(), 1e-9)
}

func (suite *ATRTestSuite) TestGapDownUsesPreviousClose() {
	atr, err := NewATR(2)
	suite.NoError(err)

	atr.Update(rangeBar(0, 10, 8, 9))
	atr.Update(rangeBar(1, 5, 4, 4.5))

	// TRs are 2 and max(1, |5-9|, |4-9|) = 5
	suite.InDelta(3.5, atr.Value(), 1e-9)
}

func (suite *ATRTestSuite) TestNeverNegative() {
	atr, err := NewATR(3)
	suite.NoError(err)

	bars := [][3]float64{
		{1.1010, 1.0990, 1.1000},
		{1.1005, 1.0995, 1.1001},
		{1.1001, 1.1001, 1.1001},
		{1.1050, 1.0950, 1.1020},
		{1.1021, 1.1019, 1.1020},
	}

	for i, b := range bars {
		atr.Update(rangeBar(i, b[0], b[1], b[2]))

		if atr.Ready() {
			suite.GreaterOrEqual(atr.Value(), 0.0)
		}
	}
}
