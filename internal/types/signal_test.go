package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}

func (suite *SignalTestSuite) TestSignalTypeConstants() {
	suite.Equal(SignalType("buy"), SignalTypeBuy)
	suite.Equal(SignalType("sell"), SignalTypeSell)
	suite.Equal(SignalType("no_action"), SignalTypeNoAction)
}

func (suite *SignalTestSuite) TestSignalStruct() {
	now := time.Now()
	signal := Signal{
		Time:   now,
		Type:   SignalTypeBuy,
		Name:   "mean-reversion-entry",
		Reason: "close below lower band, rsi oversold, above trend ema",
		Symbol: "EURUSD",
	}

	suite.Equal(now, signal.Time)
	suite.Equal(SignalTypeBuy, signal.Type)
	suite.Equal("mean-reversion-entry", signal.Name)
	suite.Equal("close below lower band, rsi oversold, above trend ema", signal.Reason)
	suite.Equal("EURUSD", signal.Symbol)
}

func (suite *SignalTestSuite) TestSignalZeroValues() {
	signal := Signal{}

	suite.True(signal.Time.IsZero())
	suite.Empty(string(signal.Type))
	suite.Empty(signal.Name)
	suite.Empty(signal.Reason)
	suite.Empty(signal.Symbol)
}

func (suite *SignalTestSuite) TestSignalIsActionable() {
	suite.True(Signal{Type: SignalTypeBuy}.IsActionable())
	suite.True(Signal{Type: SignalTypeSell}.IsActionable())
	suite.False(Signal{Type: SignalTypeNoAction}.IsActionable())
	suite.False(Signal{}.IsActionable())
}

func (suite *SignalTestSuite) TestSignalPositionTypeBuy() {
	side, ok := Signal{Type: SignalTypeBuy}.PositionType()
	suite.True(ok)
	suite.Equal(PositionTypeLong, side)
}

func (suite *SignalTestSuite) TestSignalPositionTypeSell() {
	side, ok := Signal{Type: SignalTypeSell}.PositionType()
	suite.True(ok)
	suite.Equal(PositionTypeShort, side)
}

func (suite *SignalTestSuite) TestSignalPositionTypeNoAction() {
	_, ok := Signal{Type: SignalTypeNoAction}.PositionType()
	suite.False(ok)
}
