package marketdata

import "github.com/polygon-io/client-go/rest/models"

// Timespan is the candle interval in its compact config form, for example
// "1m" or "4h". It splits into the multiplier and base unit pair the
// provider API works with.
type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

// IsValid reports whether the interval is one of the supported values.
func (t Timespan) IsValid() bool {
	switch t {
	case TimespanOneSecond, TimespanOneMinute, TimespanThreeMinutes, TimespanFiveMinutes,
		TimespanFifteenMinutes, TimespanThirtyMinutes, TimespanOneHour, TimespanTwoHours,
		TimespanFourHours, TimespanSixHours, TimespanEightHours, TimespanTwelveHours,
		TimespanOneDay, TimespanThreeDays, TimespanOneWeek, TimespanOneMonth:
		return true
	default:
		return false
	}
}

// Multiplier returns the number of base units per candle. Unknown
// intervals fall back to 1.
func (t Timespan) Multiplier() int {
	switch t {
	case TimespanThreeMinutes, TimespanThreeDays:
		return 3
	case TimespanFiveMinutes:
		return 5
	case TimespanFifteenMinutes:
		return 15
	case TimespanThirtyMinutes:
		return 30
	case TimespanTwoHours:
		return 2
	case TimespanFourHours:
		return 4
	case TimespanSixHours:
		return 6
	case TimespanEightHours:
		return 8
	case TimespanTwelveHours:
		return 12
	default:
		return 1
	}
}

// Timespan returns the base unit of the interval. Unknown intervals fall
// back to a day.
func (t Timespan) Timespan() models.Timespan {
	switch t {
	case TimespanOneSecond:
		return models.Second
	case TimespanOneMinute, TimespanThreeMinutes, TimespanFiveMinutes, TimespanFifteenMinutes, TimespanThirtyMinutes:
		return models.Minute
	case TimespanOneHour, TimespanTwoHours, TimespanFourHours, TimespanSixHours, TimespanEightHours, TimespanTwelveHours:
		return models.Hour
	case TimespanOneDay, TimespanThreeDays:
		return models.Day
	case TimespanOneWeek:
		return models.Week
	case TimespanOneMonth:
		return models.Month
	default:
		return models.Day
	}
}
