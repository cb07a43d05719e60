package types

type IndicatorType string

const (
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeATR            IndicatorType = "atr"
)
