package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-fx/internal/indicator"
	"github.com/rxtech-lab/argo-fx/internal/risk"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults applied by ParseMeanReversionConfig when a field is absent.
// RiskPerTrade and PositionSize have no defaults: a zero risk fraction
// selects fixed sizing, so zero must survive parsing.
const (
	DefaultBollingerPeriod         = 20
	DefaultBollingerMultiplier     = 2.0
	DefaultRSIPeriod               = 14
	DefaultRSIOversold             = 25.0
	DefaultRSIOverbought           = 75.0
	DefaultTrendEMAPeriod          = 200
	DefaultATRPeriod               = 14
	DefaultStopLossATRMultiplier   = 2.0
	DefaultTakeProfitATRMultiplier = 3.0
)

// MeanReversionConfig is the full parameter set of the mean reversion
// strategy. All values are fixed at Initialize time and never change
// during a run.
type MeanReversionConfig struct {
	// Symbol is the instrument the strategy trades, e.g. EURUSD.
	Symbol string `yaml:"symbol" json:"symbol" validate:"required" jsonschema:"title=Symbol,description=Instrument the strategy trades"`
	// BollingerPeriod is the lookback window of the volatility bands.
	BollingerPeriod int `yaml:"bb_period" json:"bb_period" validate:"omitempty,min=2" jsonschema:"title=Bollinger Period,default=20"`
	// BollingerMultiplier is the band width in standard deviations.
	BollingerMultiplier float64 `yaml:"bb_k" json:"bb_k" validate:"omitempty,gt=0" jsonschema:"title=Band Width Multiplier,default=2"`
	// RSIPeriod is the lookback window of the RSI oscillator.
	RSIPeriod int `yaml:"rsi_period" json:"rsi_period" validate:"omitempty,min=1" jsonschema:"title=RSI Period,default=14"`
	// RSIOversold is the RSI level below which a long entry is allowed.
	RSIOversold float64 `yaml:"rsi_oversold" json:"rsi_oversold" validate:"omitempty,gt=0,lt=100" jsonschema:"title=RSI Oversold Threshold,default=25"`
	// RSIOverbought is the RSI level above which a short entry is allowed.
	RSIOverbought float64 `yaml:"rsi_overbought" json:"rsi_overbought" validate:"omitempty,gt=0,lt=100" jsonschema:"title=RSI Overbought Threshold,default=75"`
	// TrendEMAPeriod is the length of the trend filter average.
	TrendEMAPeriod int `yaml:"ema_period" json:"ema_period" validate:"omitempty,min=1" jsonschema:"title=Trend EMA Period,default=200"`
	// ATRPeriod is the lookback window of the volatility measure used for
	// stop and target placement.
	ATRPeriod int `yaml:"atr_period" json:"atr_period" validate:"omitempty,min=1" jsonschema:"title=ATR Period,default=14"`
	// StopLossATRMultiplier is the stop distance in ATR units.
	StopLossATRMultiplier float64 `yaml:"sl_atr_mult" json:"sl_atr_mult" validate:"omitempty,gt=0" jsonschema:"title=Stop Loss ATR Multiplier,default=2"`
	// TakeProfitATRMultiplier is the target distance in ATR units.
	TakeProfitATRMultiplier float64 `yaml:"tp_atr_mult" json:"tp_atr_mult" validate:"omitempty,gt=0" jsonschema:"title=Take Profit ATR Multiplier,default=3"`
	// RiskPerTrade is the fraction of account equity risked between entry
	// and stop. Zero selects fixed sizing via PositionSize.
	RiskPerTrade float64 `yaml:"risk_per_trade" json:"risk_per_trade" validate:"gte=0,lt=1" jsonschema:"title=Risk Per Trade,description=Fraction of equity risked per trade; 0 selects fixed sizing"`
	// PositionSize is the fixed order quantity used when RiskPerTrade is
	// zero.
	PositionSize float64 `yaml:"position_size" json:"position_size" validate:"gte=0" jsonschema:"title=Fixed Position Size,description=Order quantity used when risk_per_trade is 0"`
}

// ParseMeanReversionConfig decodes the YAML config string, fills defaults
// for absent fields and validates the result.
func ParseMeanReversionConfig(config string) (MeanReversionConfig, error) {
	var cfg MeanReversionConfig
	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to decode strategy config", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c *MeanReversionConfig) applyDefaults() {
	if c.BollingerPeriod == 0 {
		c.BollingerPeriod = DefaultBollingerPeriod
	}

	if c.BollingerMultiplier == 0 {
		c.BollingerMultiplier = DefaultBollingerMultiplier
	}

	if c.RSIPeriod == 0 {
		c.RSIPeriod = DefaultRSIPeriod
	}

	if c.RSIOversold == 0 {
		c.RSIOversold = DefaultRSIOversold
	}

	if c.RSIOverbought == 0 {
		c.RSIOverbought = DefaultRSIOverbought
	}

	if c.TrendEMAPeriod == 0 {
		c.TrendEMAPeriod = DefaultTrendEMAPeriod
	}

	if c.ATRPeriod == 0 {
		c.ATRPeriod = DefaultATRPeriod
	}

	if c.StopLossATRMultiplier == 0 {
		c.StopLossATRMultiplier = DefaultStopLossATRMultiplier
	}

	if c.TakeProfitATRMultiplier == 0 {
		c.TakeProfitATRMultiplier = DefaultTakeProfitATRMultiplier
	}
}

// Validate checks field constraints and the relations between them.
func (c *MeanReversionConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	if c.RSIOversold >= c.RSIOverbought {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "rsi_oversold %.2f must be below rsi_overbought %.2f", c.RSIOversold, c.RSIOverbought)
	}

	if c.RiskPerTrade == 0 && c.PositionSize == 0 {
		return errors.New(errors.ErrCodeInvalidQuantity, "either risk_per_trade or position_size must be set")
	}

	return nil
}

// IndicatorConfig maps the strategy parameters onto the indicator bank.
func (c MeanReversionConfig) IndicatorConfig() indicator.Config {
	return indicator.Config{
		BollingerPeriod:     c.BollingerPeriod,
		BollingerMultiplier: c.BollingerMultiplier,
		RSIPeriod:           c.RSIPeriod,
		EMAPeriod:           c.TrendEMAPeriod,
		ATRPeriod:           c.ATRPeriod,
	}
}

// RiskConfig maps the strategy parameters onto the risk manager.
func (c MeanReversionConfig) RiskConfig() risk.Config {
	return risk.Config{
		StopLossATRMultiplier:   c.StopLossATRMultiplier,
		TakeProfitATRMultiplier: c.TakeProfitATRMultiplier,
		RiskPerTrade:            c.RiskPerTrade,
		PositionSize:            c.PositionSize,
	}
}
