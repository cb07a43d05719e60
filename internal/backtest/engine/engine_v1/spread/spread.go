package spread

type SpreadModel interface {
	// HalfSpread returns half the bid/ask spread in price units for the given symbol.
	HalfSpread(symbol string) float64
}

type ModelName string

const (
	ModelFixedPips ModelName = "fixed_pips"
	ModelZero      ModelName = "zero_spread"
)

var AllModels = []any{
	ModelFixedPips,
	ModelZero,
}

// GetSpreadModel resolves a model name from config into a SpreadModel.
// pips is the full quoted spread width and is only used by fixed_pips.
func GetSpreadModel(name ModelName, pips float64) SpreadModel {
	switch name {
	case ModelFixedPips:
		return NewFixedPipsSpread(pips)
	case ModelZero:
		return NewZeroSpread()
	default:
		return NewZeroSpread()
	}
}
