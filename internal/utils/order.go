package utils

import (
	"math"
	"strings"
)

// RoundToDecimalPrecision floors the quantity to the specified decimal precision.
func RoundToDecimalPrecision(quantity float64, decimalPrecision int) float64 {
	multiplier := math.Pow10(decimalPrecision)

	return math.Floor(quantity*multiplier) / multiplier
}

// NormalizeSymbol uppercases a currency pair and strips separators, so
// "eur/usd", "EUR-USD" and "EURUSD" all become "EURUSD".
func NormalizeSymbol(symbol string) string {
	replacer := strings.NewReplacer("/", "", "-", "", "_", "")

	return replacer.Replace(strings.ToUpper(symbol))
}

// IsJPYQuoted reports whether the pair is quoted in Japanese yen.
// JPY-quoted pairs use two decimal places instead of four.
func IsJPYQuoted(symbol string) bool {
	return strings.HasSuffix(NormalizeSymbol(symbol), "JPY")
}

// PipSize returns the price increment of one pip for the given pair:
// 0.01 for JPY-quoted pairs, 0.0001 for everything else.
func PipSize(symbol string) float64 {
	if IsJPYQuoted(symbol) {
		return 0.01
	}

	return 0.0001
}
