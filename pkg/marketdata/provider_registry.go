package marketdata

import (
	"fmt"

	"github.com/rxtech-lab/argo-fx/pkg/utils"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderDukascopy: {
		Name:         string(ProviderDukascopy),
		DisplayName:  "Dukascopy",
		Description:  "Swiss bank tick data feed with free historical data for major FX pairs",
		RequiresAuth: false,
	},
	ProviderPolygon: {
		Name:         string(ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "Market data provider with historical OHLCV aggregates for currency pairs",
		RequiresAuth: true,
	},
	ProviderSynthetic: {
		Name:         string(ProviderSynthetic),
		DisplayName:  "Synthetic",
		Description:  "Deterministic generated price data for testing and local development",
		RequiresAuth: false,
	},
}

// GetSupportedProviders returns a list of all supported provider names.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetDownloadConfigSchema returns the JSON schema for a provider's download configuration.
func GetDownloadConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderDukascopy:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return utils.GetSchemaFromConfig(DukascopyDownloadConfig{})
	case ProviderPolygon:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return utils.GetSchemaFromConfig(PolygonDownloadConfig{})
	case ProviderSynthetic:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return utils.GetSchemaFromConfig(SyntheticDownloadConfig{})
	default:
		return "", fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// ParseDownloadConfig parses a JSON configuration string for the given provider.
// Returns the parsed config as an interface{} which can be type-asserted to the specific config type.
func ParseDownloadConfig(providerName string, jsonConfig string) (interface{}, error) {
	switch ProviderType(providerName) {
	case ProviderDukascopy:
		return ParseDukascopyConfig(jsonConfig)
	case ProviderPolygon:
		return ParsePolygonConfig(jsonConfig)
	case ProviderSynthetic:
		return ParseSyntheticConfig(jsonConfig)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}
