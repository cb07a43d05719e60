package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-fx/internal/backtest/engine/engine_v1/spread"
)

type BacktestEngineV1Config struct {
	InitialCapital   float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in quote currency,minimum=0"`
	SpreadModel      spread.ModelName           `yaml:"spread_model" json:"spread_model" jsonschema:"title=Spread Model,description=The spread model used to price fills"`
	SpreadPips       float64                    `yaml:"spread_pips" json:"spread_pips" jsonschema:"title=Spread Pips,description=Full quoted spread width in pips for the fixed_pips model,minimum=0"`
	StartTime        optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime          optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	DecimalPrecision int                        `yaml:"decimal_precision" json:"decimal_precision" jsonschema:"title=Decimal Precision,description=Number of decimal places kept on order quantities,minimum=0"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// The v2-style signature also satisfies yaml.v3 through its backwards
// compatible unmarshaler support.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital   float64          `yaml:"initial_capital"`
		SpreadModel      spread.ModelName `yaml:"spread_model"`
		SpreadPips       float64          `yaml:"spread_pips"`
		StartTime        *time.Time       `yaml:"start_time"`
		EndTime          *time.Time       `yaml:"end_time"`
		DecimalPrecision int              `yaml:"decimal_precision"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.SpreadModel = config.SpreadModel
	c.SpreadPips = config.SpreadPips
	c.DecimalPrecision = config.DecimalPrecision

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config.
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if strings.Contains(t.String(), "spread.ModelName") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: spread.AllModels,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	// Set schema metadata
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config.
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time, model spread.ModelName) BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   10000,
		SpreadModel:      model,
		SpreadPips:       1.0,
		StartTime:        optional.Some(startTime),
		EndTime:          optional.Some(endTime),
		DecimalPrecision: 2,
	}
}

// EmptyConfig returns a BacktestEngineV1Config with default values.
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   0,
		SpreadModel:      spread.ModelZero,
		SpreadPips:       0,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		DecimalPrecision: 2,
	}
}
