package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	engine "github.com/rxtech-lab/argo-fx/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-fx/internal/strategy"
	"github.com/rxtech-lab/argo-fx/pkg/utils"
	"gopkg.in/yaml.v2"
)

const (
	engineSchemaName   = "backtest-engine-v1-config.json"
	strategySchemaName = "mean-reversion-config.json"
)

// validatePaths checks that both output paths are set.
func validatePaths(schemaPath string, sampleConfigPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return nil
}

// validateSchemaName checks that the schema file name is a .json file.
func validateSchemaName(schemaName string) error {
	if schemaName == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(schemaName, ".json") {
		return fmt.Errorf("schema name must have .json extension, got %s", schemaName)
	}

	return nil
}

// getSchemaReference returns the yaml-language-server header line that
// points editors at the generated schema.
func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}

// generateSchemaFile writes the engine config JSON schema to schemaPath,
// creating parent directories as needed.
func generateSchemaFile(config engine.BacktestEngineV1Config, schemaPath string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes a sample engine config YAML with a schema
// reference header. An existing file is left untouched.
func generateSampleConfig(config engine.BacktestEngineV1Config, samplePath string, schemaName string) error {
	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.MkdirAll(filepath.Dir(samplePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	return nil
}

func main() {
	config := engine.EmptyConfig()

	schemaPath := filepath.Join("./config", engineSchemaName)
	sampleConfigPath := filepath.Join("./config", "backtest-engine-v1-config.yaml")

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		log.Fatalf("Invalid paths: %v", err)
	}

	if err := validateSchemaName(engineSchemaName); err != nil {
		log.Fatalf("Invalid schema name: %v", err)
	}

	if err := generateSchemaFile(config, schemaPath); err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	if err := generateSampleConfig(config, sampleConfigPath, engineSchemaName); err != nil {
		log.Fatalf("Failed to generate sample config: %v", err)
	}

	strategySchemaPath := filepath.Join("./config", strategySchemaName)

	//nolint:exhaustruct // Empty struct is intentional for schema generation
	if err := utils.WriteSchemaToFile(strategy.MeanReversionConfig{}, strategySchemaPath); err != nil {
		log.Fatalf("Failed to generate strategy schema: %v", err)
	}

	log.Printf("Strategy schema successfully generated at %s", strategySchemaPath)
}
