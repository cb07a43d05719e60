package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

// TestConfig is a sample config struct for testing
type TestConfig struct {
	Name    string   `json:"name" jsonschema:"description=The name of the config"`
	Value   int      `json:"value" jsonschema:"description=A numeric value"`
	Enabled bool     `json:"enabled"`
	Tags    []string `json:"tags,omitempty"`
}

// NestedConfig is a sample nested config struct for testing
type NestedConfig struct {
	ID     string     `json:"id"`
	Config TestConfig `json:"config"`
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigSimple() {
	config := TestConfig{}
	schema, err := GetSchemaFromConfig(config)

	suite.NoError(err)
	suite.NotEmpty(schema)

	// Verify it's valid JSON
	var result map[string]interface{}
	err = json.Unmarshal([]byte(schema), &result)
	suite.NoError(err)

	// Check basic schema properties exist
	suite.Contains(result, "$schema")
	// Definitions are inlined rather than referenced through $defs
	suite.NotContains(result, "$ref")
	suite.NotContains(result, "$defs")

	properties, ok := result["properties"].(map[string]interface{})
	suite.True(ok, "schema should have top-level properties")
	suite.Contains(properties, "name")
	suite.Contains(properties, "value")
	suite.Contains(properties, "enabled")
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigNested() {
	config := NestedConfig{}
	schema, err := GetSchemaFromConfig(config)

	suite.NoError(err)
	suite.NotEmpty(schema)

	// Verify it's valid JSON
	var result map[string]interface{}
	err = json.Unmarshal([]byte(schema), &result)
	suite.NoError(err)
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigPointer() {
	config := &TestConfig{}
	schema, err := GetSchemaFromConfig(config)

	suite.NoError(err)
	suite.NotEmpty(schema)
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigEmptyStruct() {
	type EmptyConfig struct{}
	config := EmptyConfig{}
	schema, err := GetSchemaFromConfig(config)

	suite.NoError(err)
	suite.NotEmpty(schema)
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigPrimitiveTypes() {
	// Test with various primitive types
	schema, err := GetSchemaFromConfig("string")
	suite.NoError(err)
	suite.NotEmpty(schema)

	schema, err = GetSchemaFromConfig(42)
	suite.NoError(err)
	suite.NotEmpty(schema)

	schema, err = GetSchemaFromConfig(true)
	suite.NoError(err)
	suite.NotEmpty(schema)

	schema, err = GetSchemaFromConfig(3.14)
	suite.NoError(err)
	suite.NotEmpty(schema)
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigSlice() {
	config := []TestConfig{}
	schema, err := GetSchemaFromConfig(config)

	suite.NoError(err)
	suite.NotEmpty(schema)
}

func (suite *UtilsTestSuite) TestWriteSchemaToFile() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "schema.json")

	err := WriteSchemaToFile(TestConfig{}, path)
	suite.NoError(err)

	data, err := os.ReadFile(path)
	suite.NoError(err)
	suite.NotEmpty(data)

	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	suite.NoError(err)
	suite.Contains(result, "$schema")
}

func (suite *UtilsTestSuite) TestWriteSchemaToFileBadPath() {
	err := WriteSchemaToFile(TestConfig{}, filepath.Join(suite.T().TempDir(), "missing", "schema.json"))
	suite.Error(err)
}
