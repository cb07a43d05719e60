package utils

import (
	"encoding/json"
	"os"

	"github.com/invopop/jsonschema"
)

func GetSchemaFromConfig(config any) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(config)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}

// WriteSchemaToFile reflects the JSON schema of the given config and writes it
// to the given path.
func WriteSchemaToFile(config any, path string) error {
	schema, err := GetSchemaFromConfig(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, []byte(schema), 0644)
}
