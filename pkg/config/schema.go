package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaVersion is the configuration schema this build validates against.
const SchemaVersion = "1.0.0"

//go:embed schemas/vaultpub-config-v1.json
var configSchemaV1 []byte

// ValidateSchema checks the effective configuration against the embedded JSON Schema.
func ValidateSchema(cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config for validation: %w", err)
	}
	return ValidateConfigData(data)
}

// ValidateConfigData validates raw JSON configuration bytes.
func ValidateConfigData(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(configSchemaV1),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ValidationError{
		Field:  "schema",
		Reason: "configuration validation failed:\n" + strings.Join(problems, "\n"),
	}
}
