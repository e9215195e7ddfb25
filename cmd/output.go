package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats shared by the reporting commands.
const (
	formatPretty = "pretty"
	formatJSON   = "json"
	formatYAML   = "yaml"
)

// writeFormatted encodes v as JSON or YAML, or calls pretty for human output.
func writeFormatted(w io.Writer, format string, v any, pretty func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatPretty, "":
		return pretty(w)
	default:
		return fmt.Errorf("unsupported format %q (use pretty, json or yaml)", format)
	}
}
