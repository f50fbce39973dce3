package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// writeOutput renders v in format. Values go through their JSON form first
// so every format shows the backend's field names.
func writeOutput(w io.Writer, format string, v any) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	doc, err := plain(v)
	if err != nil {
		return err
	}
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		table, ok := dropNulls(doc).(map[string]any)
		if !ok {
			table = map[string]any{"value": dropNulls(doc)}
		}
		return toml.NewEncoder(w).Encode(table)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutput, format)
	}
}

func plain(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return integers(out), nil
}

// integers turns whole floats back into ints so counts do not print as 1.0.
func integers(v any) any {
	switch value := v.(type) {
	case map[string]any:
		for key, item := range value {
			value[key] = integers(item)
		}
		return value
	case []any:
		for i, item := range value {
			value[i] = integers(item)
		}
		return value
	case float64:
		if value == math.Trunc(value) && math.Abs(value) < 1<<53 {
			return int64(value)
		}
		return value
	default:
		return v
	}
}

// TOML has no null.
func dropNulls(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, item := range value {
			if item == nil {
				continue
			}
			out[key] = dropNulls(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(value))
		for _, item := range value {
			if item == nil {
				continue
			}
			out = append(out, dropNulls(item))
		}
		return out
	default:
		return v
	}
}
