// Package mapper holds the field mappers that turn source-native
// payloads into canonical dataset records. Each supported source
// format is one variant; adding a format means adding a variant, not
// touching the pipeline.
package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
)

// Mapper is a pure function from one raw payload to one canonical
// dataset record. Mappers never perform I/O.
type Mapper interface {
	Map(remoteID string, payload map[string]interface{}) (*domain.Dataset, error)
}

// ForFormat returns the mapper variant for a source format.
func ForFormat(format domain.Format) (Mapper, error) {
	switch format {
	case domain.FormatPlateau:
		return &plateauMapper{}, nil
	case domain.FormatMLIT:
		return &mlitMapper{}, nil
	case domain.FormatDCAT:
		return &dcatMapper{}, nil
	case domain.FormatNGSI:
		return &ngsiMapper{}, nil
	default:
		return nil, fmt.Errorf("unknown source format %q", format)
	}
}

// firstString returns the first non-empty string among keys.
func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// scalarString renders a scalar JSON value as a string.
func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// stringList collects scalar entries from the first list found among keys.
func stringList(m map[string]interface{}, keys ...string) []string {
	for _, k := range keys {
		items, ok := m[k].([]interface{})
		if !ok {
			continue
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// mapList returns the first list of objects found among keys.
func mapList(m map[string]interface{}, keys ...string) []map[string]interface{} {
	for _, k := range keys {
		items, ok := m[k].([]interface{})
		if !ok {
			continue
		}
		out := make([]map[string]interface{}, 0, len(items))
		for _, item := range items {
			if entry, ok := item.(map[string]interface{}); ok {
				out = append(out, entry)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// sizeOf reads a byte size from any of the numeric keys.
func sizeOf(m map[string]interface{}, keys ...string) int64 {
	for _, k := range keys {
		if n, ok := m[k].(float64); ok && n > 0 {
			return int64(n)
		}
	}
	return 0
}

// formatTag uppercases and caps a declared format string.
func formatTag(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
