package repository

import (
	"time"

	"github.com/quickbites/order-service/internal/domain"
)

// Field decoding helpers. The memory store hands back the Go values that
// were written; DynamoDB round-trips numbers as float64 and times as
// RFC3339 strings, so every accessor tolerates both.

func fieldString(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func fieldInt64(fields map[string]any, key string) int64 {
	switch n := fields[key].(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func fieldInt(fields map[string]any, key string) int {
	return int(fieldInt64(fields, key))
}

func fieldBool(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

func fieldTime(fields map[string]any, key string) time.Time {
	switch t := fields[key].(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func fieldTimePtr(fields map[string]any, key string) *time.Time {
	t := fieldTime(fields, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

func fieldStringSlice(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, el := range v {
			if s, ok := el.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func fieldMaps(fields map[string]any, key string) []map[string]any {
	switch v := fields[key].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, el := range v {
			if m, ok := el.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func encodeSelections(selections []domain.Selection) []map[string]any {
	out := make([]map[string]any, 0, len(selections))
	for _, sel := range selections {
		out = append(out, map[string]any{
			"group_id":    sel.GroupID,
			"option_id":   sel.OptionID,
			"option_name": sel.OptionName,
			"surcharge":   sel.Surcharge,
		})
	}
	return out
}

func decodeSelections(fields map[string]any, key string) []domain.Selection {
	maps := fieldMaps(fields, key)
	out := make([]domain.Selection, 0, len(maps))
	for _, m := range maps {
		out = append(out, domain.Selection{
			GroupID:    fieldString(m, "group_id"),
			OptionID:   fieldString(m, "option_id"),
			OptionName: fieldString(m, "option_name"),
			Surcharge:  fieldInt64(m, "surcharge"),
		})
	}
	return out
}
