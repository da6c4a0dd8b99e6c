package service

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5/pgtype"
)

var plainNumber = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// CleanPrice parses a Brazilian formatted price such as "R$ 1.234,56".
// Anything that is not a string, or that is not numeric once the currency
// symbol and separators are removed, yields nil.
func CleanPrice(value any) *float64 {
	s, ok := value.(string)
	if !ok {
		return nil
	}

	s = strings.ReplaceAll(s, "R$", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if !plainNumber.MatchString(s) {
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// toFloat converts a numeric column value as decoded by pgx or encoding/json.
// Strings go through CleanPrice.
func toFloat(value any) *float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case pgtype.Numeric:
		if !v.Valid {
			return nil
		}
		f8, err := v.Float64Value()
		if err != nil || !f8.Valid {
			return nil
		}
		f = f8.Float64
	case string:
		return CleanPrice(v)
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func toStringPtr(value any) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return &v
	default:
		s := strings.TrimSpace(jsonString(v))
		return &s
	}
}

func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), `"`)
}
