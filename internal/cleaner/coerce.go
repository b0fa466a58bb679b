package cleaner

import (
	"math"
	"strconv"
	"strings"

	"github.com/harvestlab/ecomharvest/internal/domain"
)

// Columns whose values are coerced to a designated type during
// normalization. Coercion is best effort: a value that cannot be parsed
// becomes missing and is handled by the missing-value policy, never an
// error.
var (
	floatColumns = map[string]struct{}{"price": {}, "rating": {}}
	intColumns   = map[string]struct{}{"stock": {}, "id": {}}
	boolColumns  = map[string]struct{}{"in_stock": {}, "onsale": {}, "returnable": {}}
)

// coerceColumns applies the designated coercions in place.
func coerceColumns(t *domain.Table) {
	for _, col := range t.Columns() {
		_, isFloat := floatColumns[col]
		_, isInt := intColumns[col]
		_, isBool := boolColumns[col]
		if !isFloat && !isInt && !isBool {
			continue
		}
		for i := 0; i < t.Len(); i++ {
			row := t.Row(i)
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			switch {
			case isFloat:
				if f, ok := toFloat(v); ok {
					row[col] = f
				} else {
					row[col] = nil
				}
			case isInt:
				if n, ok := toInt(v); ok {
					row[col] = n
				} else {
					row[col] = nil
				}
			case isBool:
				if b, ok := toBool(v); ok {
					row[col] = b
				} else {
					row[col] = nil
				}
			}
		}
	}
}

// toFloat parses a numeric value out of the loosely typed cell. NaN and
// infinities count as unparseable so they degrade to missing.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toInt parses an integer, accepting float representations only when they
// convert losslessly.
func toInt(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) || math.Mod(val, 1) != 0 {
			return 0, false
		}
		return int64(val), true
	case string:
		s := strings.TrimSpace(val)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && math.Mod(f, 1) == 0 {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// toBool parses a strict boolean out of the common textual and numeric
// encodings.
func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		switch s {
		case "1", "yes", "y":
			return true, true
		case "0", "no", "n":
			return false, true
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, false
		}
		return b, true
	case float64:
		return val != 0, true
	case int:
		return val != 0, true
	case int64:
		return val != 0, true
	default:
		return false, false
	}
}
