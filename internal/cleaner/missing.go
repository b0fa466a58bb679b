package cleaner

import (
	"github.com/montanaflynn/stats"

	"github.com/harvestlab/ecomharvest/internal/domain"
)

// semantic is the category a column belongs to for the purposes of the
// missing-value policy. The policy is derived from the category, not from
// per-column branches, so new columns only need a classification.
type semantic int

const (
	// semanticQuantity marks numeric columns that mean a quantity or
	// measure; missing values become zero rather than a statistical guess.
	semanticQuantity semantic = iota
	// semanticIdentityText marks text columns that identify the product;
	// missing values become the literal "Unknown".
	semanticIdentityText
	// semanticBoolean marks flag columns; missing values become false.
	semanticBoolean
	// semanticOther covers everything else: numeric columns fall back to
	// the column median, text columns to the empty string.
	semanticOther
)

// columnSemantic classifies a column by name. The fixed name lists mirror
// the upstream datasets; extending the column set only requires adding the
// name here.
func columnSemantic(name string) semantic {
	switch name {
	case "price", "rating", "stock":
		return semanticQuantity
	case "title", "category", "brand", "description":
		return semanticIdentityText
	case "in_stock", "onsale", "returnable":
		return semanticBoolean
	default:
		return semanticOther
	}
}

// columnKind is the observed value kind of a column, driving which branch
// of the missing-value policy applies.
type columnKind int

const (
	kindNumeric columnKind = iota
	kindText
	kindBool
)

// inferColumnKind looks at the column's surviving non-missing values. When
// the column is entirely missing, the semantic category decides: quantity
// columns are numeric, flag columns boolean, everything else text.
func inferColumnKind(values []any, name string) (kind columnKind, allInts bool) {
	allInts = true
	sawValue := false
	sawString := false
	sawBool := false
	sawFloat := false
	for _, v := range values {
		if v == nil {
			continue
		}
		sawValue = true
		switch v.(type) {
		case int64, int:
		case float64, float32:
			sawFloat = true
			allInts = false
		case bool:
			sawBool = true
		default:
			sawString = true
		}
	}
	if !sawValue {
		switch columnSemantic(name) {
		case semanticQuantity:
			return kindNumeric, false
		case semanticBoolean:
			return kindBool, false
		default:
			return kindText, false
		}
	}
	switch {
	case sawString:
		return kindText, false
	case sawBool && !sawFloat && allInts:
		return kindBool, false
	default:
		return kindNumeric, allInts
	}
}

// fillMissing applies the missing-value policy in place: every absent or
// nil cell of every registered column receives a value, so downstream
// stages can assume complete rows.
func fillMissing(t *domain.Table) {
	for _, col := range t.Columns() {
		fill := fillValueFor(t, col)
		for i := 0; i < t.Len(); i++ {
			row := t.Row(i)
			if v, ok := row[col]; !ok || v == nil {
				row[col] = fill
			}
		}
	}
}

// fillValueFor computes the policy fill for one column of one table.
func fillValueFor(t *domain.Table, col string) any {
	values := t.Column(col)
	kind, allInts := inferColumnKind(values, col)
	sem := columnSemantic(col)

	switch kind {
	case kindBool:
		return false
	case kindText:
		if sem == semanticIdentityText {
			return "Unknown"
		}
		return ""
	default: // numeric
		if sem == semanticQuantity {
			if allInts {
				return int64(0)
			}
			return float64(0)
		}
		return columnMedian(values, allInts)
	}
}

// columnMedian returns the median of the column's non-missing numeric
// values, preserving the integer flavor of all-integer columns. An entirely
// missing column degrades to zero.
func columnMedian(values []any, allInts bool) any {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat(v); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		if allInts {
			return int64(0)
		}
		return float64(0)
	}
	median, err := stats.Median(nums)
	if err != nil {
		median = 0
	}
	if allInts {
		return int64(median)
	}
	return median
}
