package cleaner

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/harvestlab/ecomharvest/internal/domain"
)

// Price bucket edges. Buckets are upper-bound inclusive with an open-ended
// final bin, so a price of exactly 20.00 is Budget and anything above 100
// is Luxury.
const (
	priceBudgetMax   = 20
	priceMidRangeMax = 50
	pricePremiumMax  = 100
)

// Enrich derives analytic columns from the merged table. Derivations are
// additive only: every input column and every row survives, each derived
// column appears only when its input columns exist, and every derivation is
// a pure function of the row it is computed from.
func (c *Cleaner) Enrich(t *domain.Table) *domain.Table {
	c.logf("adding calculated fields to %d rows", t.Len())
	out := t.Clone()

	if out.HasColumn("price") {
		out.AddColumn("price_category")
		for i := 0; i < out.Len(); i++ {
			row := out.Row(i)
			price, _ := toFloat(row["price"])
			row["price_category"] = priceCategory(price)
		}
	}

	if out.HasColumn("rating") {
		out.AddColumn("rating_category")
		for i := 0; i < out.Len(); i++ {
			row := out.Row(i)
			rating, _ := toFloat(row["rating"])
			row["rating_category"] = ratingCategory(rating)
		}
	}

	if out.HasColumn("title") {
		out.AddColumn("title_length")
		out.AddColumn("title_word_count")
		for i := 0; i < out.Len(); i++ {
			row := out.Row(i)
			title := asString(row["title"])
			row["title_length"] = int64(utf8.RuneCountInString(title))
			row["title_word_count"] = int64(len(strings.Fields(title)))
		}
	}

	if out.HasColumn("description") {
		out.AddColumn("description_length")
		out.AddColumn("description_word_count")
		out.AddColumn("has_description")
		for i := 0; i < out.Len(); i++ {
			row := out.Row(i)
			desc := asString(row["description"])
			row["description_length"] = int64(utf8.RuneCountInString(desc))
			row["description_word_count"] = int64(len(strings.Fields(desc)))
			row["has_description"] = len(desc) > 0
		}
	}

	if out.HasColumn("price") && out.HasColumn("regularprice") {
		out.AddColumn("discount_percentage")
		for i := 0; i < out.Len(); i++ {
			row := out.Row(i)
			price, _ := toFloat(row["price"])
			regular, regularOK := toFloat(row["regularprice"])
			if !regularOK || regular == 0 {
				row["discount_percentage"] = float64(0)
				continue
			}
			row["discount_percentage"] = math.Round((regular-price)/regular*100*100) / 100
		}
	}

	c.logf("calculated fields added: %d columns total", len(out.Columns()))
	return out
}

func priceCategory(price float64) string {
	switch {
	case price <= priceBudgetMax:
		return "Budget"
	case price <= priceMidRangeMax:
		return "Mid-Range"
	case price <= pricePremiumMax:
		return "Premium"
	default:
		return "Luxury"
	}
}

func ratingCategory(rating float64) string {
	switch {
	case rating <= 2:
		return "Poor"
	case rating <= 3:
		return "Fair"
	case rating <= 4:
		return "Good"
	default:
		return "Excellent"
	}
}
