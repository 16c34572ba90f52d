package importer

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePrice parses a supplier price cell. Currency symbols and whitespace are
// stripped first. When a comma is present it is taken as the decimal separator
// and any dots as thousands separators ("1.234,56" -> 1234.56); otherwise the
// value is parsed as a plain float ("12.34" -> 12.34).
func ParsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer("€", "", "$", "", "£", "", " ", "", " ", "").Replace(s)
	if s == "" {
		return 0, fmt.Errorf("empty price value")
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %q", raw)
	}
	return price, nil
}

// PriceBand is one fixed quantity band of the supplier price list.
type PriceBand struct {
	QuantityMin int
	QuantityMax *int // nil for the open-ended top band
	key         string
}

func intPtr(v int) *int { return &v }

// PriceBands returns the four fixed quantity bands. The order is most
// specific key first: "5000" must be tested before "500" and "2000" before
// "499" so a column like "price_2000_4999" lands in the right band.
func PriceBands() []PriceBand {
	return []PriceBand{
		{QuantityMin: 5000, QuantityMax: nil, key: "5000"},
		{QuantityMin: 2000, QuantityMax: intPtr(4999), key: "2000"},
		{QuantityMin: 500, QuantityMax: intPtr(1999), key: "500"},
		{QuantityMin: 1, QuantityMax: intPtr(499), key: "499"},
	}
}

// normalizePriceKey lowers a price-row column name and strips spaces so band
// keys match regardless of the feed's header formatting.
func normalizePriceKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer(" ", "", " ", "").Replace(s)
}

// BandPrice is a parsed price attached to its quantity band.
type BandPrice struct {
	Band  PriceBand
	Price float64
}

// MatchBands extracts the per-band prices from one price row. Each column is
// assigned to at most one band; columns that match no band or fail to parse
// are skipped.
func MatchBands(row map[string]string) map[int]BandPrice {
	out := make(map[int]BandPrice)
	bands := PriceBands()
	for key, raw := range row {
		norm := normalizePriceKey(key)
		for _, band := range bands {
			if !strings.Contains(norm, band.key) {
				continue
			}
			if _, taken := out[band.QuantityMin]; taken {
				break
			}
			price, err := ParsePrice(raw)
			if err != nil {
				break
			}
			out[band.QuantityMin] = BandPrice{Band: band, Price: price}
			break
		}
	}
	return out
}
