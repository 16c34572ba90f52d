package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{"plain decimal", "12.34", 12.34, false},
		{"comma decimal", "12,34", 12.34, false},
		{"euro sign", "€1,95", 1.95, false},
		{"trailing euro with space", "2,50 €", 2.5, false},
		{"dollar sign", "$3.20", 3.2, false},
		{"thousands dot with comma decimal", "1.234,56", 1234.56, false},
		{"integer", "7", 7, false},
		{"zero", "0,00", 0, false},
		{"empty", "", 0, true},
		{"whitespace only", "   ", 0, true},
		{"garbage", "n/a", 0, true},
		{"negative", "-1,50", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 0.0001)
		})
	}
}

func TestMatchBands(t *testing.T) {
	row := map[string]string{
		"reference":       "MK-100",
		"price_1_499":     "2,10",
		"price_500_1999":  "1,85",
		"price_2000_4999": "1,60",
		"price_5000":      "1,40",
	}

	bands := MatchBands(row)
	assert.Len(t, bands, 4)

	assert.InDelta(t, 2.10, bands[1].Price, 0.0001)
	assert.InDelta(t, 1.85, bands[500].Price, 0.0001)
	assert.InDelta(t, 1.60, bands[2000].Price, 0.0001)
	assert.InDelta(t, 1.40, bands[5000].Price, 0.0001)

	assert.Equal(t, 499, *bands[1].Band.QuantityMax)
	assert.Equal(t, 1999, *bands[500].Band.QuantityMax)
	assert.Equal(t, 4999, *bands[2000].Band.QuantityMax)
	assert.Nil(t, bands[5000].Band.QuantityMax)
}

func TestMatchBandsHeaderVariants(t *testing.T) {
	// Hyphens, spaces and mixed case in the feed headers must not matter.
	row := map[string]string{
		"Price 1-499":   "3,00",
		"PRICE 500":     "2,75",
		"price 2000 pc": "2,50",
		"Price 5000+":   "2,20",
	}

	bands := MatchBands(row)
	assert.Len(t, bands, 4)
	assert.InDelta(t, 3.00, bands[1].Price, 0.0001)
	assert.InDelta(t, 2.20, bands[5000].Price, 0.0001)
}

func TestMatchBandsSkipsUnparseable(t *testing.T) {
	row := map[string]string{
		"price_1_499":    "consultar",
		"price_500_1999": "1,85",
		"reference":      "MK-2",
	}

	bands := MatchBands(row)
	assert.Len(t, bands, 1)
	_, hasFirst := bands[1]
	assert.False(t, hasFirst)
	assert.InDelta(t, 1.85, bands[500].Price, 0.0001)
}

func TestMatchBandsIgnoresUnrelatedColumns(t *testing.T) {
	row := map[string]string{
		"reference": "MK-3",
		"name":      "Tote",
		"stock":     "120",
	}
	assert.Empty(t, MatchBands(row))
}
