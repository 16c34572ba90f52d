package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "Bags", "bags"},
		{"spaces become hyphens", "Office Supplies", "office-supplies"},
		{"accents stripped", "Café & Chá", "cafe-cha"},
		{"spanish accents", "Bolígrafos y Papelería", "boligrafos-y-papeleria"},
		{"punctuation collapsed", "T-Shirts / Polos!!", "t-shirts-polos"},
		{"leading and trailing junk", "  --Drinkware--  ", "drinkware"},
		{"digits kept", "USB 3.0 Drives", "usb-3-0-drives"},
		{"uppercase lowered", "TEXTIL", "textil"},
		{"empty input", "", ""},
		{"only symbols", "&&&", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugifyIsStable(t *testing.T) {
	// Same name must always produce the same slug so category resolution
	// stays deterministic across imports.
	first := Slugify("Gorras & Sombreros")
	second := Slugify("Gorras & Sombreros")
	assert.Equal(t, first, second)
	assert.Equal(t, "gorras-sombreros", first)
}
