package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenXML(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<products>
  <product>
    <ref>MK-1</ref>
    <name>Tote Bag</name>
    <color>Red</color>
  </product>
  <product>
    <ref>MK-2</ref>
    <name>Mug</name>
    <color>Blue</color>
  </product>
</products>`

	rows, err := FlattenXML(strings.NewReader(feed))
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, "MK-1", rows[0]["ref"])
	assert.Equal(t, "Tote Bag", rows[0]["name"])
	assert.Equal(t, "Red", rows[0]["color"])
	assert.Equal(t, "MK-2", rows[1]["ref"])
}

func TestFlattenXMLRepeatedChildKeepsFirst(t *testing.T) {
	feed := `<products>
  <product>
    <ref>MK-1</ref>
    <image>first.jpg</image>
    <image>second.jpg</image>
  </product>
</products>`

	rows, err := FlattenXML(strings.NewReader(feed))
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "first.jpg", rows[0]["image"])
}

func TestFlattenXMLNestedContent(t *testing.T) {
	// Deeper nesting flattens into the nearest record field.
	feed := `<products>
  <product>
    <ref>MK-1</ref>
    <description>Soft <b>cotton</b> bag</description>
  </product>
</products>`

	rows, err := FlattenXML(strings.NewReader(feed))
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Soft cotton bag", rows[0]["description"])
}

func TestFlattenXMLEmptyFeed(t *testing.T) {
	rows, err := FlattenXML(strings.NewReader(`<products></products>`))
	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFlattenXMLMalformed(t *testing.T) {
	_, err := FlattenXML(strings.NewReader(`<products><product><ref>MK-1`))
	assert.Error(t, err)
}
