package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-service/internal/models"
)

func TestAutoDetectMapping(t *testing.T) {
	headers := []string{"Referencia", "Nombre", "Descripcion", "Color", "Imagen Principal", "Imagen Color", "Stock", "Peso"}

	mapping := AutoDetectMapping(headers)

	assert.Equal(t, "Referencia", mapping[models.FieldReference])
	assert.Equal(t, "Nombre", mapping[models.FieldName])
	assert.Equal(t, "Descripcion", mapping[models.FieldDescription])
	assert.Equal(t, "Color", mapping[models.FieldColor])
	assert.Equal(t, "Imagen Principal", mapping[models.FieldMainImage])
	assert.Equal(t, "Imagen Color", mapping[models.FieldColorImage])
	assert.Equal(t, "Stock", mapping[models.FieldStock])
	assert.Equal(t, "Peso", mapping[models.FieldWeight])
}

func TestAutoDetectMappingClaimsEachHeaderOnce(t *testing.T) {
	// "color_image" must win the color-image slot and leave "color" for the
	// color field instead of being claimed twice.
	mapping := AutoDetectMapping([]string{"color_image", "color", "sku", "name"})

	assert.Equal(t, "color_image", mapping[models.FieldColorImage])
	assert.Equal(t, "color", mapping[models.FieldColor])
	assert.Equal(t, "sku", mapping[models.FieldReference])
	assert.Equal(t, "name", mapping[models.FieldName])
}

func TestAutoDetectMappingUnknownHeaders(t *testing.T) {
	mapping := AutoDetectMapping([]string{"foo", "bar", "baz"})
	assert.Empty(t, mapping)
}

func TestAutoDetectMappingCategoryIDNotTakenAsName(t *testing.T) {
	mapping := AutoDetectMapping([]string{"category_id", "name", "sku"})

	assert.Equal(t, "category_id", mapping[models.FieldCategoryID])
	assert.NotContains(t, mapping, models.FieldCategoryName)

	// With both columns present each lands on its own field.
	mapping = AutoDetectMapping([]string{"category_id", "category_name", "name", "sku"})
	assert.Equal(t, "category_id", mapping[models.FieldCategoryID])
	assert.Equal(t, "category_name", mapping[models.FieldCategoryName])
}

func TestValidateMapping(t *testing.T) {
	valid := models.ColumnMapping{
		models.FieldReference:   "ref",
		models.FieldName:        "name",
		models.FieldDescription: "desc",
	}
	assert.NoError(t, ValidateMapping(valid, nil))

	missing := models.ColumnMapping{
		models.FieldReference: "ref",
	}
	err := ValidateMapping(missing, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "description")
}

func TestValidateMappingAcceptsCombinedOnlyFields(t *testing.T) {
	// A required field supplied purely through combined columns is enough.
	mapping := models.ColumnMapping{
		models.FieldReference: "ref",
		models.FieldName:      "name",
	}
	combined := models.CombinedFields{
		models.FieldDescription: {"material", "gsm"},
	}
	assert.NoError(t, ValidateMapping(mapping, combined))

	err := ValidateMapping(mapping, models.CombinedFields{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "description")
}

func TestResolveField(t *testing.T) {
	row := models.MappedRow{
		"ref":    "MK-1",
		"name":   "Tote Bag",
		"mat":    "Cotton",
		"gsm":    "140g",
		"empty":  "",
		"spaced": "  trimmed  ",
	}
	mapping := models.ColumnMapping{
		models.FieldReference: "ref",
		models.FieldName:      "name",
	}
	combined := models.CombinedFields{
		models.FieldName: {"mat", "empty", "gsm"},
	}

	assert.Equal(t, "MK-1", ResolveField(row, mapping, combined, models.FieldReference))
	// Combined columns are space-joined after the mapped value, empties skipped.
	assert.Equal(t, "Tote Bag Cotton 140g", ResolveField(row, mapping, combined, models.FieldName))
	assert.Equal(t, "", ResolveField(row, mapping, combined, models.FieldColor))

	spacedMapping := models.ColumnMapping{models.FieldName: "spaced"}
	assert.Equal(t, "trimmed", ResolveField(row, spacedMapping, nil, models.FieldName))
}
