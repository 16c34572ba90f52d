package importer

import (
	"fmt"
	"strings"

	"storefront-service/internal/models"
)

// fieldHints maps each logical field to the substrings recognized in supplier
// column headers, most specific field first so "color_image" is claimed
// before "image" and "color".
var fieldHints = []struct {
	field string
	hints []string
}{
	{models.FieldColorImage, []string{"color_image", "colour_image", "imagen_color", "image_couleur"}},
	{models.FieldMainImage, []string{"main_image", "imagen_principal", "image_principale", "primary_image"}},
	{models.FieldImageURL, []string{"image", "imagen", "photo", "picture", "img"}},
	{models.FieldReference, []string{"reference", "ref", "sku", "code", "articulo", "item"}},
	{models.FieldCategoryID, []string{"category_id"}},
	{models.FieldCategoryName, []string{"category_name", "categoria", "categorie", "category", "family", "familia"}},
	{models.FieldDescription, []string{"description", "descripcion", "desc", "long_text"}},
	{models.FieldColor, []string{"color", "colour", "couleur"}},
	{models.FieldWeight, []string{"weight", "peso", "poids"}},
	{models.FieldStock, []string{"stock", "quantity", "qty", "existencias", "inventory"}},
	{models.FieldName, []string{"name", "nombre", "nom", "title", "designation", "product"}},
}

// AutoDetectMapping suggests a column mapping from feed headers using
// substring heuristics. Each header is assigned to at most one logical field
// and each field keeps its first matching header.
func AutoDetectMapping(headers []string) models.ColumnMapping {
	mapping := models.ColumnMapping{}
	claimed := make(map[string]bool)

	for _, fh := range fieldHints {
		if _, done := mapping[fh.field]; done {
			continue
		}
		for _, header := range headers {
			if claimed[header] {
				continue
			}
			normalized := normalizeHeader(header)
			for _, hint := range fh.hints {
				if strings.Contains(normalized, hint) {
					mapping[fh.field] = header
					claimed[header] = true
					break
				}
			}
			if _, done := mapping[fh.field]; done {
				break
			}
		}
	}
	return mapping
}

// normalizeHeader lowers a header and folds separators to underscores so
// "Imagen Principal" and "imagen_principal" match the same hint.
func normalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// ValidateMapping checks that the fields the reconciler cannot work without
// resolve to at least one source column, mapped directly or combined.
func ValidateMapping(mapping models.ColumnMapping, combined models.CombinedFields) error {
	required := []string{models.FieldReference, models.FieldName, models.FieldDescription}
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(mapping[field]) == "" && len(combined[field]) == 0 {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("column mapping is missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ResolveField extracts a logical field's value from a raw row: the mapped
// column's value, followed by any combined columns' values, space-joined with
// empties skipped.
func ResolveField(row models.MappedRow, mapping models.ColumnMapping, combined models.CombinedFields, field string) string {
	var parts []string

	if column := mapping[field]; column != "" {
		if v := strings.TrimSpace(row[column]); v != "" {
			parts = append(parts, v)
		}
	}
	for _, column := range combined[field] {
		if v := strings.TrimSpace(row[column]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
