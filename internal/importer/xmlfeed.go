package importer

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
)

// XMLFeedFetcher downloads a supplier XML feed and flattens it into rows for
// the mapping UI.
type XMLFeedFetcher struct {
	client *resty.Client
	logger *logrus.Logger
}

func NewXMLFeedFetcher(timeout time.Duration, logger *logrus.Logger) *XMLFeedFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36").
		SetHeader("Accept", "application/xml,text/xml,*/*")

	return &XMLFeedFetcher{
		client: client,
		logger: logger,
	}
}

// Fetch downloads the feed at url and returns its flattened rows.
func (f *XMLFeedFetcher) Fetch(ctx context.Context, url string) ([]models.MappedRow, error) {
	f.logger.WithField("url", url).Info("Fetching XML feed")

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch XML feed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("XML feed returned status %d", resp.StatusCode())
	}

	rows, err := FlattenXML(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, err
	}

	f.logger.WithField("rows", len(rows)).Info("XML feed flattened")
	return rows, nil
}

// FlattenXML turns an XML feed into flat rows. Each child of the document
// root becomes one row; the row's keys are the names of that child's own
// child elements with their text content as values. Repeated child names
// within a record keep the first value. Deeper nesting is flattened into the
// nearest depth-2 ancestor's text.
func FlattenXML(r io.Reader) ([]models.MappedRow, error) {
	decoder := xml.NewDecoder(r)

	var rows []models.MappedRow
	var current models.MappedRow
	var fieldName string
	var fieldText strings.Builder
	depth := 0

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML feed: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 2:
				current = models.MappedRow{}
			case 3:
				fieldName = t.Name.Local
				fieldText.Reset()
			}
		case xml.EndElement:
			switch depth {
			case 2:
				if current != nil && len(current) > 0 {
					rows = append(rows, current)
				}
				current = nil
			case 3:
				if current != nil && fieldName != "" {
					if _, exists := current[fieldName]; !exists {
						current[fieldName] = strings.TrimSpace(fieldText.String())
					}
				}
				fieldName = ""
			}
			depth--
		case xml.CharData:
			if depth >= 3 {
				fieldText.Write(t)
			}
		}
	}

	if rows == nil {
		rows = []models.MappedRow{}
	}
	return rows, nil
}
