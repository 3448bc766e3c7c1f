package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ecommerce-core/internal/catalog"
	"ecommerce-core/internal/domain"
	"github.com/shopspring/decimal"
)

// CatalogWriter is the slice of the platform the importer needs. The acting
// user must be an admin; the platform enforces that per row.
type CatalogWriter interface {
	ListCategories() []domain.Category
	CreateCategory(name, description string, actingUser domain.User) (domain.Category, error)
	AddProduct(in catalog.AddProductInput, actingUser domain.User) (domain.Product, error)
}

// CSVImporter reads product rows (name, description, price, stock, category)
// and loads them into the catalog, creating categories on demand.
type CSVImporter struct {
	reader     *csv.Reader
	writer     CatalogWriter
	actingUser domain.User
}

func NewCSVImporter(r io.Reader, writer CatalogWriter, actingUser domain.User) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:     csvr,
		writer:     writer,
		actingUser: actingUser,
	}
}

// Run parses CSV rows and adds the products, returning how many were imported.
func (i *CSVImporter) Run() (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	categories := make(map[string]string)
	for _, c := range i.writer.ListCategories() {
		categories[strings.ToLower(c.Name)] = c.ID
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		name := pick(record, index, "name")
		if name == "" {
			continue
		}
		price, err := decimal.NewFromString(pick(record, index, "price"))
		if err != nil {
			return imported, fmt.Errorf("row %q: parse price: %w", name, err)
		}
		stock, err := strconv.Atoi(pick(record, index, "stock"))
		if err != nil {
			return imported, fmt.Errorf("row %q: parse stock: %w", name, err)
		}

		categoryName := pick(record, index, "category")
		if categoryName == "" {
			categoryName = "Uncategorized"
		}
		categoryID, ok := categories[strings.ToLower(categoryName)]
		if !ok {
			category, err := i.writer.CreateCategory(categoryName, "", i.actingUser)
			if err != nil {
				return imported, fmt.Errorf("create category %q: %w", categoryName, err)
			}
			categoryID = category.ID
			categories[strings.ToLower(categoryName)] = categoryID
		}

		if _, err := i.writer.AddProduct(catalog.AddProductInput{
			Name:        name,
			Description: pick(record, index, "description"),
			Price:       price,
			Stock:       stock,
			CategoryID:  categoryID,
		}, i.actingUser); err != nil {
			return imported, fmt.Errorf("add product %q: %w", name, err)
		}
		imported++
	}

	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return index
}

func pick(record []string, index map[string]int, key string) string {
	i, ok := index[key]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
