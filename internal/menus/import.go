package menus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
)

const maxImportRows = 500

// ImportRow is one spreadsheet line: category, name, price, description,
// image url.
type ImportRow struct {
	Line        int
	Category    string
	Name        string
	Price       string
	Description string
	ImageURL    string
}

// ParseImportSheet reads the first sheet of an .xlsx upload. The first row
// is a header and is skipped.
func ParseImportSheet(r io.Reader) ([]ImportRow, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is not a valid xlsx workbook")
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read sheet")
	}
	if len(rows) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sheet must contain a header and at least one row")
	}
	if len(rows)-1 > maxImportRows {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d rows per import", maxImportRows))
	}

	out := make([]ImportRow, 0, len(rows)-1)
	for i, cols := range rows[1:] {
		row := ImportRow{Line: i + 2}
		row.Category = cell(cols, 0)
		row.Name = cell(cols, 1)
		row.Price = cell(cols, 2)
		row.Description = cell(cols, 3)
		row.ImageURL = cell(cols, 4)
		out = append(out, row)
	}
	return out, nil
}

func cell(cols []string, i int) string {
	if i >= len(cols) {
		return ""
	}
	return strings.TrimSpace(cols[i])
}

// ImportMenus creates menus from parsed rows in a single transaction.
// Unknown categories are created; invalid rows are reported and skipped.
func (s *service) ImportMenus(ctx context.Context, storeID uuid.UUID, rows []ImportRow) (*ImportResult, error) {
	result := &ImportResult{Skipped: []ImportRowError{}}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		categories := map[string]uuid.UUID{}

		for _, row := range rows {
			if row.Category == "" && row.Name == "" && row.Price == "" {
				continue
			}
			if row.Category == "" || row.Name == "" {
				result.Skipped = append(result.Skipped, ImportRowError{Row: row.Line, Reason: "category and name are required"})
				continue
			}
			price, err := strconv.ParseInt(strings.ReplaceAll(row.Price, ",", ""), 10, 64)
			if err != nil || price <= 0 {
				result.Skipped = append(result.Skipped, ImportRowError{Row: row.Line, Reason: "price must be a positive integer"})
				continue
			}

			categoryID, ok := categories[row.Category]
			if !ok {
				category, err := repo.FindCategoryByName(ctx, storeID, row.Category)
				switch {
				case err == nil:
					categoryID = category.ID
				case errors.Is(err, gorm.ErrRecordNotFound):
					created := &models.Category{ID: uuid.New(), StoreID: storeID, Name: row.Category}
					if err := repo.CreateCategory(ctx, created); err != nil {
						return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
					}
					categoryID = created.ID
					result.CategoriesCreated++
				default:
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
				}
				categories[row.Category] = categoryID
			}

			menu := &models.Menu{
				ID:           uuid.New(),
				StoreID:      storeID,
				CategoryID:   categoryID,
				Name:         row.Name,
				Price:        price,
				DisplayOrder: row.Line,
				IsAvailable:  true,
			}
			if row.Description != "" {
				desc := row.Description
				menu.Description = &desc
			}
			if row.ImageURL != "" {
				url := row.ImageURL
				menu.ImageURL = &url
			}
			if err := repo.CreateMenu(ctx, menu); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu")
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Created > 0 || result.CategoriesCreated > 0 {
		s.invalidate(ctx, storeID)
	}
	return result, nil
}
