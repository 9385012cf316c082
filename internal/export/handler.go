// Package export renders the curated extension set as a spreadsheet for the
// back-office.
package export

import (
	"fmt"
	"strings"
	"time"

	"estate-backend/internal/extensions"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Extensions"

// GET /api/admin/extensions/export
func ExtensionsXLSXHandler(store *extensions.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		exts, err := store.ListAll()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "extension store failure")
		}

		f := excelize.NewFile()
		defer f.Close()

		f.SetSheetName(f.GetSheetName(0), sheetName)

		headers := []string{
			"Property ID", "Priority", "Hidden", "Popular",
			"Closed Deal Date", "Closed Deal Type", "Closed Deal Price",
			"Promotions", "Tags", "Internal Notes",
		}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheetName, cell, h)
		}

		for rowIdx, ext := range exts {
			closedDate := ""
			if ext.ClosedDealDate != nil {
				closedDate = ext.ClosedDealDate.Format("2006-01-02")
			}
			closedType := ""
			if ext.ClosedDealType != nil {
				closedType = string(*ext.ClosedDealType)
			}
			closedPrice := ""
			if ext.ClosedDealPrice != nil {
				closedPrice = fmt.Sprintf("%.2f", *ext.ClosedDealPrice)
			}

			tagNames := make([]string, 0, len(ext.Tags))
			for _, t := range ext.Tags {
				tagNames = append(tagNames, t.Name)
			}

			values := []interface{}{
				ext.ExternalPropertyID,
				ext.Priority,
				ext.IsHidden,
				ext.IsFeaturedPopular,
				closedDate,
				closedType,
				closedPrice,
				len(ext.Promotions),
				strings.Join(tagNames, ", "),
				ext.InternalNotes,
			}
			for colIdx, v := range values {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				f.SetCellValue(sheetName, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not build spreadsheet")
		}

		filename := fmt.Sprintf("extensions-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}
