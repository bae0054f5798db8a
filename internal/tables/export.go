package tables

import (
	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
)

const (
	historySheet      = "History"
	maxExportSessions = 5000
	exportTimeLayout  = "2006-01-02 15:04:05"
)

var historyHeader = []any{
	"Completed At", "Table", "Session", "Order", "Order Time", "Status",
	"Menu", "Quantity", "Unit Price", "Subtotal", "Order Total", "Session Total",
}

// writeHistoryWorkbook renders one row per archived order item.
func writeHistoryWorkbook(rows []models.OrderHistory) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), historySheet); err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(historySheet)
	if err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", historyHeader); err != nil {
		return nil, err
	}

	line := 2
	for _, history := range rows {
		for _, order := range history.ArchivedOrderData.Orders {
			for _, item := range order.Items {
				cell, err := excelize.CoordinatesToCellName(1, line)
				if err != nil {
					return nil, err
				}
				values := []any{
					history.CompletedAt.Format(exportTimeLayout),
					history.TableNumber,
					history.SessionID.String(),
					order.OrderID.String(),
					order.OrderTime.Format(exportTimeLayout),
					order.Status,
					item.MenuName,
					item.Quantity,
					item.UnitPrice,
					item.Subtotal,
					order.TotalAmount,
					history.SessionTotal,
				}
				if err := sw.SetRow(cell, values); err != nil {
					return nil, err
				}
				line++
			}
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
