/*
reports.go - Excel export of the commission ledger

PURPOSE:
  Produces an .xlsx download of every commission with the agent and sale
  context joined in, for finance teams that reconcile payouts in
  spreadsheets. Built with excelize and streamed straight to the response.
*/
package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warp/commission-engine/engine"
)

var commissionReportHeaders = []string{
	"Commission ID", "Agent", "Type", "Amount", "Policy Number", "Sale Date", "Payout Date",
}

// CommissionReport writes the full commission ledger as an Excel workbook.
// GET /api/reports/commissions.xlsx
func (h *Handler) CommissionReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	commissions, err := h.Engine.ListCommissions(ctx)
	if err != nil {
		writeEngineError(w, err, "failed to build report")
		return
	}
	sales, err := h.Engine.ListSales(ctx)
	if err != nil {
		writeEngineError(w, err, "failed to build report")
		return
	}
	names, err := h.agentNames(r)
	if err != nil {
		writeEngineError(w, err, "failed to build report")
		return
	}
	saleByID := make(map[engine.SaleID]engine.Sale, len(sales))
	for _, s := range sales {
		saleByID[s.ID] = s
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Commissions"
	f.SetSheetName("Sheet1", sheet)

	for i, header := range commissionReportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, c := range commissions {
		row := i + 2
		sale := saleByID[c.SaleID]
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), string(c.ID))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), names[c.AgentID])
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), string(c.Type))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), c.Amount.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), sale.PolicyNumber)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), sale.SaleDate.Format("2006-01-02"))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), c.PayoutDate.Format("2006-01-02"))
	}

	filename := fmt.Sprintf("commissions_%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	if err := f.Write(w); err != nil {
		// Headers are already sent; all we can do is log.
		log.Printf("api: failed to stream report: %v", err)
	}
}
