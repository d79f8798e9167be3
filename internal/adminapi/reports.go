package adminapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/go-gota/gota/dataframe"
	"github.com/labstack/echo/v4"
)

// registerReportRoutes registers reporting and export endpoints
func registerReportRoutes() {
	webserver.ApiGET("/reports/revenue", getRevenueReport)
	webserver.ApiGET("/reports/appointments/export", exportAppointmentsXLSX)
	webserver.ApiGET("/reports/sales/export", exportSalesXLSX)
}

type revenueRow struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// getRevenueReport aggregates paid order revenue by day over the requested
// window (default last 30 days) with a gota dataframe.
func getRevenueReport(c echo.Context) error {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now
	if t, okFrom := parseDateParam(c, "from"); okFrom {
		from = t
	}
	if t, okTo := parseDateParam(c, "to"); okTo {
		to = t
	}

	var orders []domain.Order
	err := GetDB(c).
		Where("status = ?", domain.OrderPaid).
		Where("created_at >= ? AND created_at < ?", from, to).
		Find(&orders).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	if len(orders) == 0 {
		return ok(c, []revenueRow{})
	}

	rows := make([]revenueRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, revenueRow{
			Date:   o.CreatedAt.UTC().Format(common.DateLayout),
			Amount: o.TotalAmount,
		})
	}

	df := dataframe.LoadStructs(rows)
	agg := df.GroupBy("date").
		Aggregation([]dataframe.AggregationType{dataframe.Aggregation_SUM}, []string{"amount"}).
		Arrange(dataframe.Sort("date"))
	if agg.Err != nil {
		return fail(c, http.StatusInternalServerError, "REPORT_FAILED", "Failed to aggregate revenue", agg.Err.Error())
	}

	out := make([]revenueRow, 0, agg.Nrow())
	for _, rec := range agg.Maps() {
		row := revenueRow{}
		if d, okD := rec["date"].(string); okD {
			row.Date = d
		}
		switch v := rec["amount_SUM"].(type) {
		case float64:
			row.Amount = v
		case int:
			row.Amount = float64(v)
		}
		out = append(out, row)
	}

	return ok(c, out)
}

// exportAppointmentsXLSX streams the appointment calendar as a spreadsheet.
func exportAppointmentsXLSX(c echo.Context) error {
	db := GetDB(c).Model(&domain.Appointment{}).Order("start_at ASC")
	if from, okFrom := parseDateParam(c, "from"); okFrom {
		db = db.Where("start_at >= ?", from)
	}
	if to, okTo := parseDateParam(c, "to"); okTo {
		db = db.Where("start_at < ?", to)
	}

	var appts []domain.Appointment
	if err := db.Find(&appts).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query appointments", err.Error())
	}

	xlsx := excelize.NewFile()
	sheet := "Appointments"
	xlsx.NewSheet(sheet)
	xlsx.DeleteSheet("Sheet1")

	headers := []string{"ID", "Client ID", "Service", "Date", "Time", "Duration (min)", "Price", "Status"}
	for i, h := range headers {
		xlsx.SetCellValue(sheet, fmt.Sprintf("%s1", string(rune('A'+i))), h)
	}

	for i, a := range appts {
		row := i + 2
		xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%d", a.ID))
		xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%d", a.UserID))
		xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", row), a.ServiceName)
		xlsx.SetCellValue(sheet, fmt.Sprintf("D%d", row), a.StartAt.UTC().Format(common.DateLayout))
		xlsx.SetCellValue(sheet, fmt.Sprintf("E%d", row), a.StartAt.UTC().Format(common.TimeLayout))
		xlsx.SetCellValue(sheet, fmt.Sprintf("F%d", row), a.DurationMin)
		xlsx.SetCellValue(sheet, fmt.Sprintf("G%d", row), a.Price)
		xlsx.SetCellValue(sheet, fmt.Sprintf("H%d", row), a.Status)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="appointments.xlsx"`)
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	_, err := xlsx.WriteTo(c.Response())
	return err
}

// exportSalesXLSX streams settled order lines as a spreadsheet.
func exportSalesXLSX(c echo.Context) error {
	db := GetDB(c).Model(&domain.OrderItem{}).Order("created_at ASC")
	if from, okFrom := parseDateParam(c, "from"); okFrom {
		db = db.Where("created_at >= ?", from)
	}
	if to, okTo := parseDateParam(c, "to"); okTo {
		db = db.Where("created_at < ?", to)
	}

	var items []domain.OrderItem
	if err := db.Find(&items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order items", err.Error())
	}

	xlsx := excelize.NewFile()
	sheet := "Sales"
	xlsx.NewSheet(sheet)
	xlsx.DeleteSheet("Sheet1")

	headers := []string{"Order ID", "Kind", "Name", "Unit Price", "Quantity", "Amount", "Sold At"}
	for i, h := range headers {
		xlsx.SetCellValue(sheet, fmt.Sprintf("%s1", string(rune('A'+i))), h)
	}

	for i, item := range items {
		row := i + 2
		xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%d", item.OrderID))
		xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Kind)
		xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Name)
		xlsx.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Price)
		xlsx.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Quantity)
		xlsx.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.Amount)
		xlsx.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.CreatedAt.UTC().Format(time.RFC3339))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="sales.xlsx"`)
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	_, err := xlsx.WriteTo(c.Response())
	return err
}
