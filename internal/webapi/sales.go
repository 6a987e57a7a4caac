package webapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brewpos/brewpos/internal/domain"
	"github.com/brewpos/brewpos/internal/reporting"
	"github.com/brewpos/brewpos/internal/webserver"
)

func registerSalesRoutes() {
	webserver.ApiGET("/get-sales-data", getSalesData)
	webserver.ApiGET("/export-sales-csv", exportSalesCSV)
	webserver.ApiGET("/export-sales-excel", exportSalesExcel)
	webserver.ApiGET("/get-low-stock", getLowStock)
	webserver.ApiPOST("/archive-sales", archiveSales)
	webserver.ApiPOST("/archive-filtered-sales", archiveFilteredSales)
	webserver.ApiGET("/get-archived-sales", getArchivedSales)
}

func salesRange(c echo.Context) (time.Time, time.Time, error) {
	return reporting.ParseRange(c.QueryParam("from"), c.QueryParam("to"))
}

func getSalesData(c echo.Context) error {
	start, end, err := salesRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date range", err.Error())
	}
	report, err := reporting.NewService(GetDB(c)).SalesData(c.Request().Context(), start, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to build sales report", err.Error())
	}
	return ok(c, report)
}

// Exports return raw attachments rather than the JSON envelope.
func exportSalesCSV(c echo.Context) error {
	start, end, err := salesRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date range", err.Error())
	}
	out, err := reporting.NewService(GetDB(c)).ExportCSV(c.Request().Context(), start, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export CSV", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="sales-%s.csv"`, time.Now().Format("20060102")))
	return c.Blob(http.StatusOK, "text/csv", out)
}

func exportSalesExcel(c echo.Context) error {
	start, end, err := salesRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date range", err.Error())
	}
	out, err := reporting.NewService(GetDB(c)).ExportExcel(c.Request().Context(), start, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export workbook", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="sales-%s.xlsx"`, time.Now().Format("20060102")))
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
}

func getLowStock(c echo.Context) error {
	threshold := 10.0
	if v := c.QueryParam("threshold"); v != "" {
		if _, err := fmt.Sscanf(v, "%f", &threshold); err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_THRESHOLD", "Unable to parse threshold", nil)
		}
	}
	items, err := reporting.NewService(GetDB(c)).LowStock(c.Request().Context(), threshold)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query low stock", err.Error())
	}
	return ok(c, items)
}

type archivePayload struct {
	OrderIDs []int64 `json:"order_ids"`
}

func archiveSales(c echo.Context) error {
	var payload archivePayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order list", nil)
	}
	if len(payload.OrderIDs) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_ARCHIVE", "No order IDs given", nil)
	}
	n, err := reporting.NewService(GetDB(c)).
		Archive(c.Request().Context(), payload.OrderIDs, currentUserID(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to archive sales", err.Error())
	}
	return ok(c, echo.Map{"archived": n})
}

func archiveFilteredSales(c echo.Context) error {
	var payload filteredOrdersPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse date filter", nil)
	}
	start, end, err := reporting.ParseRange(payload.From, payload.To)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date range", err.Error())
	}
	if start.IsZero() && end.IsZero() {
		return fail(c, http.StatusBadRequest, "EMPTY_FILTER", "A date bound is required", nil)
	}

	db := GetDB(c)
	q := db.Model(&domain.Order{})
	if !start.IsZero() {
		q = q.Where("order_date >= ?", start)
	}
	if !end.IsZero() {
		q = q.Where("order_date < ?", end)
	}
	var ids []int64
	if err := q.Pluck("id", &ids).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list orders", err.Error())
	}

	n, err := reporting.NewService(db).Archive(c.Request().Context(), ids, currentUserID(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to archive sales", err.Error())
	}
	return ok(c, echo.Map{"archived": n})
}

func getArchivedSales(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.ArchivedSale{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count archive", err.Error())
	}

	var rows []domain.ArchivedSale
	err := db.Order("archived_date DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query archive", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}
