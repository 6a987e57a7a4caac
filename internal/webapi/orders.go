package webapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/brewpos/brewpos/internal/domain"
	"github.com/brewpos/brewpos/internal/inventory"
	"github.com/brewpos/brewpos/internal/reporting"
	"github.com/brewpos/brewpos/internal/webserver"
)

func registerOrderRoutes() {
	webserver.ApiPOST("/create-order", createOrder)
	webserver.ApiPOST("/add-customer", addCustomer)
	webserver.ApiPOST("/add-receipt", addReceipt)
	webserver.ApiPOST("/add-sale", addSale)
	webserver.ApiGET("/get-orders", listOrders)
	webserver.ApiPOST("/delete-order", deleteOrder)
	webserver.ApiPOST("/delete-all-orders", deleteAllOrders)
	webserver.ApiPOST("/delete-filtered-orders", deleteFilteredOrders)
}

type createOrderPayload struct {
	CustomerID    int64                 `json:"customer_id"`
	CustomerName  string                `json:"customer_name"`
	AmountPaid    float64               `json:"amount_paid"`
	PaymentStatus string                `json:"payment_status"`
	Lines         []inventory.OrderLine `json:"order_items"`
}

// createOrder commits a sale. Ingredient consumption, the order rows and the
// sales record all land in one transaction; any shortfall aborts the whole
// order.
func createOrder(c echo.Context) error {
	var payload createOrderPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order", nil)
	}
	if len(payload.Lines) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_ORDER", "Order has no items", nil)
	}

	uid := currentUserID(c)
	db := GetDB(c)

	customerID := payload.CustomerID
	if customerID == 0 {
		cust := domain.Customer{
			Name:        strings.TrimSpace(payload.CustomerName),
			TotalAmount: payload.AmountPaid,
		}
		if cust.Name == "" {
			cust.Name = "Walk-in"
		}
		if err := db.Create(&cust).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create customer", err.Error())
		}
		customerID = cust.ID
	}

	orderID, err := newCoordinator(c).PlaceOrder(c.Request().Context(), &inventory.PlaceOrderRequest{
		CustomerID:    customerID,
		UserID:        uid,
		PaymentStatus: payload.PaymentStatus,
		Lines:         payload.Lines,
	})
	if err != nil {
		if payload.CustomerID == 0 {
			db.Delete(&domain.Customer{}, customerID)
		}
		return failInventoryError(c, err, "Failed to place order")
	}

	// The staged cart is spent once the order commits.
	db.Where("user_id = ?", uid).Delete(&domain.CartItem{})

	return ok(c, echo.Map{"order_id": orderID, "customer_id": customerID})
}

type customerPayload struct {
	Name        string  `json:"name"`
	TotalAmount float64 `json:"total_amount"`
}

func addCustomer(c echo.Context) error {
	var payload customerPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse customer", nil)
	}
	cust := domain.Customer{Name: strings.TrimSpace(payload.Name), TotalAmount: payload.TotalAmount}
	if cust.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_NAME", "Customer name is required", nil)
	}
	if err := GetDB(c).Create(&cust).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create customer", err.Error())
	}
	return ok(c, cust)
}

type receiptPayload struct {
	OrderID     int64   `json:"order_id"`
	TotalAmount float64 `json:"total_amount"`
}

func addReceipt(c echo.Context) error {
	var payload receiptPayload
	if err := decodePayload(c, &payload); err != nil || payload.OrderID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse receipt", nil)
	}

	var order domain.Order
	if err := GetDB(c).First(&order, payload.OrderID).Error; err != nil {
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	}
	total := payload.TotalAmount
	if total == 0 {
		total = order.TotalAmount
	}

	rec := domain.Receipt{OrderID: order.ID, GeneratedAt: time.Now(), TotalAmount: total}
	if err := GetDB(c).Create(&rec).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create receipt", err.Error())
	}
	return ok(c, rec)
}

type salePayload struct {
	OrderID    int64   `json:"order_id"`
	TotalSales float64 `json:"total_sales"`
}

// addSale records a sales row for an existing order. create-order already
// writes one; this covers orders imported or repaired by hand.
func addSale(c echo.Context) error {
	var payload salePayload
	if err := decodePayload(c, &payload); err != nil || payload.OrderID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse sale", nil)
	}

	var order domain.Order
	if err := GetDB(c).First(&order, payload.OrderID).Error; err != nil {
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	}

	var exists int64
	GetDB(c).Model(&domain.Sale{}).Where("order_id = ?", order.ID).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "SALE_EXISTS", "Order already has a sales record", nil)
	}

	total := payload.TotalSales
	if total == 0 {
		total = order.TotalAmount
	}
	sale := domain.Sale{OrderID: order.ID, TotalSales: total, SalesDate: time.Now(), UserID: order.UserID}
	if err := GetDB(c).Create(&sale).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create sale", err.Error())
	}
	return ok(c, sale)
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Order{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count orders", err.Error())
	}

	var orders []domain.Order
	err := db.Order("order_date DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, orders, total, page, pageSize)
}

type deleteOrderPayload struct {
	OrderID int64 `json:"order_id"`
}

// deleteOrder archives one order. The live rows are purged after the header
// is copied to archived_sales; stock is not restored.
func deleteOrder(c echo.Context) error {
	var payload deleteOrderPayload
	if err := decodePayload(c, &payload); err != nil || payload.OrderID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	n, err := reporting.NewService(GetDB(c)).
		Archive(c.Request().Context(), []int64{payload.OrderID}, currentUserID(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to archive order", err.Error())
	}
	if n == 0 {
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	}
	return ok(c, echo.Map{"archived": n})
}

func deleteAllOrders(c echo.Context) error {
	if currentUserRole(c) > domain.RoleAdmin {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin role required", nil)
	}

	db := GetDB(c)
	var ids []int64
	if err := db.Model(&domain.Order{}).Pluck("id", &ids).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list orders", err.Error())
	}
	n, err := reporting.NewService(db).Archive(c.Request().Context(), ids, currentUserID(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to archive orders", err.Error())
	}
	zap.L().Info("all orders archived", zap.Int("count", n), zap.Int64("by", currentUserID(c)))
	return ok(c, echo.Map{"archived": n})
}

type filteredOrdersPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func deleteFilteredOrders(c echo.Context) error {
	var payload filteredOrdersPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse date filter", nil)
	}
	start, end, err := reporting.ParseRange(payload.From, payload.To)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date range", err.Error())
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
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to archive orders", err.Error())
	}
	return ok(c, echo.Map{"archived": n})
}
