package webapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/brewpos/brewpos/internal/domain"
	"github.com/brewpos/brewpos/internal/inventory"
	"github.com/brewpos/brewpos/internal/measure"
	"github.com/brewpos/brewpos/internal/webserver"
)

func registerInventoryRoutes() {
	webserver.ApiGET("/get-items", listInventoryItems)
	webserver.ApiGET("/get-units", listUnits)
	webserver.ApiPOST("/add-item-stock", addItemStock)
	webserver.ApiPOST("/update-item-stock", updateItemStock)
	webserver.ApiPOST("/delete-item-stock", deleteItemStock)
}

func newCoordinator(c echo.Context) *inventory.Coordinator {
	db := GetDB(c)
	return inventory.NewCoordinator(db, inventory.NewStockLedger(db), webserver.Bus())
}

func listInventoryItems(c echo.Context) error {
	db := GetDB(c).Model(&domain.InventoryItem{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		db = db.Where("item_name LIKE ?", "%"+q+"%")
	}
	var items []domain.InventoryItem
	if err := db.Order("item_name").Find(&items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query inventory", err.Error())
	}
	return ok(c, items)
}

// listUnits exposes the unit catalog so the client can populate pickers.
func listUnits(c echo.Context) error {
	return ok(c, measure.Units())
}

type itemStockPayload struct {
	InventoryID   int64   `json:"inventory_id"`
	ItemName      string  `json:"item_name"`
	StockQuantity float64 `json:"stock_quantity"`
	UnitOfMeasure string  `json:"unit_of_measure"`
}

func addItemStock(c echo.Context) error {
	var payload itemStockPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse inventory item", nil)
	}
	payload.ItemName = strings.TrimSpace(payload.ItemName)
	if payload.ItemName == "" {
		return fail(c, http.StatusBadRequest, "INVALID_NAME", "Item name is required", nil)
	}
	if payload.StockQuantity < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_QUANTITY", "Stock quantity cannot be negative", nil)
	}
	if !measure.Known(payload.UnitOfMeasure) {
		return fail(c, http.StatusBadRequest, "UNKNOWN_UNIT", "Unknown unit of measure", payload.UnitOfMeasure)
	}

	var exists int64
	GetDB(c).Model(&domain.InventoryItem{}).Where("item_name = ?", payload.ItemName).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "ITEM_EXISTS", "Inventory item already exists", nil)
	}

	item := domain.InventoryItem{
		ItemName:      payload.ItemName,
		StockQuantity: measure.Round(payload.StockQuantity),
		UnitOfMeasure: payload.UnitOfMeasure,
		LastUpdated:   time.Now(),
	}
	if err := GetDB(c).Create(&item).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create inventory item", err.Error())
	}
	return ok(c, item)
}

// updateItemStock sets an item's absolute stock level. The submitted quantity
// may arrive in any compatible unit; it is converted to the stored unit before
// the ledger write.
func updateItemStock(c echo.Context) error {
	var payload itemStockPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse stock update", nil)
	}
	if payload.InventoryID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid inventory ID", nil)
	}
	if payload.StockQuantity < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_QUANTITY", "Stock quantity cannot be negative", nil)
	}

	item, err := newCoordinator(c).AdjustStock(c.Request().Context(),
		payload.InventoryID, payload.StockQuantity, payload.UnitOfMeasure)
	if err != nil {
		return failInventoryError(c, err, "Failed to update stock")
	}

	// Renaming rides along with the stock write when requested.
	if name := strings.TrimSpace(payload.ItemName); name != "" && name != item.ItemName {
		if err := GetDB(c).Model(item).Update("item_name", name).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to rename item", err.Error())
		}
		item.ItemName = name
	}
	return ok(c, item)
}

type deleteItemPayload struct {
	InventoryID int64 `json:"inventory_id"`
}

// deleteItemStock refuses to remove an ingredient that any recipe still
// references.
func deleteItemStock(c echo.Context) error {
	var payload deleteItemPayload
	if err := decodePayload(c, &payload); err != nil || payload.InventoryID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid inventory ID", nil)
	}

	usage, err := inventory.NewRecipeRepository(GetDB(c)).ProductsUsing(c.Request().Context(), payload.InventoryID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check recipe usage", err.Error())
	}
	if len(usage) > 0 {
		return failWith(c, http.StatusConflict, "ITEM_IN_USE", "Ingredient is referenced by recipes", usage)
	}

	res := GetDB(c).Delete(&domain.InventoryItem{}, payload.InventoryID)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete inventory item", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "ITEM_NOT_FOUND", "Inventory item not found", nil)
	}
	return ok(c, echo.Map{"deleted": payload.InventoryID})
}

// failInventoryError maps the inventory error taxonomy onto HTTP statuses.
func failInventoryError(c echo.Context, err error, msg string) error {
	switch {
	case errors.Is(err, inventory.ErrInsufficientStock):
		var ise *inventory.InsufficientStockError
		var detail interface{}
		if errors.As(err, &ise) {
			detail = ise.Shortfalls
		}
		return failWith(c, http.StatusConflict, "INSUFFICIENT_STOCK", "Not enough stock to complete the operation", detail)
	case errors.Is(err, inventory.ErrValidation):
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, inventory.ErrInvalidRecipe):
		return fail(c, http.StatusUnprocessableEntity, "INVALID_RECIPE", err.Error(), nil)
	case errors.Is(err, inventory.ErrNoRecipe):
		return fail(c, http.StatusNotFound, "NO_RECIPE", "No recipe defined for this product", nil)
	case errors.Is(err, inventory.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Record not found", nil)
	case errors.Is(err, measure.ErrUnknownUnit):
		return fail(c, http.StatusBadRequest, "UNKNOWN_UNIT", err.Error(), nil)
	case errors.Is(err, measure.ErrIncompatibleUnits):
		return fail(c, http.StatusBadRequest, "INCOMPATIBLE_UNITS", err.Error(), nil)
	default:
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", msg, err.Error())
	}
}
