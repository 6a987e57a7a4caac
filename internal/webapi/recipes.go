package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/brewpos/brewpos/internal/domain"
	"github.com/brewpos/brewpos/internal/inventory"
	"github.com/brewpos/brewpos/internal/measure"
	"github.com/brewpos/brewpos/internal/webserver"
)

func registerRecipeRoutes() {
	webserver.ApiGET("/get-product-ingredients/:id", getProductIngredients)
	webserver.ApiPOST("/add-product-ingredient", addProductIngredient)
	webserver.ApiPOST("/update-product-ingredient", updateProductIngredient)
	webserver.ApiPOST("/delete-product-ingredient", deleteProductIngredient)
	webserver.ApiGET("/get-products-using-ingredient/:id", getProductsUsingIngredient)
}

func getProductIngredients(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	lines, err := inventory.NewRecipeRepository(GetDB(c)).IngredientsFor(c.Request().Context(), id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query recipe", err.Error())
	}
	return ok(c, lines)
}

type recipeLinePayload struct {
	ID             int64   `json:"product_ingredient_id"`
	ProductID      int64   `json:"product_id"`
	InventoryID    int64   `json:"inventory_id"`
	QuantityNeeded float64 `json:"quantity_needed"`
	UnitOfMeasure  string  `json:"unit_of_measure"`
}

func validateRecipeLine(c echo.Context, payload *recipeLinePayload) error {
	if payload.QuantityNeeded <= 0 {
		return fail(c, http.StatusBadRequest, "INVALID_QUANTITY", "Quantity needed must be positive", nil)
	}
	if !measure.Known(payload.UnitOfMeasure) {
		return fail(c, http.StatusBadRequest, "UNKNOWN_UNIT", "Unknown unit of measure", payload.UnitOfMeasure)
	}
	return nil
}

func addProductIngredient(c echo.Context) error {
	var payload recipeLinePayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse recipe line", nil)
	}
	if payload.ProductID == 0 || payload.InventoryID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Product and inventory IDs are required", nil)
	}
	if resp := validateRecipeLine(c, &payload); resp != nil {
		return resp
	}

	db := GetDB(c)

	var item domain.InventoryItem
	if err := db.First(&item, payload.InventoryID).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ITEM_NOT_FOUND", "Inventory item not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query inventory item", err.Error())
	}

	// The recipe unit must be convertible into the item's stored unit, or the
	// availability math could never run.
	if _, err := measure.Convert(1, payload.UnitOfMeasure, item.UnitOfMeasure); err != nil {
		return fail(c, http.StatusBadRequest, "INCOMPATIBLE_UNITS",
			"Recipe unit is not compatible with the item's stored unit", err.Error())
	}

	var exists int64
	db.Model(&domain.ProductIngredient{}).
		Where("product_id = ? AND inventory_id = ?", payload.ProductID, payload.InventoryID).
		Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "RECIPE_LINE_EXISTS", "Ingredient already in recipe", nil)
	}

	line := domain.ProductIngredient{
		ProductID:      payload.ProductID,
		InventoryID:    payload.InventoryID,
		IngredientName: item.ItemName,
		QuantityNeeded: measure.Round(payload.QuantityNeeded),
		UnitOfMeasure:  payload.UnitOfMeasure,
	}
	if err := db.Create(&line).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create recipe line", err.Error())
	}
	return ok(c, line)
}

func updateProductIngredient(c echo.Context) error {
	var payload recipeLinePayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse recipe line", nil)
	}
	if payload.ID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid recipe line ID", nil)
	}
	if resp := validateRecipeLine(c, &payload); resp != nil {
		return resp
	}

	var line domain.ProductIngredient
	if err := GetDB(c).First(&line, payload.ID).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "RECIPE_LINE_NOT_FOUND", "Recipe line not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query recipe line", err.Error())
	}

	var item domain.InventoryItem
	if err := GetDB(c).First(&item, line.InventoryID).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query inventory item", err.Error())
	}
	if _, err := measure.Convert(1, payload.UnitOfMeasure, item.UnitOfMeasure); err != nil {
		return fail(c, http.StatusBadRequest, "INCOMPATIBLE_UNITS",
			"Recipe unit is not compatible with the item's stored unit", err.Error())
	}

	line.QuantityNeeded = measure.Round(payload.QuantityNeeded)
	line.UnitOfMeasure = payload.UnitOfMeasure
	if err := GetDB(c).Save(&line).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update recipe line", err.Error())
	}
	return ok(c, line)
}

type deleteRecipeLinePayload struct {
	ID int64 `json:"product_ingredient_id"`
}

func deleteProductIngredient(c echo.Context) error {
	var payload deleteRecipeLinePayload
	if err := decodePayload(c, &payload); err != nil || payload.ID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid recipe line ID", nil)
	}
	res := GetDB(c).Delete(&domain.ProductIngredient{}, payload.ID)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete recipe line", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "RECIPE_LINE_NOT_FOUND", "Recipe line not found", nil)
	}
	return ok(c, echo.Map{"deleted": payload.ID})
}

func getProductsUsingIngredient(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid inventory ID", nil)
	}
	usage, err := inventory.NewRecipeRepository(GetDB(c)).ProductsUsing(c.Request().Context(), id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query recipe usage", err.Error())
	}
	return ok(c, usage)
}
