package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/brewpos/brewpos/internal/inventory"
	"github.com/brewpos/brewpos/internal/webserver"
)

func registerAvailabilityRoutes() {
	webserver.ApiGET("/check-ingredient-availability/:id", checkIngredientAvailability)
	webserver.ApiGET("/check-product-availability/:id", checkIngredientAvailability)
	webserver.ApiGET("/get-max-possible-quantity/:id", getMaxPossibleQuantity)
	webserver.ApiPOST("/get-batch-product-ingredients", getBatchProductIngredients)
}

func newEvaluator(c echo.Context) *inventory.Evaluator {
	return inventory.NewEvaluator(inventory.NewRecipeRepository(GetDB(c)))
}

// checkIngredientAvailability answers whether the requested quantity of a
// product can be made from current stock. quantity defaults to 1.
func checkIngredientAvailability(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	qty := cast.ToInt(c.QueryParam("quantity"))
	if qty < 1 {
		qty = 1
	}

	avail, err := newEvaluator(c).CheckAvailability(c.Request().Context(), id, qty)
	if err != nil {
		return failInventoryError(c, err, "Failed to evaluate availability")
	}
	return ok(c, avail)
}

func getMaxPossibleQuantity(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	max, err := newEvaluator(c).MaxQuantity(c.Request().Context(), id)
	if err != nil {
		return failInventoryError(c, err, "Failed to evaluate max quantity")
	}
	return ok(c, echo.Map{"product_id": id, "max_quantity": max})
}

type batchPayload struct {
	ProductIDs []int64 `json:"product_ids"`
}

// getBatchProductIngredients evaluates availability for a whole menu page in
// one round trip.
func getBatchProductIngredients(c echo.Context) error {
	var payload batchPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product list", nil)
	}
	if len(payload.ProductIDs) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_BATCH", "No product IDs given", nil)
	}

	results, err := newEvaluator(c).BatchCheck(c.Request().Context(), payload.ProductIDs)
	if err != nil {
		return failInventoryError(c, err, "Failed to evaluate batch availability")
	}
	return ok(c, results)
}
